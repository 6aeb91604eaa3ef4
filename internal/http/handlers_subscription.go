package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

// subscriptionRequest is the wire format for create and update.
type subscriptionRequest struct {
	Name            string `json:"name"`
	PriceCents      *int64 `json:"price_cents"`
	BillingCycle    string `json:"billing_cycle"`
	Category        string `json:"category"`
	NextBillingDate string `json:"next_billing_date"`
	Description     string `json:"description"`
	Logo            string `json:"logo"`
}

type subscriptionResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	BillingCycle    string `json:"billing_cycle"`
	Category        string `json:"category"`
	NextBillingDate string `json:"next_billing_date"`
	Active          bool   `json:"active"`
	Description     string `json:"description,omitempty"`
	Logo            string `json:"logo,omitempty"`
	MonthlyCents    int64  `json:"monthly_cents"`
	YearlyCents     int64  `json:"yearly_cents"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toSubscriptionResponse(s core.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:              s.ID,
		Name:            s.Name,
		PriceCents:      s.Price.Cents,
		BillingCycle:    string(s.Cycle),
		Category:        string(s.Category),
		NextBillingDate: s.NextBilling.String(),
		Active:          s.Active,
		Description:     s.Description,
		Logo:            s.Logo,
		MonthlyCents:    s.MonthlyCents(),
		YearlyCents:     s.YearlyCents(),
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
}

// toServiceInput validates wire values and converts them to typed input.
// Unknown categories collapse to "other" here at the boundary.
func (req subscriptionRequest) toServiceInput() (services.SubscriptionInput, error) {
	if req.PriceCents == nil {
		return services.SubscriptionInput{}, errors.New("price_cents is required")
	}
	cycle, err := core.ParseCycle(req.BillingCycle)
	if err != nil {
		return services.SubscriptionInput{}, err
	}
	next, err := core.ParseDate(req.NextBillingDate)
	if err != nil {
		return services.SubscriptionInput{}, errors.New("next_billing_date must be YYYY-MM-DD")
	}
	return services.SubscriptionInput{
		Name:        sanitizeInput(req.Name),
		Price:       core.Money{Cents: *req.PriceCents},
		Cycle:       cycle,
		Category:    core.ParseCategory(req.Category),
		NextBilling: next,
		Description: sanitizeInput(req.Description),
		Logo:        sanitizeInput(req.Logo),
	}, nil
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	subs, err := s.subs.List(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": out})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toServiceInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.subs.Create(r.Context(), userID, in)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	s.invalidateViews(userID)
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	sub, err := s.subs.Get(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to get subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toServiceInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.subs.Update(r.Context(), userID, r.PathValue("id"), in)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	case err != nil && isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Failed to update subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}

	s.invalidateViews(userID)
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	err := s.subs.Delete(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	s.invalidateViews(userID)
	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleSetSubscriptionActive(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}

	err := s.subs.SetActive(r.Context(), userID, r.PathValue("id"), *req.Active)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to toggle subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle subscription")
		return
	}

	s.invalidateViews(userID)
	w.WriteHeader(http.StatusNoContent)
}

// isValidationError distinguishes bad input from infrastructure
// failures when the service returns an error.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidCycle) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrNameTooLong) ||
		errors.Is(err, core.ErrDescriptionTooLong)
}
