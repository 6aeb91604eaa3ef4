package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type categoryTotalResponse struct {
	Category       string `json:"category"`
	MonthlyCents   int64  `json:"monthly_cents"`
	MonthlyDisplay string `json:"monthly_display"`
	Count          int    `json:"count"`
	AverageCents   int64  `json:"average_cents"`
	AverageDisplay string `json:"average_display"`
}

type summaryResponse struct {
	MonthlyTotalCents   int64                   `json:"monthly_total_cents"`
	MonthlyTotalDisplay string                  `json:"monthly_total_display"`
	YearlyTotalCents    int64                   `json:"yearly_total_cents"`
	YearlyTotalDisplay  string                  `json:"yearly_total_display"`
	ActiveCount         int                     `json:"active_count"`
	InactiveCount       int                     `json:"inactive_count"`
	ByCategory          []categoryTotalResponse `json:"by_category"`
}

type renewalAlertResponse struct {
	Subscription       subscriptionResponse `json:"subscription"`
	DaysUntil          int                  `json:"days_until"`
	NextBillingDisplay string               `json:"next_billing_display"`
	PriceDisplay       string               `json:"price_display"`
}

type upcomingResponse struct {
	WindowDays int                    `json:"window_days"`
	Alerts     []renewalAlertResponse `json:"alerts"`
}

func toCategoryTotalResponse(ct core.CategoryTotal, currency, locale string) categoryTotalResponse {
	avg := ct.Average()
	return categoryTotalResponse{
		Category:       string(ct.Category),
		MonthlyCents:   ct.MonthlyCents,
		MonthlyDisplay: core.FormatMoney(core.Money{Cents: ct.MonthlyCents}, currency, locale),
		Count:          ct.Count,
		AverageCents:   avg.Cents,
		AverageDisplay: core.FormatMoney(avg, currency, locale),
	}
}

// userSettings resolves display preferences, falling back to server
// defaults when the lookup fails.
func (s *Server) userSettings(r *http.Request, userID string) storage.UserSettings {
	settings, err := s.settings.GetUserSettings(r.Context(), userID, s.defaults)
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to load user settings, using defaults",
			"error", err)
		return s.defaults
	}
	return settings
}

// serveCached writes a previously rendered view if present, otherwise
// renders with build, caches and writes the result.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	if body, ok := s.viewCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	v, err := build()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build dashboard view",
			"view", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build view")
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal dashboard view", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build view")
		return
	}

	s.viewCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	settings := s.userSettings(r, userID)

	s.serveCached(w, r, userID+":summary", func() (any, error) {
		subs, err := s.subs.List(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return buildSummaryResponse(core.Summarize(subs), settings), nil
	})
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	settings := s.userSettings(r, userID)

	n := parseIntParam(r, "n", 3)
	if n < 1 || n > len(core.Categories) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("n must be between 1 and %d", len(core.Categories)))
		return
	}

	s.serveCached(w, r, fmt.Sprintf("%s:top:%d", userID, n), func() (any, error) {
		subs, err := s.subs.List(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		top := core.Summarize(subs).TopCategories(n)
		out := make([]categoryTotalResponse, 0, len(top))
		for _, ct := range top {
			out = append(out, toCategoryTotalResponse(ct, settings.Currency, settings.Locale))
		}
		return map[string]any{"categories": out}, nil
	})
}

func (s *Server) handleUpcomingRenewals(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	settings := s.userSettings(r, userID)

	window := parseIntParam(r, "window", settings.RenewalWindowDays)
	if window < 0 || window > 365 {
		writeError(w, http.StatusBadRequest, "window must be between 0 and 365 days")
		return
	}

	today := core.DateOf(time.Now())
	key := fmt.Sprintf("%s:upcoming:%d:%s", userID, window, today)

	s.serveCached(w, r, key, func() (any, error) {
		subs, err := s.subs.List(r.Context(), userID)
		if err != nil {
			return nil, err
		}

		alerts := core.UpcomingRenewals(subs, window, today)
		out := make([]renewalAlertResponse, 0, len(alerts))
		for _, a := range alerts {
			out = append(out, renewalAlertResponse{
				Subscription:       toSubscriptionResponse(a.Subscription),
				DaysUntil:          a.DaysUntil,
				NextBillingDisplay: core.FormatDate(a.Subscription.NextBilling, settings.Locale),
				PriceDisplay:       core.FormatMoney(a.Subscription.Price, settings.Currency, settings.Locale),
			})
		}
		return upcomingResponse{WindowDays: window, Alerts: out}, nil
	})
}

func buildSummaryResponse(sum core.Summary, settings storage.UserSettings) summaryResponse {
	resp := summaryResponse{
		MonthlyTotalCents:   sum.MonthlyTotal.Cents,
		MonthlyTotalDisplay: core.FormatMoney(sum.MonthlyTotal, settings.Currency, settings.Locale),
		YearlyTotalCents:    sum.YearlyTotal.Cents,
		YearlyTotalDisplay:  core.FormatMoney(sum.YearlyTotal, settings.Currency, settings.Locale),
		ActiveCount:         sum.ActiveCount,
		InactiveCount:       sum.InactiveCount,
		ByCategory:          make([]categoryTotalResponse, 0, len(sum.ByCategory)),
	}
	for _, ct := range sum.ByCategory {
		resp.ByCategory = append(resp.ByCategory, toCategoryTotalResponse(ct, settings.Currency, settings.Locale))
	}
	return resp
}
