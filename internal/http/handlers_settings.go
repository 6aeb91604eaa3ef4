package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type settingsPayload struct {
	Currency          string `json:"currency"`
	Locale            string `json:"locale"`
	RenewalWindowDays int    `json:"renewal_window_days"`

	// Samples show how amounts and dates render under the current
	// settings. Ignored on save.
	SampleAmount string `json:"sample_amount,omitempty"`
	SampleDate   string `json:"sample_date,omitempty"`
}

func settingsResponse(settings storage.UserSettings, today core.Date) settingsPayload {
	return settingsPayload{
		Currency:          settings.Currency,
		Locale:            settings.Locale,
		RenewalWindowDays: settings.RenewalWindowDays,
		SampleAmount:      core.FormatMoney(core.Money{Cents: 123456}, settings.Currency, settings.Locale),
		SampleDate:        core.FormatDate(today, settings.Locale),
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	settings, err := s.settings.GetUserSettings(r.Context(), userID, s.defaults)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse(settings, core.DateOf(time.Now())))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req settingsPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(req.Currency) != 3 {
		writeError(w, http.StatusBadRequest, "currency must be a 3-letter code")
		return
	}
	req.Locale = strings.TrimSpace(req.Locale)
	if req.Locale == "" {
		writeError(w, http.StatusBadRequest, "locale is required")
		return
	}
	if req.RenewalWindowDays < 0 || req.RenewalWindowDays > 365 {
		writeError(w, http.StatusBadRequest, "renewal_window_days must be between 0 and 365")
		return
	}

	settings := storage.UserSettings{
		Currency:          req.Currency,
		Locale:            req.Locale,
		RenewalWindowDays: req.RenewalWindowDays,
	}
	if err := s.settings.SaveUserSettings(r.Context(), userID, settings); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	s.invalidateViews(userID)
	writeJSON(w, http.StatusOK, settingsResponse(settings, core.DateOf(time.Now())))
}
