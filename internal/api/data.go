package api

import (
	"net/http"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

// handleSync returns the full device-cache snapshot: every day record,
// the cycle mirror, and settings.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	records, err := s.db.ListDayRecords(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cycles, err := s.db.ListCycles(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	settings, err := s.db.GetSettings(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	checkins := make(map[string]domain.DayRecord, len(records))
	for _, rec := range records {
		checkins[rec.Date] = rec
	}
	if cycles == nil {
		cycles = []domain.CycleRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checkins": checkins,
		"cycles":   cycles,
		"settings": settings,
	})
}

// handleSaveDraft upserts an unsealed day's category state.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string               `json:"date"`
		Categories domain.CategoryState `json:"categories"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := time.Parse(domain.DayKeyLayout, req.Date); err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}

	day, err := s.checkins.SaveDraft(userID(r), req.Date, req.Categories, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.GetSettings(userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.db.PutSettings(userID(r), settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleWipe deletes all of the user's data and clears the cache mirror.
// The account itself survives.
func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	if err := s.db.WipeUserData(id); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.mirror != nil {
		s.mirror.ResyncBestEffort(id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "wiped"})
}
