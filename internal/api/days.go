package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizan-app/mizan/internal/domain"
)

func dateParam(r *http.Request) (string, error) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(domain.DayKeyLayout, date); err != nil {
		return "", &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return date, nil
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	day, err := s.checkins.Day(userID(r), date, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req struct {
		Categories domain.CategoryState `json:"categories"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := s.checkins.Submit(userID(r), date, req.Categories, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTogglePenalty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Date == "" {
		req.Date = domain.DayKey(s.now())
	} else if _, err := time.Parse(domain.DayKeyLayout, req.Date); err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}

	day, err := s.penalties.Toggle(userID(r), req.Date, chi.URLParam(r, "penaltyID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.checkins.Status(userID(r), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// rangeDays parses the ?days=N window, defaulting to 7 and capping at 90.
func rangeDays(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || n <= 0 {
		return 7
	}
	if n > 90 {
		return 90
	}
	return n
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	user, err := s.db.GetUser(userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reason := paywall(user, now, "summary"); reason != nil {
		writeJSON(w, http.StatusOK, map[string]any{"paywall_reason": reason})
		return
	}

	summary, err := s.checkins.Summary(user.ID, rangeDays(r), now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLoss(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	user, err := s.db.GetUser(userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	loss, err := s.checkins.Loss(user.ID, rangeDays(r), now)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Free accounts see the window and counts; totals and per-day details
	// stay behind the paywall.
	if reason := paywall(user, now, "loss_report"); reason != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"window":           loss.Window,
			"days_evaluated":   loss.DaysEvaluated,
			"sealed_entries":   loss.SealedEntries,
			"unsealed_entries": loss.UnsealedEntries,
			"missing_days":     loss.MissingDays,
			"paywall_reason":   reason,
		})
		return
	}
	writeJSON(w, http.StatusOK, loss)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.Leaderboard()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="mizan-export.csv"`)
	if err := s.checkins.ExportCSV(w, userID(r)); err != nil {
		writeDomainError(w, err)
	}
}
