// Package ledger implements the penalty ledger: carry-forward debts from
// missed days that must be acknowledged before the next day can be sealed.
package ledger

import (
	"fmt"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/metrics"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

// Service manages penalty creation and resolution.
type Service struct {
	db *sqlite.DB
}

// NewService creates a penalty ledger service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// EnsureDay loads the record for a date, creating an empty one on first
// access. When the date is "today" relative to now, a carry-forward penalty
// is injected if yesterday exists and was not both submitted and completed.
// Idempotent: at most one penalty per origin date, ever.
func (s *Service) EnsureDay(userID int64, date string, now time.Time) (*domain.DayRecord, error) {
	day, err := s.db.GetDayRecord(userID, date)
	if err == domain.ErrDayNotFound {
		fresh := domain.EmptyDay(date)
		day = &fresh
	} else if err != nil {
		return nil, fmt.Errorf("load day %s: %w", date, err)
	}

	if day.Submitted || date != domain.DayKey(now) {
		return day, nil
	}

	yesterdayKey := domain.PreviousDayKey(now)
	yesterday, err := s.db.GetDayRecord(userID, yesterdayKey)
	if err == domain.ErrDayNotFound {
		// No record at all means nothing to carry forward.
		if persistErr := s.db.PutDayRecord(userID, *day); persistErr != nil {
			return nil, persistErr
		}
		return day, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous day: %w", err)
	}

	missed := !(yesterday.Submitted && yesterday.Completed)
	if missed && !day.HasPenaltyFrom(yesterdayKey) {
		day.Penalties = append(day.Penalties, domain.Penalty{
			ID:     "penalty-" + yesterdayKey,
			Label:  "Missed obligation: debt carried forward",
			Origin: yesterdayKey,
			Due:    date,
			Type:   domain.PenaltyExtraMile,
		})
		metrics.PenaltiesCreated.Inc()
	}

	if err := s.db.PutDayRecord(userID, *day); err != nil {
		return nil, fmt.Errorf("persist day %s: %w", date, err)
	}
	return day, nil
}

// Toggle flips a penalty between resolved and unresolved. Blocked once the
// day is sealed.
func (s *Service) Toggle(userID int64, date, penaltyID string) (*domain.DayRecord, error) {
	day, err := s.db.GetDayRecord(userID, date)
	if err != nil {
		return nil, err
	}
	if day.Submitted {
		return nil, domain.ErrDaySealed
	}

	found := false
	for i := range day.Penalties {
		if day.Penalties[i].ID == penaltyID {
			day.Penalties[i].Resolved = !day.Penalties[i].Resolved
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrPenaltyNotFound
	}

	if err := s.db.PutDayRecord(userID, *day); err != nil {
		return nil, fmt.Errorf("persist day %s: %w", date, err)
	}
	return day, nil
}
