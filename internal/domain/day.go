package domain

import "time"

// DayKeyLayout is the calendar-day key format. Keys sort lexicographically
// in date order, which the streak and cycle walkers rely on.
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar-day key for a timestamp.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// PreviousDayKey returns the key of the calendar day before t.
func PreviousDayKey(t time.Time) string {
	return t.AddDate(0, 0, -1).Format(DayKeyLayout)
}

// PenaltyType classifies a carried-forward debt.
type PenaltyType string

const (
	PenaltyExtraMile      PenaltyType = "extra-mile"
	PenaltyDisciplineDebt PenaltyType = "discipline-debt"
)

// Penalty is an obligation-debt carried forward from a missed day.
// At most one penalty exists per origin date.
type Penalty struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Origin   string      `json:"origin"` // date key of the miss
	Due      string      `json:"due"`    // date key it must be resolved by
	Type     PenaltyType `json:"type"`
	Resolved bool        `json:"resolved"`
}

// DayRecord is one user's entry for one calendar date.
// Once Submitted is true the record is sealed: categories are frozen and
// Completed is never recomputed.
type DayRecord struct {
	Date           string        `json:"date"`
	Categories     CategoryState `json:"categories"`
	Submitted      bool          `json:"submitted"`
	Completed      bool          `json:"completed"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
	Penalties      []Penalty     `json:"penalties"`
	PointsAwarded  *float64      `json:"points_awarded,omitempty"`
	ScoreBreakdown []string      `json:"score_breakdown,omitempty"`
}

// EmptyDay returns a fresh record for a date with structural defaults.
// Absence of input means "not done", never a nil field.
func EmptyDay(date string) DayRecord {
	return DayRecord{
		Date:      date,
		Penalties: []Penalty{},
	}
}

// PenaltiesResolved reports whether every attached penalty is resolved.
func (d DayRecord) PenaltiesResolved() bool {
	for _, p := range d.Penalties {
		if !p.Resolved {
			return false
		}
	}
	return true
}

// HasPenaltyFrom reports whether a penalty (resolved or not) already
// references the given origin date.
func (d DayRecord) HasPenaltyFrom(origin string) bool {
	for _, p := range d.Penalties {
		if p.Origin == origin {
			return true
		}
	}
	return false
}

// CanSubmit is the submission gate: not yet sealed, minimum threshold met,
// and no unresolved penalty.
func (d DayRecord) CanSubmit() bool {
	return !d.Submitted && d.Categories.MeetsMinimumThreshold() && d.PenaltiesResolved()
}

// CycleRecord groups up to seven completed-day dates. Dates are consecutive
// in the completed sequence, not on the calendar.
type CycleRecord struct {
	ID   string   `json:"id"`
	Days []string `json:"days"`
}

// Full reports whether the cycle holds seven dates.
func (c CycleRecord) Full() bool {
	return len(c.Days) == 7
}

// LeaderboardEntry is one user's cumulative point total. Points only grow.
type LeaderboardEntry struct {
	Username string  `json:"user"`
	Points   float64 `json:"points"`
}

// PointsLogEntry records the outcome of one submitted day.
type PointsLogEntry struct {
	Date      string   `json:"date"`
	Points    float64  `json:"points"`
	Breakdown []string `json:"breakdown"`
}

// ProgressEntry marks a mission or achievement rule as earned.
// Monotonic: once Completed is true it never reverts.
type ProgressEntry struct {
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PointsAwarded float64    `json:"points_awarded,omitempty"`
}

// ProgressMap maps rule id → progress.
type ProgressMap map[string]ProgressEntry
