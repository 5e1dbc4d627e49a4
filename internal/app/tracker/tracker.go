// Package tracker derives streaks, 7-day cycles, and rank from the sequence
// of daily records. Everything is rebuilt deterministically from the full
// history on every read, so there is no incremental state to drift.
package tracker

import (
	"fmt"
	"sort"

	"github.com/mizan-app/mizan/internal/domain"
)

// History is the full set of a user's day records, keyed by date.
type History map[string]domain.DayRecord

// sortedKeys returns the date keys of h in ascending order.
func sortedKeys(h History) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// qualifies reports whether a record counts toward streaks and cycles.
func qualifies(d domain.DayRecord) bool {
	return d.Submitted && d.Completed
}

// ComputeStreak walks the recorded dates at or before uptoKey backward from
// the most recent and counts consecutive submitted-and-completed entries.
// The first entry failing that test stops the count; streaks require
// contiguous existing qualifying records, not contiguous calendar dates.
func ComputeStreak(h History, uptoKey string) int {
	keys := sortedKeys(h)
	streak := 0
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] > uptoKey {
			continue
		}
		if !qualifies(h[keys[i]]) {
			break
		}
		streak++
	}
	return streak
}

// CompletedDates returns the submitted-and-completed dates in ascending order.
func CompletedDates(h History) []string {
	var dates []string
	for _, k := range sortedKeys(h) {
		if qualifies(h[k]) {
			dates = append(dates, k)
		}
	}
	return dates
}

// BuildCycles buckets completed dates into groups of at most seven, in
// encounter order. Calendar adjacency is not required. A trailing partial
// group is the in-progress cycle. Idempotent and order-stable.
func BuildCycles(completedDates []string) []domain.CycleRecord {
	var cycles []domain.CycleRecord
	current := domain.CycleRecord{ID: cycleID(1)}

	for _, date := range completedDates {
		if contains(current.Days, date) {
			continue
		}
		if len(current.Days) == 7 {
			cycles = append(cycles, current)
			current = domain.CycleRecord{ID: cycleID(len(cycles) + 1)}
		}
		current.Days = append(current.Days, date)
	}

	if len(current.Days) > 0 {
		cycles = append(cycles, current)
	}
	return cycles
}

// CyclesCompleted counts full groups of seven.
func CyclesCompleted(cycles []domain.CycleRecord) int {
	n := 0
	for _, c := range cycles {
		if c.Full() {
			n++
		}
	}
	return n
}

// CurrentProgress returns the length of the trailing cycle, or 0 when the
// last cycle is already full (the next cycle is empty) or no cycle exists.
func CurrentProgress(cycles []domain.CycleRecord) int {
	if len(cycles) == 0 {
		return 0
	}
	last := cycles[len(cycles)-1]
	if last.Full() {
		return 0
	}
	return len(last.Days)
}

// HasRecoveredFromMiss scans backward from the most recent day. If a
// submitted-but-not-completed day sits right behind the current completed
// run, the user has failed then continued: recovered.
func HasRecoveredFromMiss(h History) bool {
	keys := sortedKeys(h)
	for i := len(keys) - 1; i >= 0; i-- {
		entry := h[keys[i]]
		if entry.Completed {
			continue
		}
		return entry.Submitted
	}
	return false
}

// ClassifyRank returns the highest tier whose threshold is met, checked from
// most to least advanced. First match wins.
func ClassifyRank(completedDays, cyclesCompleted int, hasRecovered bool) domain.RankTitle {
	switch {
	case completedDays >= 30:
		return domain.RankMuttazin
	case cyclesCompleted >= 7 && hasRecovered:
		return domain.RankMuhasib
	case cyclesCompleted >= 3:
		return domain.RankMuwazib
	case cyclesCompleted >= 1:
		return domain.RankMultazim
	case completedDays >= 1:
		return domain.RankMuntabih
	default:
		return domain.RankGhafil
	}
}

// Stats is the derived snapshot the status view and rank depend on.
type Stats struct {
	SubmittedDays        int                  `json:"submitted_days"`
	CompletedDays        int                  `json:"completed_days"`
	PerfectDays          int                  `json:"perfect_days"`
	CurrentStreak        int                  `json:"current_streak"`
	PenaltiesOutstanding int                  `json:"penalties_outstanding"`
	Cycles               []domain.CycleRecord `json:"cycles"`
	CyclesCompleted      int                  `json:"cycles_completed"`
	CurrentProgress      int                  `json:"current_progress"`
	HasRecovered         bool                 `json:"has_recovered"`
	Rank                 domain.RankTitle     `json:"rank"`
}

// Derive rebuilds the full stat snapshot from history.
func Derive(h History, uptoKey string) Stats {
	var s Stats
	for _, d := range h {
		if d.Submitted {
			s.SubmittedDays++
		}
		if qualifies(d) {
			s.CompletedDays++
			if d.Categories.IsPerfectDay() {
				s.PerfectDays++
			}
		}
		for _, p := range d.Penalties {
			if !p.Resolved {
				s.PenaltiesOutstanding++
			}
		}
	}
	s.CurrentStreak = ComputeStreak(h, uptoKey)
	s.Cycles = BuildCycles(CompletedDates(h))
	s.CyclesCompleted = CyclesCompleted(s.Cycles)
	s.CurrentProgress = CurrentProgress(s.Cycles)
	s.HasRecovered = HasRecoveredFromMiss(h)
	s.Rank = ClassifyRank(s.CompletedDays, s.CyclesCompleted, s.HasRecovered)
	return s
}

func cycleID(n int) string {
	return fmt.Sprintf("cycle-%d", n)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
