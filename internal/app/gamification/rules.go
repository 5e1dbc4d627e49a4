// Package gamification evaluates mission and achievement rule sets against
// daily and cumulative context, awarding one-time bonuses. Missions are
// checked once per day submission; achievements against cumulative stats.
// Evaluation is idempotent: earned rules never un-complete and are skipped
// on re-evaluation.
package gamification

import "github.com/mizan-app/mizan/internal/domain"

// Context is the snapshot a rule predicate sees.
type Context struct {
	Day            domain.DayRecord
	DayKey         string
	LateCount      int
	CompletedCount int
	AllCompleted   bool

	// Cumulative counts, populated for achievement evaluation, including the day
	// being submitted.
	TotalCompletedDays int
	Streak             int
	PerfectDays        int
}

// RuleDef defines one mission or achievement with a stat-based predicate.
type RuleDef struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`

	Predicate func(Context) bool `json:"-"`
}

// Missions is the per-day rule catalog.
func Missions() []RuleDef {
	return []RuleDef{
		{
			ID: "five-of-seven", Title: "Meet the standard",
			Description: "Complete at least 5 of 7 obligations.", Points: 1,
			Predicate: func(c Context) bool { return c.CompletedCount >= 5 },
		},
		{
			ID: "no-late-prayers", Title: "On time",
			Description: "Finish the day with zero late prayers.", Points: 1,
			Predicate: func(c Context) bool { return c.LateCount == 0 && c.CompletedCount >= 5 },
		},
		{
			ID: "perfect-day", Title: "Full balance",
			Description: "Complete all 7 obligations in one day.", Points: 2,
			Predicate: func(c Context) bool { return c.AllCompleted },
		},
	}
}

// Achievements is the cumulative rule catalog.
func Achievements() []RuleDef {
	return []RuleDef{
		{
			ID: "first-day", Title: "First step",
			Description: "Complete your first balanced day.", Points: 2,
			Predicate: func(c Context) bool { return c.TotalCompletedDays >= 1 },
		},
		{
			ID: "streak-seven", Title: "Week strong",
			Description: "Reach a 7-day completion streak.", Points: 5,
			Predicate: func(c Context) bool { return c.Streak >= 7 },
		},
		{
			ID: "perfect-three", Title: "Triple perfect",
			Description: "Log three perfect days (all 7 obligations).", Points: 5,
			Predicate: func(c Context) bool { return c.PerfectDays >= 3 },
		},
	}
}

// Award is a newly earned rule and its bonus.
type Award struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Points float64 `json:"points"`
}

// Evaluate runs a rule catalog against a context and the current progress
// map. Already-earned rules are skipped; newly satisfied ones are returned.
// Pure; persistence is the caller's job.
func Evaluate(rules []RuleDef, ctx Context, progress domain.ProgressMap) []Award {
	var earned []Award
	for _, rule := range rules {
		if progress[rule.ID].Completed {
			continue
		}
		if rule.Predicate != nil && rule.Predicate(ctx) {
			earned = append(earned, Award{ID: rule.ID, Title: rule.Title, Points: rule.Points})
		}
	}
	return earned
}

// RuleStatus is a catalog entry joined with its progress, for display.
type RuleStatus struct {
	RuleDef
	Completed bool `json:"completed"`
}

// WithProgress joins a catalog with a progress map.
func WithProgress(rules []RuleDef, progress domain.ProgressMap) []RuleStatus {
	out := make([]RuleStatus, len(rules))
	for i, rule := range rules {
		out[i] = RuleStatus{RuleDef: rule, Completed: progress[rule.ID].Completed}
	}
	return out
}
