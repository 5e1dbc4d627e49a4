// Package scoring converts a day's category state into a point total with a
// human-readable breakdown trail. Pure and deterministic: the same state
// always yields the same points and the same breakdown lines, in the same
// order. The trail is user-visible, so line text and ordering are fixed.
package scoring

import (
	"fmt"

	"github.com/mizan-app/mizan/internal/domain"
)

// StreakBonusPoints is added by the caller when the streak after today is a
// positive multiple of seven.
const StreakBonusPoints = 20

// StreakBonusLine is the breakdown line appended with the streak bonus.
const StreakBonusLine = "7-day streak: +20 bonus"

// Result is the outcome of scoring one day.
type Result struct {
	Points         float64  `json:"points"`
	Breakdown      []string `json:"breakdown"`
	LateCount      int      `json:"late_count"`
	CompletedCount int      `json:"completed_count"`
}

// Score computes the day's points. Order of operations is fixed:
// base awards in category order, then the late-prayer deduction, then the
// perfect-day bonus. Streak and gamification bonuses are layered on by the
// caller, each with its own breakdown line.
func Score(c domain.CategoryState) Result {
	var (
		points    float64
		breakdown []string
	)

	award := func(line string) {
		points++
		breakdown = append(breakdown, line)
	}

	if c.Salah.Complete() {
		award("Salah completed: +1")
	}
	if c.Quran.Complete() {
		award("Qur'an completed: +1")
	}
	if c.Physical.Complete() {
		award("Physical completed: +1")
	}
	if c.Build.Complete() {
		award("Build completed: +1")
	}
	if c.Study.Completed {
		award("Study completed: +1")
	}
	if c.Journal.Completed {
		award("Journal completed: +1")
	}
	if c.Rest.Completed {
		award("Rest completed: +1")
	}

	// Each late prayer removes 0.5, clamped so the deduction alone never
	// drives the total below zero.
	lateCount := c.Salah.LateCount()
	if lateCount > 0 {
		deduction := float64(lateCount) * 0.5
		if deduction > points {
			deduction = points
		}
		points -= deduction
		breakdown = append(breakdown, fmt.Sprintf("Late prayers (%d): -%.1f", lateCount, deduction))
	}

	completedCount := c.CompletedCount()
	if completedCount == 7 {
		points += 2
		breakdown = append(breakdown, "All tasks completed: +2 bonus")
	}

	return Result{
		Points:         points,
		Breakdown:      breakdown,
		LateCount:      lateCount,
		CompletedCount: completedCount,
	}
}

// StreakBonus returns the bonus for the streak standing after today's
// submission, or 0 when none applies.
func StreakBonus(streakAfterToday int) float64 {
	if streakAfterToday > 0 && streakAfterToday%7 == 0 {
		return StreakBonusPoints
	}
	return 0
}
