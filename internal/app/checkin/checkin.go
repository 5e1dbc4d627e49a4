// Package checkin orchestrates the daily submission flow: completion rules
// judge the categories, the scoring engine computes points, the penalty
// ledger gates submission, the tracker recomputes derived stats, and the
// gamification evaluator layers one-time bonuses on top. The sealed record
// and every side table are persisted before the result is returned.
package checkin

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mizan-app/mizan/internal/app/gamification"
	"github.com/mizan-app/mizan/internal/app/ledger"
	"github.com/mizan-app/mizan/internal/app/scoring"
	"github.com/mizan-app/mizan/internal/app/tracker"
	"github.com/mizan-app/mizan/internal/cache"
	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/metrics"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

// PerfectDayScore is the best score a single day can reach before streak and
// gamification bonuses: seven base awards plus the perfect-day bonus. The
// loss report measures deficits against it.
const PerfectDayScore = 9

// Service runs the submission flow and the derived read views.
type Service struct {
	db     *sqlite.DB
	ledger *ledger.Service
	mirror *cache.Mirror
}

// NewService wires the check-in service. mirror may be nil when no device
// cache is attached.
func NewService(db *sqlite.DB, lg *ledger.Service, mirror *cache.Mirror) *Service {
	return &Service{db: db, ledger: lg, mirror: mirror}
}

// Day loads the record for a date, injecting any carry-forward penalty first.
func (s *Service) Day(userID int64, date string, now time.Time) (*domain.DayRecord, error) {
	return s.ledger.EnsureDay(userID, date, now)
}

// SaveDraft replaces the category state of an unsealed day. The record stays
// unsubmitted; nothing is scored.
func (s *Service) SaveDraft(userID int64, date string, categories domain.CategoryState, now time.Time) (*domain.DayRecord, error) {
	if err := categories.Validate(); err != nil {
		return nil, err
	}
	day, err := s.ledger.EnsureDay(userID, date, now)
	if err != nil {
		return nil, err
	}
	if day.Submitted {
		return nil, domain.ErrDaySealed
	}
	day.Categories = categories
	if err := s.db.PutDayRecord(userID, *day); err != nil {
		return nil, fmt.Errorf("persist day %s: %w", date, err)
	}
	return day, nil
}

// SubmitResult is the outcome of sealing one day.
type SubmitResult struct {
	Day          *domain.DayRecord    `json:"day"`
	Streak       int                  `json:"streak"`
	Missions     []gamification.Award `json:"missions_earned,omitempty"`
	Achievements []gamification.Award `json:"achievements_earned,omitempty"`
	Stats        tracker.Stats        `json:"stats"`
}

// Submit seals a day. The gates run in a fixed order (sealed check, category
// validation, minimum threshold, unresolved penalties) and the first failure
// rejects the submission with no state change. On success the record is
// frozen: categories, Completed, points, and the breakdown trail never change
// afterward.
func (s *Service) Submit(userID int64, date string, categories domain.CategoryState, now time.Time) (*SubmitResult, error) {
	if err := categories.Validate(); err != nil {
		metrics.SubmitRejected.WithLabelValues("invalid").Inc()
		return nil, err
	}

	day, err := s.ledger.EnsureDay(userID, date, now)
	if err != nil {
		return nil, err
	}
	if day.Submitted {
		metrics.SubmitRejected.WithLabelValues("sealed").Inc()
		return nil, domain.ErrDaySealed
	}

	day.Categories = categories
	if !day.Categories.MeetsMinimumThreshold() {
		metrics.SubmitRejected.WithLabelValues("threshold").Inc()
		return nil, domain.ErrThresholdNotMet
	}
	if !day.PenaltiesResolved() {
		metrics.SubmitRejected.WithLabelValues("penalty").Inc()
		return nil, domain.ErrPenaltyUnresolved
	}

	result := scoring.Score(day.Categories)
	points := result.Points
	breakdown := result.Breakdown

	history, err := s.history(userID)
	if err != nil {
		return nil, err
	}

	// Streak standing after today: the run of qualifying records up to
	// yesterday, plus today itself.
	prevKey, err := previousKey(date)
	if err != nil {
		return nil, err
	}
	streak := tracker.ComputeStreak(history, prevKey) + 1
	if bonus := scoring.StreakBonus(streak); bonus > 0 {
		points += bonus
		breakdown = append(breakdown, scoring.StreakBonusLine)
	}

	ctx := gamification.Context{
		Day:            *day,
		DayKey:         date,
		LateCount:      result.LateCount,
		CompletedCount: result.CompletedCount,
		AllCompleted:   result.CompletedCount == 7,
		Streak:         streak,
	}
	for _, d := range history {
		if d.Date == date || !(d.Submitted && d.Completed) {
			continue
		}
		ctx.TotalCompletedDays++
		if d.Categories.IsPerfectDay() {
			ctx.PerfectDays++
		}
	}
	ctx.TotalCompletedDays++
	if day.Categories.IsPerfectDay() {
		ctx.PerfectDays++
	}

	missionProgress, err := s.db.GetProgress(userID, sqlite.KindMission)
	if err != nil {
		return nil, fmt.Errorf("load mission progress: %w", err)
	}
	achievementProgress, err := s.db.GetProgress(userID, sqlite.KindAchievement)
	if err != nil {
		return nil, fmt.Errorf("load achievement progress: %w", err)
	}

	missions := gamification.Evaluate(gamification.Missions(), ctx, missionProgress)
	achievements := gamification.Evaluate(gamification.Achievements(), ctx, achievementProgress)
	for _, a := range missions {
		points += a.Points
		breakdown = append(breakdown, fmt.Sprintf("%s: +%g", a.Title, a.Points))
	}
	for _, a := range achievements {
		points += a.Points
		breakdown = append(breakdown, fmt.Sprintf("%s: +%g", a.Title, a.Points))
	}

	day.Submitted = true
	day.Completed = true
	day.SubmittedAt = &now
	day.PointsAwarded = &points
	day.ScoreBreakdown = breakdown

	if err := s.db.PutDayRecord(userID, *day); err != nil {
		return nil, fmt.Errorf("persist day %s: %w", date, err)
	}
	for _, a := range missions {
		if err := s.db.MarkRuleCompleted(userID, sqlite.KindMission, a.ID, a.Points, now); err != nil {
			return nil, fmt.Errorf("mark mission %s: %w", a.ID, err)
		}
	}
	for _, a := range achievements {
		if err := s.db.MarkRuleCompleted(userID, sqlite.KindAchievement, a.ID, a.Points, now); err != nil {
			return nil, fmt.Errorf("mark achievement %s: %w", a.ID, err)
		}
	}

	user, err := s.db.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.AddLeaderboardPoints(userID, user.Username, points); err != nil {
		return nil, fmt.Errorf("update leaderboard: %w", err)
	}
	if err := s.db.AppendPointsLog(userID, domain.PointsLogEntry{
		Date:      date,
		Points:    points,
		Breakdown: breakdown,
	}); err != nil {
		return nil, fmt.Errorf("append points log: %w", err)
	}

	history[date] = *day
	stats := tracker.Derive(history, date)
	if err := s.db.ReplaceCycles(userID, stats.Cycles); err != nil {
		return nil, fmt.Errorf("persist cycles: %w", err)
	}

	metrics.DaysSubmitted.Inc()
	metrics.PointsAwarded.Add(points)

	// Cache refresh is a background-sync concern, never submission-critical.
	if s.mirror != nil {
		s.mirror.ResyncBestEffort(userID)
	}

	return &SubmitResult{
		Day:          day,
		Streak:       streak,
		Missions:     missions,
		Achievements: achievements,
		Stats:        stats,
	}, nil
}

// Status is the derived dashboard snapshot.
type Status struct {
	Stats        tracker.Stats             `json:"stats"`
	Rank         domain.RankTitle          `json:"rank"`
	RankInfo     domain.RankInfo           `json:"rank_info"`
	Missions     []gamification.RuleStatus `json:"missions"`
	Achievements []gamification.RuleStatus `json:"achievements"`
}

// Status rebuilds the full derived snapshot from history.
func (s *Service) Status(userID int64, now time.Time) (*Status, error) {
	history, err := s.history(userID)
	if err != nil {
		return nil, err
	}
	stats := tracker.Derive(history, domain.DayKey(now))

	missionProgress, err := s.db.GetProgress(userID, sqlite.KindMission)
	if err != nil {
		return nil, fmt.Errorf("load mission progress: %w", err)
	}
	achievementProgress, err := s.db.GetProgress(userID, sqlite.KindAchievement)
	if err != nil {
		return nil, fmt.Errorf("load achievement progress: %w", err)
	}

	return &Status{
		Stats:        stats,
		Rank:         stats.Rank,
		RankInfo:     domain.RankCatalog[stats.Rank],
		Missions:     gamification.WithProgress(gamification.Missions(), missionProgress),
		Achievements: gamification.WithProgress(gamification.Achievements(), achievementProgress),
	}, nil
}

// DaySummary is one day's line in the summary report.
type DaySummary struct {
	Date      string  `json:"date"`
	Points    float64 `json:"points"`
	Sealed    bool    `json:"sealed"`
	Completed bool    `json:"completed"`
}

// Summary is the score report over a trailing window.
type Summary struct {
	Window       string       `json:"window"`
	TotalScore   float64      `json:"total_score"`
	AverageScore float64      `json:"average_score"`
	Days         []DaySummary `json:"days"`
}

// Summary reports scores over the last rangeDays calendar days ending today.
// The average is taken over sealed days only.
func (s *Service) Summary(userID int64, rangeDays int, now time.Time) (*Summary, error) {
	history, err := s.history(userID)
	if err != nil {
		return nil, err
	}

	out := &Summary{Window: fmt.Sprintf("%dd", rangeDays)}
	sealed := 0
	for _, key := range windowKeys(rangeDays, now) {
		day, ok := history[key]
		if !ok {
			continue
		}
		entry := DaySummary{Date: key, Sealed: day.Submitted, Completed: day.Completed}
		if day.PointsAwarded != nil {
			entry.Points = *day.PointsAwarded
		}
		if day.Submitted {
			sealed++
			out.TotalScore += entry.Points
		}
		out.Days = append(out.Days, entry)
	}
	if sealed > 0 {
		out.AverageScore = out.TotalScore / float64(sealed)
	}
	return out, nil
}

// LossDetail is one day's deficit against a perfect score.
type LossDetail struct {
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
	Deficit float64 `json:"deficit"`
	Sealed  bool    `json:"sealed"`
}

// Loss is the deficit report over a trailing window. Days with no record at
// all count as the full deficit.
type Loss struct {
	Window          string       `json:"window"`
	DaysEvaluated   int          `json:"days_evaluated"`
	SealedEntries   int          `json:"sealed_entries"`
	UnsealedEntries int          `json:"unsealed_entries"`
	MissingDays     int          `json:"missing_days"`
	TotalDeficit    float64      `json:"total_deficit"`
	Details         []LossDetail `json:"details"`
}

// Loss reports how far each day in the window fell short of PerfectDayScore.
func (s *Service) Loss(userID int64, rangeDays int, now time.Time) (*Loss, error) {
	history, err := s.history(userID)
	if err != nil {
		return nil, err
	}

	out := &Loss{Window: fmt.Sprintf("%dd", rangeDays), DaysEvaluated: rangeDays}
	for _, key := range windowKeys(rangeDays, now) {
		day, ok := history[key]
		if !ok {
			out.MissingDays++
			out.TotalDeficit += PerfectDayScore
			continue
		}
		detail := LossDetail{Date: key, Deficit: PerfectDayScore, Sealed: day.Submitted}
		if day.Submitted {
			out.SealedEntries++
		} else {
			out.UnsealedEntries++
		}
		if day.Submitted && day.PointsAwarded != nil {
			detail.Score = *day.PointsAwarded
			detail.Deficit = PerfectDayScore - detail.Score
			if detail.Deficit < 0 {
				detail.Deficit = 0
			}
		}
		out.TotalDeficit += detail.Deficit
		out.Details = append(out.Details, detail)
	}
	return out, nil
}

// ExportCSV writes the full check-in history as CSV: one row per recorded
// day, date ascending.
func (s *Service) ExportCSV(w io.Writer, userID int64) error {
	records, err := s.db.ListDayRecords(userID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "submitted", "completed", "points"}); err != nil {
		return err
	}
	for _, rec := range records {
		points := 0.0
		if rec.PointsAwarded != nil {
			points = *rec.PointsAwarded
		}
		row := []string{
			rec.Date,
			strconv.FormatBool(rec.Submitted),
			strconv.FormatBool(rec.Completed),
			strconv.FormatFloat(points, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) history(userID int64) (tracker.History, error) {
	records, err := s.db.ListDayRecords(userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	h := make(tracker.History, len(records))
	for _, r := range records {
		h[r.Date] = r
	}
	return h, nil
}

// windowKeys lists the date keys of the trailing window, oldest first,
// ending on today's key.
func windowKeys(rangeDays int, now time.Time) []string {
	keys := make([]string, 0, rangeDays)
	for i := rangeDays - 1; i >= 0; i-- {
		keys = append(keys, domain.DayKey(now.AddDate(0, 0, -i)))
	}
	return keys
}

func previousKey(date string) (string, error) {
	t, err := time.Parse(domain.DayKeyLayout, date)
	if err != nil {
		return "", &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return domain.PreviousDayKey(t), nil
}
