package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

// ProgressKind separates the two rule-set progress tables.
type ProgressKind string

const (
	KindMission     ProgressKind = "mission"
	KindAchievement ProgressKind = "achievement"
)

// GetProgress loads a user's progress map for one rule-set kind.
func (d *DB) GetProgress(userID int64, kind ProgressKind) (domain.ProgressMap, error) {
	rows, err := d.db.Query(
		`SELECT rule_id, completed_at, points FROM progress WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := domain.ProgressMap{}
	for rows.Next() {
		var (
			ruleID      string
			completedAt int64
			points      float64
		)
		if err := rows.Scan(&ruleID, &completedAt, &points); err != nil {
			return nil, err
		}
		at := time.Unix(completedAt, 0)
		progress[ruleID] = domain.ProgressEntry{Completed: true, CompletedAt: &at, PointsAwarded: points}
	}
	return progress, rows.Err()
}

// MarkRuleCompleted records a rule as earned. Idempotent: re-marking an
// earned rule is a no-op, and rules never un-complete.
func (d *DB) MarkRuleCompleted(userID int64, kind ProgressKind, ruleID string, points float64, at time.Time) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO progress (user_id, kind, rule_id, completed_at, points)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, string(kind), ruleID, at.Unix(), points,
	)
	return err
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

// AddLeaderboardPoints adds to a user's cumulative total. Totals only grow;
// concurrent updates merge by user key.
func (d *DB) AddLeaderboardPoints(userID int64, username string, delta float64) error {
	_, err := d.db.Exec(
		`INSERT INTO leaderboard (user_id, username, points) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET points = points + excluded.points, username = excluded.username`,
		userID, username, delta,
	)
	return err
}

// Leaderboard returns all entries ordered by points descending.
func (d *DB) Leaderboard() ([]domain.LeaderboardEntry, error) {
	rows, err := d.db.Query(`SELECT username, points FROM leaderboard ORDER BY points DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Points); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Points log ─────────────────────────────────────────────────────────────

// AppendPointsLog records the outcome of one submitted day.
func (d *DB) AppendPointsLog(userID int64, entry domain.PointsLogEntry) error {
	breakdown, err := json.Marshal(entry.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO points_log (user_id, date, points, breakdown) VALUES (?, ?, ?, ?)`,
		userID, entry.Date, entry.Points, string(breakdown),
	)
	return err
}

// ListPointsLog returns a user's points log in date order.
func (d *DB) ListPointsLog(userID int64) ([]domain.PointsLogEntry, error) {
	rows, err := d.db.Query(
		`SELECT date, points, breakdown FROM points_log WHERE user_id = ? ORDER BY date ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PointsLogEntry
	for rows.Next() {
		var (
			e   domain.PointsLogEntry
			raw string
		)
		if err := rows.Scan(&e.Date, &e.Points, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown for %s: %w", e.Date, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
