package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

// GetDayRecord loads one day's record. Returns domain.ErrDayNotFound when no
// row exists for the date.
func (d *DB) GetDayRecord(userID int64, date string) (*domain.DayRecord, error) {
	row := d.db.QueryRow(
		`SELECT date, categories, penalties, submitted, completed, submitted_at, points_awarded, breakdown
		 FROM checkins WHERE user_id = ? AND date = ?`, userID, date,
	)
	rec, err := scanDay(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrDayNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PutDayRecord upserts one day's record. The caller owns the sealed-day
// invariant; this method writes whatever it is given.
func (d *DB) PutDayRecord(userID int64, rec domain.DayRecord) error {
	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	penalties, err := json.Marshal(rec.Penalties)
	if err != nil {
		return fmt.Errorf("marshal penalties: %w", err)
	}

	var submittedAt, points, breakdown any
	if rec.SubmittedAt != nil {
		submittedAt = rec.SubmittedAt.Unix()
	}
	if rec.PointsAwarded != nil {
		points = *rec.PointsAwarded
	}
	if rec.ScoreBreakdown != nil {
		b, err := json.Marshal(rec.ScoreBreakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		breakdown = string(b)
	}

	_, err = d.db.Exec(
		`INSERT INTO checkins (user_id, date, categories, penalties, submitted, completed, submitted_at, points_awarded, breakdown, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
			categories=excluded.categories,
			penalties=excluded.penalties,
			submitted=excluded.submitted,
			completed=excluded.completed,
			submitted_at=excluded.submitted_at,
			points_awarded=excluded.points_awarded,
			breakdown=excluded.breakdown,
			updated_at=excluded.updated_at`,
		userID, rec.Date, string(categories), string(penalties),
		rec.Submitted, rec.Completed, submittedAt, points, breakdown,
		time.Now().Unix(),
	)
	return err
}

// ListDayRecords returns all of a user's day records in date order.
func (d *DB) ListDayRecords(userID int64) ([]domain.DayRecord, error) {
	rows, err := d.db.Query(
		`SELECT date, categories, penalties, submitted, completed, submitted_at, points_awarded, breakdown
		 FROM checkins WHERE user_id = ? ORDER BY date ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DayRecord
	for rows.Next() {
		rec, err := scanDay(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanDay(scan func(...any) error) (*domain.DayRecord, error) {
	var (
		rec         domain.DayRecord
		categories  string
		penalties   string
		submittedAt sql.NullInt64
		points      sql.NullFloat64
		breakdown   sql.NullString
	)
	err := scan(&rec.Date, &categories, &penalties, &rec.Submitted, &rec.Completed, &submittedAt, &points, &breakdown)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories for %s: %w", rec.Date, err)
	}
	if err := json.Unmarshal([]byte(penalties), &rec.Penalties); err != nil {
		return nil, fmt.Errorf("unmarshal penalties for %s: %w", rec.Date, err)
	}
	if rec.Penalties == nil {
		rec.Penalties = []domain.Penalty{}
	}
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0)
		rec.SubmittedAt = &t
	}
	if points.Valid {
		p := points.Float64
		rec.PointsAwarded = &p
	}
	if breakdown.Valid {
		if err := json.Unmarshal([]byte(breakdown.String), &rec.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown for %s: %w", rec.Date, err)
		}
	}
	return &rec, nil
}

// ─── Cycles ─────────────────────────────────────────────────────────────────

// ReplaceCycles rewrites the persisted cycle mirror for a user.
// Cycles are derived state; the authoritative rebuild happens in the tracker.
func (d *DB) ReplaceCycles(userID int64, cycles []domain.CycleRecord) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cycles WHERE user_id = ?`, userID); err != nil {
		return err
	}
	now := time.Now().Unix()
	for i, c := range cycles {
		days, err := json.Marshal(c.Days)
		if err != nil {
			return fmt.Errorf("marshal cycle days: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO cycles (user_id, cycle_number, days, completed, updated_at) VALUES (?, ?, ?, ?, ?)`,
			userID, i+1, string(days), c.Full(), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCycles returns the persisted cycle mirror in cycle order.
func (d *DB) ListCycles(userID int64) ([]domain.CycleRecord, error) {
	rows, err := d.db.Query(
		`SELECT cycle_number, days FROM cycles WHERE user_id = ? ORDER BY cycle_number ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []domain.CycleRecord
	for rows.Next() {
		var (
			number int
			days   string
			c      domain.CycleRecord
		)
		if err := rows.Scan(&number, &days); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(days), &c.Days); err != nil {
			return nil, fmt.Errorf("unmarshal cycle %d: %w", number, err)
		}
		c.ID = fmt.Sprintf("cycle-%d", number)
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// ─── Settings ───────────────────────────────────────────────────────────────

// GetSettings returns the user's settings, or zero-value settings when unset.
func (d *DB) GetSettings(userID int64) (domain.Settings, error) {
	var raw string
	err := d.db.QueryRow(`SELECT settings FROM settings WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	var s domain.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// PutSettings upserts the user's settings blob.
func (d *DB) PutSettings(userID int64, s domain.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO settings (user_id, settings, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET settings=excluded.settings, updated_at=excluded.updated_at`,
		userID, string(raw), time.Now().Unix(),
	)
	return err
}
