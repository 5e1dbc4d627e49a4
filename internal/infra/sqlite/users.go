package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

// CreateUser inserts a new account and returns its id.
// Returns domain.ErrUsernameTaken / domain.ErrAccessCodeTaken on unique
// constraint collisions.
func (d *DB) CreateUser(username, passwordHash, accessCode string, now time.Time) (int64, error) {
	var code any
	if accessCode != "" {
		code = accessCode
	}
	res, err := d.db.Exec(
		`INSERT INTO users (username, password_hash, access_code, subscription_tier, created_at)
		 VALUES (?, ?, ?, 'free', ?)`,
		username, passwordHash, code, now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "access_code") {
				return 0, domain.ErrAccessCodeTaken
			}
			return 0, domain.ErrUsernameTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetUser retrieves a user by id.
func (d *DB) GetUser(id int64) (*domain.User, error) {
	return d.scanUser(d.db.QueryRow(
		`SELECT id, username, password_hash, access_code, subscription_tier, subscription_ends_at, created_at
		 FROM users WHERE id = ?`, id,
	), nil)
}

// GetUserByUsername retrieves a user and their password hash.
func (d *DB) GetUserByUsername(username string) (*domain.User, string, error) {
	var hash string
	u, err := d.scanUser(d.db.QueryRow(
		`SELECT id, username, password_hash, access_code, subscription_tier, subscription_ends_at, created_at
		 FROM users WHERE username = ?`, username,
	), &hash)
	return u, hash, err
}

// GetUserByAccessCode retrieves a user by their quick-access code.
func (d *DB) GetUserByAccessCode(code string) (*domain.User, error) {
	u, err := d.scanUser(d.db.QueryRow(
		`SELECT id, username, password_hash, access_code, subscription_tier, subscription_ends_at, created_at
		 FROM users WHERE access_code = ?`, code,
	), nil)
	if err == domain.ErrUserNotFound {
		return nil, domain.ErrAccessCodeUnknown
	}
	return u, err
}

// SetAccessCode updates a user's quick-access code.
// Fails with domain.ErrAccessCodeTaken if another account holds it.
func (d *DB) SetAccessCode(userID int64, code string) error {
	var other int64
	err := d.db.QueryRow(`SELECT id FROM users WHERE access_code = ? AND id != ?`, code, userID).Scan(&other)
	if err == nil {
		return domain.ErrAccessCodeTaken
	}
	if err != sql.ErrNoRows {
		return err
	}
	_, err = d.db.Exec(`UPDATE users SET access_code = ? WHERE id = ?`, code, userID)
	return err
}

// UpdateSubscription sets a user's tier and expiry. A nil endsAt clears it.
func (d *DB) UpdateSubscription(userID int64, tier domain.SubscriptionTier, endsAt *time.Time) error {
	var ends any
	if endsAt != nil {
		ends = endsAt.Unix()
	}
	res, err := d.db.Exec(
		`UPDATE users SET subscription_tier = ?, subscription_ends_at = ? WHERE id = ?`,
		string(tier), ends, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// WipeUserData deletes every record belonging to the user except the account
// itself. This is the only path that removes sealed days.
func (d *DB) WipeUserData(userID int64) error {
	for _, table := range []string{"checkins", "cycles", "settings", "points_log", "progress", "leaderboard"} {
		if _, err := d.db.Exec(`DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) scanUser(row *sql.Row, passwordHash *string) (*domain.User, error) {
	var (
		u      domain.User
		hash   string
		code   sql.NullString
		ends   sql.NullInt64
		tier   string
		create int64
	)
	err := row.Scan(&u.ID, &u.Username, &hash, &code, &tier, &ends, &create)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.AccessCode = code.String
	u.Tier = domain.SubscriptionTier(tier)
	if ends.Valid {
		t := time.Unix(ends.Int64, 0)
		u.SubscriptionEndsAt = &t
	}
	u.CreatedAt = time.Unix(create, 0)
	if passwordHash != nil {
		*passwordHash = hash
	}
	return &u, nil
}

// isUniqueViolation detects a UNIQUE constraint failure from the driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
