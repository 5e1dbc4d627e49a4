package sqlite

import (
	"database/sql"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

// InsertToken stores a newly minted premium token.
func (d *DB) InsertToken(t domain.PremiumToken) error {
	var forUser, expires any
	if t.CreatedForUserID != nil {
		forUser = *t.CreatedForUserID
	}
	if t.ExpiresAt != nil {
		expires = t.ExpiresAt.Unix()
	}
	_, err := d.db.Exec(
		`INSERT INTO premium_tokens (token, plan, created_for_user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Token, t.Plan, forUser, expires, t.CreatedAt.Unix(),
	)
	return err
}

// GetToken retrieves a token by its value.
func (d *DB) GetToken(token string) (*domain.PremiumToken, error) {
	row := d.db.QueryRow(
		`SELECT token, plan, created_for_user_id, expires_at, redeemed_at, redeemed_by_user_id, created_at
		 FROM premium_tokens WHERE token = ?`, token,
	)
	var (
		t        domain.PremiumToken
		forUser  sql.NullInt64
		expires  sql.NullInt64
		redeemed sql.NullInt64
		byUser   sql.NullInt64
		created  int64
	)
	err := row.Scan(&t.Token, &t.Plan, &forUser, &expires, &redeemed, &byUser, &created)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if forUser.Valid {
		t.CreatedForUserID = &forUser.Int64
	}
	if expires.Valid {
		ts := time.Unix(expires.Int64, 0)
		t.ExpiresAt = &ts
	}
	if redeemed.Valid {
		ts := time.Unix(redeemed.Int64, 0)
		t.RedeemedAt = &ts
	}
	if byUser.Valid {
		t.RedeemedByUserID = &byUser.Int64
	}
	t.CreatedAt = time.Unix(created, 0)
	return &t, nil
}

// MarkTokenRedeemed consumes a token. The WHERE guard makes the consume
// atomic: a second caller finds zero rows and gets ErrTokenRedeemed.
func (d *DB) MarkTokenRedeemed(token string, userID int64, at time.Time) error {
	res, err := d.db.Exec(
		`UPDATE premium_tokens SET redeemed_at = ?, redeemed_by_user_id = ?
		 WHERE token = ? AND redeemed_at IS NULL`,
		at.Unix(), userID, token,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTokenRedeemed
	}
	return nil
}
