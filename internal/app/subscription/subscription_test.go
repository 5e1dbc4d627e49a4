package subscription_test

import (
	"testing"
	"time"

	"github.com/mizan-app/mizan/internal/app/subscription"
	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(t *testing.T, db *sqlite.DB, name string) int64 {
	t.Helper()
	id, err := db.CreateUser(name, "hash", "", time.Now())
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return id
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRedeem_GrantsOneYear(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	user := testUser(t, db, "ahmad")

	tok, err := svc.MintToken(user, "yearly", "user", now)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if tok.ExpiresAt == nil || !tok.ExpiresAt.Equal(now.Add(subscription.TokenValidity)) {
		t.Errorf("ExpiresAt = %v, want now+48h", tok.ExpiresAt)
	}

	got, err := svc.Redeem(tok.Token, user, now)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if !got.IsPremium(now) {
		t.Error("redeemed user should be premium")
	}
	wantEnds := now.AddDate(1, 0, 0)
	if got.SubscriptionEndsAt == nil || !got.SubscriptionEndsAt.Equal(wantEnds) {
		t.Errorf("SubscriptionEndsAt = %v, want %v", got.SubscriptionEndsAt, wantEnds)
	}
}

func TestRedeem_SecondAttemptConflicts(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	user := testUser(t, db, "ahmad")

	tok, _ := svc.MintToken(user, "yearly", "user", now)
	if _, err := svc.Redeem(tok.Token, user, now); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	if _, err := svc.Redeem(tok.Token, user, now.Add(time.Minute)); err != domain.ErrTokenRedeemed {
		t.Errorf("second redeem err = %v, want ErrTokenRedeemed", err)
	}
}

func TestRedeem_WrongOwnerRejected(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	owner := testUser(t, db, "owner")
	other := testUser(t, db, "other")

	tok, _ := svc.MintToken(owner, "yearly", "user", now)

	if _, err := svc.Redeem(tok.Token, other, now); err != domain.ErrTokenWrongOwner {
		t.Fatalf("err = %v, want ErrTokenWrongOwner", err)
	}

	// No subscription change for the rejected caller.
	u, err := db.GetUser(other)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.IsPremium(now) {
		t.Error("rejected redemption must not grant premium")
	}
}

func TestRedeem_ExpiredRejected(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	user := testUser(t, db, "ahmad")

	tok, _ := svc.MintToken(user, "yearly", "user", now)

	late := now.Add(subscription.TokenValidity + time.Second)
	if _, err := svc.Redeem(tok.Token, user, late); err != domain.ErrTokenExpired {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}

	u, _ := db.GetUser(user)
	if u.IsPremium(late) {
		t.Error("expired redemption must not grant premium")
	}
}

func TestRedeem_UnknownToken(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	user := testUser(t, db, "ahmad")

	if _, err := svc.Redeem("no-such-token", user, now); err != domain.ErrTokenNotFound {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestDecide_FreeUserGetsPaywallReason(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	userID := testUser(t, db, "ahmad")

	user, err := db.GetUser(userID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	decision, err := svc.Decide(user, now)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.IsPremium {
		t.Error("fresh user should be free")
	}
	if decision.PaywallReason == nil || decision.PaywallReason.Code != "premium_required" {
		t.Errorf("PaywallReason = %+v", decision.PaywallReason)
	}
	if decision.Flags["premiumV2"] {
		t.Error("premiumV2 defaults to false")
	}
}

func TestDecide_StoredFlagsOverrideDefaults(t *testing.T) {
	db := testDB(t)
	svc := subscription.NewService(db)
	userID := testUser(t, db, "ahmad")

	if err := db.PutSettings(userID, domain.Settings{FeatureFlags: map[string]bool{"premiumV2": true}}); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	user, _ := db.GetUser(userID)

	decision, err := svc.Decide(user, now)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Flags["premiumV2"] {
		t.Error("stored flag should override the default")
	}
}
