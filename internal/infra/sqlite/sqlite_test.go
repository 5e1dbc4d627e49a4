package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mizan-app/mizan/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) int64 {
	t.Helper()
	id, err := db.CreateUser(username, "hash", "", time.Now())
	if err != nil {
		t.Fatalf("CreateUser(%s) error: %v", username, err)
	}
	return id
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "mizan.db")); os.IsNotExist(err) {
		t.Error("mizan.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ahmad")

	_, err := db.CreateUser("ahmad", "otherhash", "", time.Now())
	if err != domain.ErrUsernameTaken {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestCreateUser_DuplicateAccessCode(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.CreateUser("a", "h", "code1!", time.Now()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := db.CreateUser("b", "h", "code1!", time.Now())
	if err != domain.ErrAccessCodeTaken {
		t.Errorf("err = %v, want ErrAccessCodeTaken", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetUser(999); err != domain.ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetUserByAccessCode(t *testing.T) {
	db := newTestDB(t)
	id, err := db.CreateUser("ahmad", "hash", "abc1!", time.Now())
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := db.GetUserByAccessCode("abc1!")
	if err != nil {
		t.Fatalf("GetUserByAccessCode: %v", err)
	}
	if u.ID != id {
		t.Errorf("ID = %d, want %d", u.ID, id)
	}

	if _, err := db.GetUserByAccessCode("nope"); err != domain.ErrAccessCodeUnknown {
		t.Errorf("err = %v, want ErrAccessCodeUnknown", err)
	}
}

func TestSetAccessCode_TakenByOther(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, "a")
	if _, err := db.CreateUser("b", "h", "taken1!", time.Now()); err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := db.SetAccessCode(a, "taken1!"); err != domain.ErrAccessCodeTaken {
		t.Errorf("err = %v, want ErrAccessCodeTaken", err)
	}
	if err := db.SetAccessCode(a, "fresh2!"); err != nil {
		t.Errorf("SetAccessCode fresh code: %v", err)
	}
}

func TestUpdateSubscription(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	ends := time.Now().AddDate(1, 0, 0).Truncate(time.Second)
	if err := db.UpdateSubscription(id, domain.TierPremium, &ends); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}

	u, err := db.GetUser(id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Tier != domain.TierPremium {
		t.Errorf("Tier = %s, want premium", u.Tier)
	}
	if u.SubscriptionEndsAt == nil || !u.SubscriptionEndsAt.Equal(ends) {
		t.Errorf("SubscriptionEndsAt = %v, want %v", u.SubscriptionEndsAt, ends)
	}

	if err := db.UpdateSubscription(999, domain.TierPremium, nil); err != domain.ErrUserNotFound {
		t.Errorf("unknown user err = %v, want ErrUserNotFound", err)
	}
}

// ─── Day records ────────────────────────────────────────────────────────────

func TestDayRecord_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	now := time.Now().Truncate(time.Second)
	points := 9.0
	rec := domain.EmptyDay("2026-03-01")
	rec.Categories.Study.Completed = true
	rec.Submitted = true
	rec.Completed = true
	rec.SubmittedAt = &now
	rec.PointsAwarded = &points
	rec.ScoreBreakdown = []string{"Study completed: +1"}
	rec.Penalties = []domain.Penalty{{ID: "penalty-2026-02-28", Origin: "2026-02-28", Resolved: true}}

	if err := db.PutDayRecord(id, rec); err != nil {
		t.Fatalf("PutDayRecord: %v", err)
	}

	got, err := db.GetDayRecord(id, "2026-03-01")
	if err != nil {
		t.Fatalf("GetDayRecord: %v", err)
	}
	if !got.Submitted || !got.Completed {
		t.Error("submitted/completed flags lost")
	}
	if got.PointsAwarded == nil || *got.PointsAwarded != 9.0 {
		t.Errorf("PointsAwarded = %v, want 9", got.PointsAwarded)
	}
	if len(got.Penalties) != 1 || !got.Penalties[0].Resolved {
		t.Errorf("Penalties = %+v", got.Penalties)
	}
	if !got.Categories.Study.Completed {
		t.Error("category state lost")
	}
}

func TestGetDayRecord_NotFound(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")
	if _, err := db.GetDayRecord(id, "2026-03-01"); err != domain.ErrDayNotFound {
		t.Errorf("err = %v, want ErrDayNotFound", err)
	}
}

func TestListDayRecords_DateOrder(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	for _, date := range []string{"2026-03-03", "2026-03-01", "2026-03-02"} {
		if err := db.PutDayRecord(id, domain.EmptyDay(date)); err != nil {
			t.Fatalf("put %s: %v", date, err)
		}
	}
	records, err := db.ListDayRecords(id)
	if err != nil {
		t.Fatalf("ListDayRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	for i, want := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		if records[i].Date != want {
			t.Errorf("records[%d].Date = %s, want %s", i, records[i].Date, want)
		}
	}
}

// ─── Cycles / settings ──────────────────────────────────────────────────────

func TestReplaceCycles_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	cycles := []domain.CycleRecord{
		{ID: "cycle-1", Days: []string{"2026-03-01", "2026-03-02"}},
	}
	if err := db.ReplaceCycles(id, cycles); err != nil {
		t.Fatalf("ReplaceCycles: %v", err)
	}

	// Replace again with a grown mirror; the old rows must be gone.
	cycles[0].Days = append(cycles[0].Days, "2026-03-03")
	if err := db.ReplaceCycles(id, cycles); err != nil {
		t.Fatalf("ReplaceCycles again: %v", err)
	}

	got, err := db.ListCycles(id)
	if err != nil {
		t.Fatalf("ListCycles: %v", err)
	}
	if len(got) != 1 || len(got[0].Days) != 3 {
		t.Errorf("got = %+v, want one cycle of 3 days", got)
	}
}

func TestSettings_DefaultAndRoundTrip(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	s, err := db.GetSettings(id)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.Theme != "" {
		t.Errorf("unset settings should be zero-valued, got %+v", s)
	}

	s.Theme = "dark"
	s.FeatureFlags = map[string]bool{"premiumV2": true}
	if err := db.PutSettings(id, s); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	got, err := db.GetSettings(id)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.Theme != "dark" || !got.FeatureFlags["premiumV2"] {
		t.Errorf("got = %+v", got)
	}
}

// ─── Tokens ─────────────────────────────────────────────────────────────────

func TestMarkTokenRedeemed_SecondConsumeFails(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	now := time.Now()
	expires := now.Add(48 * time.Hour)
	tok := domain.PremiumToken{Token: "tok1", Plan: "yearly", CreatedForUserID: &id, ExpiresAt: &expires, CreatedAt: now}
	if err := db.InsertToken(tok); err != nil {
		t.Fatalf("InsertToken: %v", err)
	}

	if err := db.MarkTokenRedeemed("tok1", id, now); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := db.MarkTokenRedeemed("tok1", id, now); err != domain.ErrTokenRedeemed {
		t.Errorf("second redeem err = %v, want ErrTokenRedeemed", err)
	}
}

func TestGetToken_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetToken("missing"); err != domain.ErrTokenNotFound {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

// ─── Leaderboard / progress ─────────────────────────────────────────────────

func TestLeaderboard_MonotonicMerge(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, "ahmad")
	b := createTestUser(t, db, "bilal")

	_ = db.AddLeaderboardPoints(a, "ahmad", 9)
	_ = db.AddLeaderboardPoints(b, "bilal", 5)
	_ = db.AddLeaderboardPoints(b, "bilal", 10)

	entries, err := db.Leaderboard()
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Username != "bilal" || entries[0].Points != 15 {
		t.Errorf("entries[0] = %+v, want bilal with 15", entries[0])
	}
}

func TestProgress_InsertIgnoresDuplicates(t *testing.T) {
	db := newTestDB(t)
	id := createTestUser(t, db, "ahmad")

	now := time.Now()
	if err := db.MarkRuleCompleted(id, KindMission, "perfect-day", 2, now); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := db.MarkRuleCompleted(id, KindMission, "perfect-day", 2, now.Add(time.Hour)); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	progress, err := db.GetProgress(id, KindMission)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if len(progress) != 1 || !progress["perfect-day"].Completed {
		t.Errorf("progress = %+v", progress)
	}

	// Kinds are isolated
	other, _ := db.GetProgress(id, KindAchievement)
	if len(other) != 0 {
		t.Errorf("achievement progress = %+v, want empty", other)
	}
}
