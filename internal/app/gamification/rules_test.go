package gamification

import (
	"testing"

	"github.com/mizan-app/mizan/internal/domain"
)

func awardIDs(awards []Award) map[string]bool {
	ids := map[string]bool{}
	for _, a := range awards {
		ids[a.ID] = true
	}
	return ids
}

func TestMissions_PerfectDayEarnsAll(t *testing.T) {
	ctx := Context{CompletedCount: 7, AllCompleted: true, LateCount: 0}
	got := awardIDs(Evaluate(Missions(), ctx, domain.ProgressMap{}))

	for _, id := range []string{"five-of-seven", "no-late-prayers", "perfect-day"} {
		if !got[id] {
			t.Errorf("mission %s not earned on a perfect day", id)
		}
	}
}

func TestMissions_LatePrayersBlockOnTime(t *testing.T) {
	ctx := Context{CompletedCount: 6, LateCount: 2}
	got := awardIDs(Evaluate(Missions(), ctx, domain.ProgressMap{}))

	if !got["five-of-seven"] {
		t.Error("five-of-seven should be earned at 6/7")
	}
	if got["no-late-prayers"] {
		t.Error("on-time mission must not be earned with late prayers")
	}
	if got["perfect-day"] {
		t.Error("perfect-day must not be earned at 6/7")
	}
}

func TestEvaluate_SkipsEarnedRules(t *testing.T) {
	ctx := Context{CompletedCount: 7, AllCompleted: true}
	progress := domain.ProgressMap{
		"five-of-seven": {Completed: true},
		"perfect-day":   {Completed: true},
	}
	got := awardIDs(Evaluate(Missions(), ctx, progress))

	if got["five-of-seven"] || got["perfect-day"] {
		t.Error("already-earned rules must be skipped")
	}
	if !got["no-late-prayers"] {
		t.Error("unearned rule should still be granted")
	}
}

func TestAchievements_Thresholds(t *testing.T) {
	cases := []struct {
		name string
		ctx  Context
		want []string
	}{
		{"first completed day", Context{TotalCompletedDays: 1}, []string{"first-day"}},
		{"week streak", Context{TotalCompletedDays: 7, Streak: 7}, []string{"first-day", "streak-seven"}},
		{"three perfect days", Context{TotalCompletedDays: 3, PerfectDays: 3}, []string{"first-day", "perfect-three"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := awardIDs(Evaluate(Achievements(), tc.ctx, domain.ProgressMap{}))
			if len(got) != len(tc.want) {
				t.Fatalf("earned %v, want %v", got, tc.want)
			}
			for _, id := range tc.want {
				if !got[id] {
					t.Errorf("achievement %s not earned", id)
				}
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	ctx := Context{TotalCompletedDays: 7, Streak: 7}
	progress := domain.ProgressMap{}

	first := Evaluate(Achievements(), ctx, progress)
	for _, a := range first {
		progress[a.ID] = domain.ProgressEntry{Completed: true, PointsAwarded: a.Points}
	}

	second := Evaluate(Achievements(), ctx, progress)
	if len(second) != 0 {
		t.Errorf("re-evaluation earned %v, want nothing", second)
	}
}

func TestCatalog_PointsMatch(t *testing.T) {
	wantMissions := map[string]float64{"five-of-seven": 1, "no-late-prayers": 1, "perfect-day": 2}
	for _, m := range Missions() {
		if m.Points != wantMissions[m.ID] {
			t.Errorf("mission %s points = %v, want %v", m.ID, m.Points, wantMissions[m.ID])
		}
	}
	wantAchievements := map[string]float64{"first-day": 2, "streak-seven": 5, "perfect-three": 5}
	for _, a := range Achievements() {
		if a.Points != wantAchievements[a.ID] {
			t.Errorf("achievement %s points = %v, want %v", a.ID, a.Points, wantAchievements[a.ID])
		}
	}
}

func TestWithProgress(t *testing.T) {
	progress := domain.ProgressMap{"perfect-day": {Completed: true}}
	statuses := WithProgress(Missions(), progress)
	if len(statuses) != 3 {
		t.Fatalf("len = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		want := s.ID == "perfect-day"
		if s.Completed != want {
			t.Errorf("%s Completed = %v, want %v", s.ID, s.Completed, want)
		}
	}
}
