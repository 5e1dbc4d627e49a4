package scoring

import (
	"reflect"
	"testing"

	"github.com/mizan-app/mizan/internal/domain"
)

func allOnTime() domain.SalahState {
	return domain.SalahState{
		Fajr: domain.SalahOnTime, Dhuhr: domain.SalahOnTime, Asr: domain.SalahOnTime,
		Maghrib: domain.SalahOnTime, Isha: domain.SalahOnTime,
	}
}

// sixOfSeven is the reference day: everything complete except rest.
func sixOfSeven() domain.CategoryState {
	return domain.CategoryState{
		Salah:    allOnTime(),
		Quran:    domain.QuranState{Selected: []string{"reading"}, Duration: 15},
		Physical: domain.PhysicalState{Selected: []string{"cardio"}, Duration: 25},
		Build:    domain.BuildState{Selected: []string{"work"}, Description: "shipped feature"},
		Study:    domain.OptionalTaskState{Completed: true},
		Journal:  domain.OptionalTaskState{Completed: true},
	}
}

func TestScore_SixOfSeven(t *testing.T) {
	got := Score(sixOfSeven())

	if got.CompletedCount != 6 {
		t.Errorf("CompletedCount = %d, want 6", got.CompletedCount)
	}
	if got.Points != 6 {
		t.Errorf("Points = %v, want 6", got.Points)
	}
	want := []string{
		"Salah completed: +1",
		"Qur'an completed: +1",
		"Physical completed: +1",
		"Build completed: +1",
		"Study completed: +1",
		"Journal completed: +1",
	}
	if !reflect.DeepEqual(got.Breakdown, want) {
		t.Errorf("Breakdown = %v, want %v", got.Breakdown, want)
	}
}

func TestScore_PerfectDay(t *testing.T) {
	c := sixOfSeven()
	c.Rest.Completed = true

	got := Score(c)
	if got.CompletedCount != 7 {
		t.Errorf("CompletedCount = %d, want 7", got.CompletedCount)
	}
	if got.Points != 9 {
		t.Errorf("Points = %v, want 9 (7 base + 2 bonus)", got.Points)
	}
	last := got.Breakdown[len(got.Breakdown)-1]
	if last != "All tasks completed: +2 bonus" {
		t.Errorf("last breakdown line = %q, want perfect-day bonus", last)
	}
}

func TestScore_LateDeduction(t *testing.T) {
	c := sixOfSeven()
	c.Salah.Set(domain.PrayerFajr, domain.SalahLate)
	c.Salah.Set(domain.PrayerIsha, domain.SalahLate)

	got := Score(c)
	if got.LateCount != 2 {
		t.Errorf("LateCount = %d, want 2", got.LateCount)
	}
	if got.Points != 5.0 {
		t.Errorf("Points = %v, want 5.0 (6 base - 1.0 late)", got.Points)
	}
	found := false
	for _, line := range got.Breakdown {
		if line == "Late prayers (2): -1.0" {
			found = true
		}
	}
	if !found {
		t.Errorf("breakdown missing late-deduction line: %v", got.Breakdown)
	}
}

func TestScore_DeductionClamped(t *testing.T) {
	// Only salah complete, all five prayers late: 1 base point, raw
	// deduction 2.5 clamps to 1.0.
	c := domain.CategoryState{
		Salah: domain.SalahState{
			Fajr: domain.SalahLate, Dhuhr: domain.SalahLate, Asr: domain.SalahLate,
			Maghrib: domain.SalahLate, Isha: domain.SalahLate,
		},
	}
	got := Score(c)
	if got.Points != 0 {
		t.Errorf("Points = %v, want 0 (deduction clamped to accumulated points)", got.Points)
	}
}

func TestScore_Deterministic(t *testing.T) {
	c := sixOfSeven()
	a := Score(c)
	b := Score(c)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different results: %+v vs %+v", a, b)
	}
}

func TestScore_EmptyState(t *testing.T) {
	got := Score(domain.CategoryState{})
	if got.Points != 0 {
		t.Errorf("Points = %v, want 0", got.Points)
	}
	if len(got.Breakdown) != 0 {
		t.Errorf("Breakdown = %v, want empty", got.Breakdown)
	}
}

func TestStreakBonus(t *testing.T) {
	cases := []struct {
		streak int
		want   float64
	}{
		{0, 0}, {1, 0}, {6, 0}, {7, 20}, {8, 0}, {13, 0}, {14, 20}, {21, 20},
	}
	for _, tc := range cases {
		if got := StreakBonus(tc.streak); got != tc.want {
			t.Errorf("StreakBonus(%d) = %v, want %v", tc.streak, got, tc.want)
		}
	}
}
