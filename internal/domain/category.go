// Package domain holds the pure Mizan types: category state, day records,
// penalties, cycles, ranks, and the completion rules that judge them.
// Everything here is a total function over already-loaded state: no I/O,
// no errors.
package domain

import "strings"

// ─── Salah ──────────────────────────────────────────────────────────────────

// SalahStatus is the recorded state of one prayer slot.
type SalahStatus string

const (
	SalahUnset  SalahStatus = ""
	SalahOnTime SalahStatus = "ontime"
	SalahLate   SalahStatus = "late"
)

// SalahPrayer names one of the five daily prayer slots.
type SalahPrayer string

const (
	PrayerFajr    SalahPrayer = "fajr"
	PrayerDhuhr   SalahPrayer = "dhuhr"
	PrayerAsr     SalahPrayer = "asr"
	PrayerMaghrib SalahPrayer = "maghrib"
	PrayerIsha    SalahPrayer = "isha"
)

// AllPrayers lists the five slots in canonical order.
var AllPrayers = []SalahPrayer{PrayerFajr, PrayerDhuhr, PrayerAsr, PrayerMaghrib, PrayerIsha}

// SalahState records the status of all five prayer slots for one day.
type SalahState struct {
	Fajr    SalahStatus `json:"fajr"`
	Dhuhr   SalahStatus `json:"dhuhr"`
	Asr     SalahStatus `json:"asr"`
	Maghrib SalahStatus `json:"maghrib"`
	Isha    SalahStatus `json:"isha"`
}

// statuses returns the five slots in canonical order.
func (s SalahState) statuses() [5]SalahStatus {
	return [5]SalahStatus{s.Fajr, s.Dhuhr, s.Asr, s.Maghrib, s.Isha}
}

// Status returns the state of a named prayer slot.
func (s SalahState) Status(p SalahPrayer) SalahStatus {
	switch p {
	case PrayerFajr:
		return s.Fajr
	case PrayerDhuhr:
		return s.Dhuhr
	case PrayerAsr:
		return s.Asr
	case PrayerMaghrib:
		return s.Maghrib
	case PrayerIsha:
		return s.Isha
	}
	return SalahUnset
}

// Set records the state of a named prayer slot.
func (s *SalahState) Set(p SalahPrayer, status SalahStatus) {
	switch p {
	case PrayerFajr:
		s.Fajr = status
	case PrayerDhuhr:
		s.Dhuhr = status
	case PrayerAsr:
		s.Asr = status
	case PrayerMaghrib:
		s.Maghrib = status
	case PrayerIsha:
		s.Isha = status
	}
}

// Complete reports whether every slot is marked on-time or late.
// A late prayer still counts toward completion; it is deducted separately.
func (s SalahState) Complete() bool {
	for _, st := range s.statuses() {
		if st != SalahOnTime && st != SalahLate {
			return false
		}
	}
	return true
}

// LateCount returns how many prayers were marked late.
func (s SalahState) LateCount() int {
	n := 0
	for _, st := range s.statuses() {
		if st == SalahLate {
			n++
		}
	}
	return n
}

// ─── Qur'an / Physical / Build ──────────────────────────────────────────────

// Activity option catalogs. Payloads are validated against these.
var (
	QuranOptions    = []string{"recitation", "reading", "reflection"}
	PhysicalOptions = []string{"strength", "cardio", "walk", "mobility"}
	BuildOptions    = []string{"work", "skill", "output"}
)

// QuranState captures the day's Qur'an engagement.
type QuranState struct {
	Selected []string `json:"selected"`
	Duration int      `json:"duration,omitempty"` // minutes
}

// Complete requires at least one activity and ten minutes.
func (q QuranState) Complete() bool {
	return len(q.Selected) > 0 && q.Duration >= 10
}

// PhysicalState captures the day's physical activity.
type PhysicalState struct {
	Selected []string `json:"selected"`
	Duration int      `json:"duration,omitempty"` // minutes
}

// Complete requires at least one activity and twenty minutes.
func (p PhysicalState) Complete() bool {
	return len(p.Selected) > 0 && p.Duration >= 20
}

// BuildState captures the day's build work.
type BuildState struct {
	Selected    []string `json:"selected"`
	Description string   `json:"description,omitempty"`
}

// Complete requires at least one option and a non-blank description.
func (b BuildState) Complete() bool {
	return len(b.Selected) > 0 && strings.TrimSpace(b.Description) != ""
}

// OptionalTaskState is a simple done/not-done obligation (study, journal, rest).
type OptionalTaskState struct {
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// ─── Category state ─────────────────────────────────────────────────────────

// CategoryState is the per-day capture of all seven obligations.
// The zero value is a valid "nothing filled in" day.
type CategoryState struct {
	Salah    SalahState        `json:"salah"`
	Quran    QuranState        `json:"quran"`
	Physical PhysicalState     `json:"physical"`
	Build    BuildState        `json:"build"`
	Study    OptionalTaskState `json:"study"`
	Journal  OptionalTaskState `json:"journal"`
	Rest     OptionalTaskState `json:"rest"`
}

// CompletedCount returns how many of the seven categories are complete (0–7).
func (c CategoryState) CompletedCount() int {
	n := 0
	if c.Salah.Complete() {
		n++
	}
	if c.Quran.Complete() {
		n++
	}
	if c.Physical.Complete() {
		n++
	}
	if c.Build.Complete() {
		n++
	}
	if c.Study.Completed {
		n++
	}
	if c.Journal.Completed {
		n++
	}
	if c.Rest.Completed {
		n++
	}
	return n
}

// MeetsMinimumThreshold is the day-level completion rule: any 5 of 7.
func (c CategoryState) MeetsMinimumThreshold() bool {
	return c.CompletedCount() >= 5
}

// IsPerfectDay reports all seven obligations complete. This triggers the
// "all tasks" bonus and is deliberately distinct from MeetsMinimumThreshold.
func (c CategoryState) IsPerfectDay() bool {
	return c.CompletedCount() == 7
}

// Validate rejects malformed payloads before any state mutation.
// Returns nil for any structurally sound state, including an empty one.
func (c CategoryState) Validate() error {
	for _, p := range AllPrayers {
		switch c.Salah.Status(p) {
		case SalahUnset, SalahOnTime, SalahLate:
		default:
			return &ValidationError{Field: "salah." + string(p), Reason: "unknown status"}
		}
	}
	if c.Quran.Duration < 0 {
		return &ValidationError{Field: "quran.duration", Reason: "duration cannot be negative"}
	}
	if c.Physical.Duration < 0 {
		return &ValidationError{Field: "physical.duration", Reason: "duration cannot be negative"}
	}
	if err := checkOptions("quran.selected", c.Quran.Selected, QuranOptions); err != nil {
		return err
	}
	if err := checkOptions("physical.selected", c.Physical.Selected, PhysicalOptions); err != nil {
		return err
	}
	if err := checkOptions("build.selected", c.Build.Selected, BuildOptions); err != nil {
		return err
	}
	return nil
}

func checkOptions(field string, selected, allowed []string) error {
	for _, s := range selected {
		ok := false
		for _, a := range allowed {
			if s == a {
				ok = true
				break
			}
		}
		if !ok {
			return &ValidationError{Field: field, Reason: "unknown option " + s}
		}
	}
	return nil
}
