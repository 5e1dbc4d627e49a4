// Package cache is the injected key-value cache capability for device-side
// mirrors of day records, cycles, and settings. The cache is never the
// source of truth: it is reconcilable at any time by a full resync from the
// datastore, and a failed sync leaves it unchanged rather than partially
// overwritten.
package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/metrics"
)

// Cache is the read/write/clear capability, scoped by user id.
// Core logic depends only on this interface, never on a concrete store.
type Cache interface {
	Read(userID int64, key string) ([]byte, bool)
	Write(userID int64, key string, value []byte) error
	Clear(userID int64) error
}

// Well-known cache keys, mirroring the stored shapes.
const (
	KeyCheckins = "checkins"
	KeyCycles   = "cycles"
	KeySettings = "settings"
)

// Memory is an in-process Cache, also used as the test double.
type Memory struct {
	mu   sync.RWMutex
	data map[int64]map[string][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[int64]map[string][]byte)}
}

// Read returns the cached value for a key, if present.
func (m *Memory) Read(userID int64, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[userID][key]
	return v, ok
}

// Write stores a value under a user-scoped key.
func (m *Memory) Write(userID int64, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] == nil {
		m.data[userID] = make(map[string][]byte)
	}
	m.data[userID][key] = value
	return nil
}

// Clear drops everything cached for a user.
func (m *Memory) Clear(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

// Source is the slice of the datastore the mirror resyncs from.
type Source interface {
	ListDayRecords(userID int64) ([]domain.DayRecord, error)
	ListCycles(userID int64) ([]domain.CycleRecord, error)
	GetSettings(userID int64) (domain.Settings, error)
}

// Mirror keeps a Cache reconciled with a Source.
type Mirror struct {
	cache  Cache
	source Source
}

// NewMirror wires a cache to its datastore source.
func NewMirror(c Cache, s Source) *Mirror {
	return &Mirror{cache: c, source: s}
}

// Resync rebuilds the user's cached state from the datastore. All reads
// happen before any write, so a datastore failure leaves the cache exactly
// as it was.
func (m *Mirror) Resync(userID int64) error {
	records, err := m.source.ListDayRecords(userID)
	if err != nil {
		return fmt.Errorf("list day records: %w", err)
	}
	cycles, err := m.source.ListCycles(userID)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	settings, err := m.source.GetSettings(userID)
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	checkins := make(map[string]domain.DayRecord, len(records))
	for _, r := range records {
		checkins[r.Date] = r
	}

	for key, v := range map[string]any{
		KeyCheckins: checkins,
		KeyCycles:   cycles,
		KeySettings: settings,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		if err := m.cache.Write(userID, key, raw); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// ResyncBestEffort runs Resync for a background sync opportunity: transient
// failures are logged and swallowed, to be retried on the next opportunity.
func (m *Mirror) ResyncBestEffort(userID int64) {
	if err := m.Resync(userID); err != nil {
		log.Printf("[cache] resync user %d failed: %v", userID, err)
		metrics.CacheResyncs.WithLabelValues("error").Inc()
		return
	}
	metrics.CacheResyncs.WithLabelValues("ok").Inc()
}
