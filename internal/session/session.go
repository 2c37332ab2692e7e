// Package session holds the client's application state for the lifetime of
// the process: the last sanitized actual series, kept as JSON entries.
package session

import (
	"log"
	"sync"
	"time"

	"DemandBoard/internal/model"
)

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	entries   map[string]string
	updatedAt time.Time
}

// New creates an empty session.
func New() *Session {
	return &Session{entries: make(map[string]string)}
}

// StoreActual replaces the cached actual series.
func (s *Session) StoreActual(series model.Series) error {
	dates, sales, err := EncodeActual(series)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[KeyActualDates] = dates
	s.entries[KeyActualSales] = sales
	s.updatedAt = time.Now()
	return nil
}

// Actual returns the cached actual series, or an empty series if nothing
// usable is cached.
func (s *Session) Actual() model.Series {
	s.mu.Lock()
	dates, sales := s.entries[KeyActualDates], s.entries[KeyActualSales]
	s.mu.Unlock()

	series, err := DecodeActual(dates, sales)
	if err != nil {
		log.Printf("[WARN] session cache unreadable, using empty actual series: %v", err)
		return model.Series{}
	}
	return series
}

// Entry returns a raw cache entry.
func (s *Session) Entry(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// SetEntry overwrites a raw cache entry.
func (s *Session) SetEntry(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.updatedAt = time.Now()
}

// UpdatedAt reports when the cache was last written; zero if never.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Clear drops every entry. Called when the session ends.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
	s.updatedAt = time.Time{}
}
