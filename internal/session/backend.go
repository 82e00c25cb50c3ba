// Package session keeps per-browser-session key-value data and the profile
// record stored in it.
package session

import (
	"context"
	"sync"
	"time"
)

// Backend is a key-value store partitioned by session id. Multi-key writes
// and deletes are atomic.
type Backend interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	SetAll(ctx context.Context, sid string, values map[string]string) error
	Delete(ctx context.Context, sid string, keys ...string) error
	// Touch marks the session as used now without changing its values.
	Touch(ctx context.Context, sid string) error
	// Sweep drops sessions not written or touched since before cutoff.
	Sweep(ctx context.Context, cutoff time.Time) (int64, error)
}

// Memory is an in-process Backend.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	now      func() time.Time
}

type memorySession struct {
	values  map[string]string
	updated time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, sid, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		return "", false, nil
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (m *Memory) SetAll(_ context.Context, sid string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		s = &memorySession{values: make(map[string]string, len(values))}
		m.sessions[sid] = s
	}
	for k, v := range values {
		s.values[k] = v
	}
	s.updated = m.now()
	return nil
}

func (m *Memory) Touch(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sid]; ok {
		s.updated = m.now()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, sid string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	if len(s.values) == 0 {
		delete(m.sessions, sid)
	}
	return nil
}

func (m *Memory) Sweep(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for sid, s := range m.sessions {
		if s.updated.Before(cutoff) {
			n += int64(len(s.values))
			delete(m.sessions, sid)
		}
	}
	return n, nil
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
