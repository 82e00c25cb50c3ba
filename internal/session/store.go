package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/metrics"
	"github.com/Zachkp/moto-portfolio/internal/profile"
)

// Keys under which the selected profile is kept in a session.
const (
	KeyProfileData = "selectedProfileData"
	KeyProfileID   = "selectedProfileId"
)

// ProfileStore persists the selected profile of one browser session.
type ProfileStore struct {
	backend Backend
	sid     string
	log     *zap.Logger
}

// NewProfileStore binds a backend to the session sid.
func NewProfileStore(backend Backend, sid string, log *zap.Logger) *ProfileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileStore{backend: backend, sid: sid, log: log}
}

// Save writes the profile payload and the raw id together.
func (s *ProfileStore) Save(ctx context.Context, p profile.Normalized) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return s.backend.SetAll(ctx, s.sid, map[string]string{
		KeyProfileData: string(data),
		KeyProfileID:   p.IDString(),
	})
}

// Load returns the stored profile, or nil when there is none. A restored
// profile keeps its session alive for another TTL. A stored value
// that does not decode as a profile record is cleared and reported as absent.
// Only backend failures are returned as errors.
func (s *ProfileStore) Load(ctx context.Context) (*profile.Normalized, error) {
	raw, ok, err := s.backend.Get(ctx, s.sid, KeyProfileData)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RecordProfileRestore("empty")
		return nil, nil
	}

	p, err := decodeStored(raw)
	if err != nil {
		s.log.Warn("discarding malformed session profile",
			zap.String("session", s.sid),
			zap.Error(err),
		)
		metrics.RecordProfileRestore("corrupt")
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.backend.Touch(ctx, s.sid); err != nil {
		s.log.Warn("touching session", zap.String("session", s.sid), zap.Error(err))
	}
	metrics.RecordProfileRestore("restored")
	return &p, nil
}

// Clear removes both keys.
func (s *ProfileStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.sid, KeyProfileData, KeyProfileID)
}

type storedProfile struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	ColorScheme *string `json:"colorScheme"`
}

func decodeStored(raw string) (profile.Normalized, error) {
	var sp *storedProfile
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return profile.Normalized{}, fmt.Errorf("decoding stored profile: %w", err)
	}
	if sp == nil {
		return profile.Normalized{}, fmt.Errorf("stored profile is null")
	}
	if sp.Name == nil || sp.Role == nil {
		return profile.Normalized{}, fmt.Errorf("stored profile missing name or role")
	}

	p := profile.Profile{Name: *sp.Name, Role: *sp.Role}
	if sp.ID != nil {
		p.ID = *sp.ID
	}
	if sp.ColorScheme != nil {
		p.ColorScheme = *sp.ColorScheme
	}
	return profile.Normalize(p), nil
}

// Sweeper drops state not touched since before cutoff. Backend and
// Registry implement it.
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartSweeper drops session state idle for longer than ttl, checking every
// interval until ctx is done.
func StartSweeper(ctx context.Context, ttl, interval time.Duration, log *zap.Logger, sweepers ...Sweeper) {
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl)
				for _, s := range sweepers {
					n, err := s.Sweep(ctx, cutoff)
					if err != nil {
						log.Error("session sweep failed", zap.Error(err))
						continue
					}
					if n > 0 {
						log.Info("swept idle session state", zap.Int64("entries", n))
					}
				}
			}
		}
	}()
}
