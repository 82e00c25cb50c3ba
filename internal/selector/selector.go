// Package selector holds the profile picker state of one browser session:
// the highlighted profile, and the engine-start transition that runs
// before the choice is handed to the session router.
package selector

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/metrics"
	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/router"
)

var (
	ErrTransitionInProgress = errors.New("profile transition in progress")
	ErrNotTransitioning     = errors.New("no profile transition in progress")
)

// Host receives the finished selection. *router.Router implements it.
type Host interface {
	SelectProfile(ctx context.Context, p profile.Profile) router.Navigation
}

// OutcomeKind says what a selector action led to.
type OutcomeKind int

const (
	// OutcomeChosen: the profile is highlighted, nothing else happened.
	OutcomeChosen OutcomeKind = iota
	// OutcomeRedirect: leave the site for Outcome.URL.
	OutcomeRedirect
	// OutcomeTransition: the gauge should run for Outcome.Transition.
	OutcomeTransition
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeChosen:
		return "chosen"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "transition"
	}
}

// Outcome is the result of Choose, Confirm or Activate.
type Outcome struct {
	Kind       OutcomeKind
	Profile    profile.Profile
	URL        string
	Transition uint64
}

// Snapshot is a copy of the selector state.
type Snapshot struct {
	Selected      *profile.Profile
	Transitioning bool
	PendingID     string
}

// Selector is safe for concurrent use. A transition can only begin from
// the idle state, and each one completes or aborts at most once.
type Selector struct {
	catalog *profile.Catalog
	log     *zap.Logger

	mu            sync.Mutex
	selected      *profile.Profile
	transitioning bool
	pendingID     string
	generation    uint64
}

// New creates an idle selector over catalog.
func New(catalog *profile.Catalog, log *zap.Logger) *Selector {
	return &Selector{catalog: catalog, log: logging.OrNop(log)}
}

// Catalog returns the profiles on offer.
func (s *Selector) Catalog() *profile.Catalog { return s.catalog }

// Snapshot copies the current state.
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Transitioning: s.transitioning, PendingID: s.pendingID}
	if s.selected != nil {
		p := *s.selected
		snap.Selected = &p
	}
	return snap
}

// Choose highlights the profile with id.
func (s *Selector) Choose(id string) (Outcome, error) {
	p, err := s.catalog.Lookup(id)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitioning {
		return Outcome{}, ErrTransitionInProgress
	}
	s.selected = &p
	return Outcome{Kind: OutcomeChosen, Profile: p}, nil
}

// Cancel clears the highlight. It has no effect during a transition.
func (s *Selector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitioning {
		s.selected = nil
	}
}

// Confirm commits to the profile with id. Profiles with a redirect URL
// skip the transition; every other profile starts one.
func (s *Selector) Confirm(id string) (Outcome, error) {
	p, err := s.catalog.Lookup(id)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirm(p)
}

// Activate is keyboard activation: on the highlighted profile it confirms,
// on any other it chooses.
func (s *Selector) Activate(id string) (Outcome, error) {
	p, err := s.catalog.Lookup(id)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitioning {
		return Outcome{}, ErrTransitionInProgress
	}
	if s.selected != nil && s.selected.ID == p.ID {
		return s.confirm(p)
	}
	s.selected = &p
	return Outcome{Kind: OutcomeChosen, Profile: p}, nil
}

func (s *Selector) confirm(p profile.Profile) (Outcome, error) {
	if s.transitioning {
		return Outcome{}, ErrTransitionInProgress
	}
	s.selected = &p

	if p.Redirects() {
		metrics.RecordProfileRedirect()
		s.log.Info("profile redirects externally", zap.String("id", p.ID))
		return Outcome{Kind: OutcomeRedirect, Profile: p, URL: p.RedirectURL}, nil
	}

	s.generation++
	s.transitioning = true
	s.pendingID = p.ID
	return Outcome{Kind: OutcomeTransition, Profile: p, Transition: s.generation}, nil
}

// Pending reports the running transition, if any.
func (s *Selector) Pending() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.transitioning
}

// Complete ends transition and hands the resolved profile to host. The
// profile is looked up by the pending id and falls back to the highlighted
// one. Completing a transition that is not the running one returns
// ErrNotTransitioning and leaves the selector untouched.
func (s *Selector) Complete(ctx context.Context, transition uint64, host Host) (router.Navigation, error) {
	s.mu.Lock()
	if !s.transitioning || transition != s.generation {
		s.mu.Unlock()
		return router.Navigation{}, ErrNotTransitioning
	}
	s.transitioning = false

	p, err := s.catalog.Lookup(s.pendingID)
	if err != nil {
		if s.selected == nil {
			s.pendingID = ""
			s.mu.Unlock()
			return router.Navigation{}, err
		}
		s.log.Warn("pending profile not in catalog, using the highlighted one",
			zap.String("pending", s.pendingID), zap.String("selected", s.selected.ID))
		p = *s.selected
	}
	s.pendingID = ""
	s.mu.Unlock()

	return host.SelectProfile(ctx, p), nil
}

// Abort drops transition without selecting anything, for example when the
// client goes away while the gauge runs. It reports whether it did.
func (s *Selector) Abort(transition uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitioning || transition != s.generation {
		return false
	}
	s.transitioning = false
	s.pendingID = ""
	return true
}

// Abandon drops any pending transition, whatever its number. A fresh
// picker page or a profile switch means nobody will start the gauge for
// it. It reports whether there was one.
func (s *Selector) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitioning {
		return false
	}
	s.log.Info("abandoned pending transition",
		zap.Uint64("transition", s.generation), zap.String("pending", s.pendingID))
	s.transitioning = false
	s.pendingID = ""
	return true
}
