// Package router resolves which page a browser session lands on, based on
// the profile remembered in its session.
package router

import (
	"context"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/metrics"
	"github.com/Zachkp/moto-portfolio/internal/profile"
)

// State is the resolution state of a session.
type State int

const (
	StateUnresolved State = iota
	StateRestoring
	StateNoProfile
	StateProfileActive
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateRestoring:
		return "restoring"
	case StateNoProfile:
		return "no_profile"
	case StateProfileActive:
		return "profile_active"
	default:
		return "unknown"
	}
}

// Store is the persistence the router needs; session.ProfileStore
// satisfies it.
type Store interface {
	Save(ctx context.Context, p profile.Normalized) error
	Load(ctx context.Context) (*profile.Normalized, error)
	Clear(ctx context.Context) error
}

// Navigation is a redirect the caller should perform. Replace means the
// current location must not stay in history.
type Navigation struct {
	To      profile.Route
	Replace bool
}

// SelectionHook observes completed selections.
type SelectionHook func(ctx context.Context, p profile.Normalized)

// Router is the session state machine
// UNRESOLVED -> RESTORING -> {NO_PROFILE, PROFILE_ACTIVE}.
type Router struct {
	store    Store
	log      *zap.Logger
	onSelect SelectionHook

	state   State
	current *profile.Normalized
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Router) { r.log = logging.OrNop(log) }
}

// WithSelectionHook registers fn to run after each SelectProfile.
func WithSelectionHook(fn SelectionHook) Option {
	return func(r *Router) { r.onSelect = fn }
}

// New creates an unresolved router over store.
func New(store Store, opts ...Option) *Router {
	r := &Router{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Router) State() State { return r.state }

// Profile returns the active profile, or nil.
func (r *Router) Profile() *profile.Normalized {
	if r.current == nil {
		return nil
	}
	p := *r.current
	return &p
}

// Restore loads the remembered profile and decides whether the request for
// currentPath has to be redirected. Storage failures degrade to NO_PROFILE.
func (r *Router) Restore(ctx context.Context, currentPath string) *Navigation {
	r.state = StateRestoring

	p, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error("restoring session profile", zap.Error(err))
		p = nil
	}

	if p == nil {
		r.state = StateNoProfile
		r.current = nil
		if !profile.IsSelectorRoute(currentPath) {
			return &Navigation{To: profile.RouteSelector, Replace: true}
		}
		return nil
	}

	n := profile.Normalize(profile.Profile{
		ID:          p.IDString(),
		Name:        p.Name,
		Role:        p.Role,
		ColorScheme: p.ColorScheme,
	})
	r.current = &n
	r.state = StateProfileActive

	if currentPath == string(profile.RouteRoot) {
		return &Navigation{To: profile.LandingRouteFor(n.Role), Replace: true}
	}
	return nil
}

// SelectProfile normalizes and persists p, activates it and returns its
// landing route. A failed write is logged; the profile stays active for
// this request.
func (r *Router) SelectProfile(ctx context.Context, p profile.Profile) Navigation {
	n := profile.Normalize(p)
	if err := r.store.Save(ctx, n); err != nil {
		r.log.Error("persisting selected profile", zap.String("role", n.Role), zap.Error(err))
	}

	r.current = &n
	r.state = StateProfileActive
	metrics.RecordProfileSelection(n.Role)
	if r.onSelect != nil {
		r.onSelect(ctx, n)
	}

	r.log.Info("profile selected", zap.String("id", n.IDString()), zap.String("role", n.Role))
	return Navigation{To: profile.LandingRouteFor(n.Role), Replace: true}
}

// SwitchProfile forgets the active profile and sends the session back to
// the selector.
func (r *Router) SwitchProfile(ctx context.Context) Navigation {
	if err := r.store.Clear(ctx); err != nil {
		r.log.Error("clearing session profile", zap.Error(err))
	}
	r.current = nil
	r.state = StateNoProfile
	return Navigation{To: profile.RouteSelector, Replace: true}
}
