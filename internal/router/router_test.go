package router

import (
	"context"
	"errors"
	"testing"

	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/session"
)

func newRouter(t *testing.T) (*Router, *session.Memory) {
	t.Helper()
	backend := session.NewMemory()
	return New(session.NewProfileStore(backend, "sid", nil)), backend
}

func TestRestoreWithoutProfile(t *testing.T) {
	tests := []struct {
		path     string
		redirect bool
	}{
		{"/", false},
		{"/profile", false},
		{"/admin", true},
		{"/portfolio", true},
		{"/certifications/devops-ecu", true},
	}
	for _, tt := range tests {
		r, _ := newRouter(t)
		nav := r.Restore(context.Background(), tt.path)
		if r.State() != StateNoProfile {
			t.Errorf("Restore(%q) state = %v, want no_profile", tt.path, r.State())
		}
		if (nav != nil) != tt.redirect {
			t.Errorf("Restore(%q) nav = %+v, want redirect %v", tt.path, nav, tt.redirect)
		}
		if nav != nil && (nav.To != profile.RouteSelector || !nav.Replace) {
			t.Errorf("Restore(%q) nav = %+v, want replace to selector", tt.path, nav)
		}
	}
}

func TestRestoreActiveProfileFromRoot(t *testing.T) {
	tests := []struct {
		stored string
		want   profile.Route
	}{
		{`{"id":"profile-1","name":"admin","role":"admin","colorScheme":"#fa7522ff"}`, profile.RouteAdmin},
		{`{"id":"profile-2","name":"Recruiter","role":"Recruiter","colorScheme":"#ffa500"}`, profile.RouteRecruiter},
		{`{"id":null,"name":"Stalker","role":"viewer","colorScheme":"#ff0101ff"}`, profile.RoutePortfolio},
	}
	ctx := context.Background()
	for _, tt := range tests {
		r, backend := newRouter(t)
		backend.SetAll(ctx, "sid", map[string]string{session.KeyProfileData: tt.stored})

		nav := r.Restore(ctx, "/")
		if r.State() != StateProfileActive {
			t.Fatalf("state = %v, want profile_active", r.State())
		}
		if nav == nil || nav.To != tt.want || !nav.Replace {
			t.Errorf("Restore(/) with %s nav = %+v, want %s", tt.stored, nav, tt.want)
		}
		if p := r.Profile(); p == nil || profile.LandingRouteFor(p.Role) != tt.want {
			t.Errorf("Profile() = %+v", p)
		}
	}
}

func TestRestoreActiveProfileKeepsDeepLink(t *testing.T) {
	ctx := context.Background()
	r, backend := newRouter(t)
	backend.SetAll(ctx, "sid", map[string]string{
		session.KeyProfileData: `{"id":"profile-2","name":"Recruiter","role":"recruiter","colorScheme":"#ffa500"}`,
	})
	for _, path := range []string{"/profile", "/portfolio", "/certifications/data-structures"} {
		if nav := r.Restore(ctx, path); nav != nil {
			t.Errorf("Restore(%q) nav = %+v, want none", path, nav)
		}
	}
}

func TestRestoreCorruptSession(t *testing.T) {
	ctx := context.Background()
	for _, stored := range []string{`{oops`, `null`, `{"id":"x"}`, `[1,2]`} {
		r, backend := newRouter(t)
		backend.SetAll(ctx, "sid", map[string]string{
			session.KeyProfileData: stored,
			session.KeyProfileID:   "x",
		})

		nav := r.Restore(ctx, "/admin")
		if r.State() != StateNoProfile {
			t.Errorf("stored %s: state = %v, want no_profile", stored, r.State())
		}
		if nav == nil || nav.To != profile.RouteSelector {
			t.Errorf("stored %s: nav = %+v, want selector", stored, nav)
		}
		if backend.Len() != 0 {
			t.Errorf("stored %s: session not cleared", stored)
		}
	}
}

func TestSelectProfileAdminWithoutIDOrRole(t *testing.T) {
	ctx := context.Background()
	var hooked []profile.Normalized
	backend := session.NewMemory()
	r := New(session.NewProfileStore(backend, "sid", nil), WithSelectionHook(func(_ context.Context, p profile.Normalized) {
		hooked = append(hooked, p)
	}))

	nav := r.SelectProfile(ctx, profile.Profile{Name: "Admin"})
	if nav.To != profile.RouteAdmin || !nav.Replace {
		t.Errorf("nav = %+v, want replace to admin", nav)
	}
	if r.State() != StateProfileActive {
		t.Errorf("state = %v", r.State())
	}

	raw, _, _ := backend.Get(ctx, "sid", session.KeyProfileData)
	if want := `{"id":null,"name":"Admin","role":"admin","colorScheme":"#000000"}`; raw != want {
		t.Errorf("stored = %s, want %s", raw, want)
	}
	if len(hooked) != 1 || hooked[0].Role != "admin" {
		t.Errorf("selection hook calls = %+v", hooked)
	}
}

func TestSelectionAndRestoreShareLandingRoutes(t *testing.T) {
	ctx := context.Background()
	for _, p := range profile.DefaultProfiles() {
		r, backend := newRouter(t)
		selected := r.SelectProfile(ctx, p)

		restored := New(session.NewProfileStore(backend, "sid", nil)).Restore(ctx, "/")
		if restored == nil || restored.To != selected.To {
			t.Errorf("profile %s: select -> %s, restore -> %+v", p.ID, selected.To, restored)
		}
	}
}

func TestSwitchProfile(t *testing.T) {
	ctx := context.Background()
	r, backend := newRouter(t)
	r.SelectProfile(ctx, profile.Profile{ID: "profile-2", Name: "Recruiter"})

	nav := r.SwitchProfile(ctx)
	if nav.To != profile.RouteSelector || !nav.Replace {
		t.Errorf("nav = %+v, want replace to selector", nav)
	}
	if r.State() != StateNoProfile || r.Profile() != nil {
		t.Errorf("after switch state = %v profile = %+v", r.State(), r.Profile())
	}
	if backend.Len() != 0 {
		t.Error("session not cleared by switch")
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, profile.Normalized) error { return errors.New("disk full") }
func (failingStore) Load(context.Context) (*profile.Normalized, error) { return nil, errors.New("io") }
func (failingStore) Clear(context.Context) error { return errors.New("io") }

func TestStoreFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	r := New(failingStore{})

	if nav := r.Restore(ctx, "/recruiter"); nav == nil || nav.To != profile.RouteSelector {
		t.Errorf("Restore nav = %+v, want selector", nav)
	}
	if nav := r.SelectProfile(ctx, profile.Profile{Name: "Recruiter"}); nav.To != profile.RouteRecruiter {
		t.Errorf("SelectProfile nav = %+v", nav)
	}
	if r.State() != StateProfileActive {
		t.Errorf("state = %v, want profile_active despite failed save", r.State())
	}
	if nav := r.SwitchProfile(ctx); nav.To != profile.RouteSelector {
		t.Errorf("SwitchProfile nav = %+v", nav)
	}
}

func TestStateString(t *testing.T) {
	if StateProfileActive.String() != "profile_active" || State(99).String() != "unknown" {
		t.Error("unexpected State.String output")
	}
}
