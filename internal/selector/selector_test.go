package selector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/router"
	"github.com/Zachkp/moto-portfolio/internal/session"
)

type recordingHost struct {
	mu    sync.Mutex
	calls []profile.Profile
}

func (h *recordingHost) SelectProfile(_ context.Context, p profile.Profile) router.Navigation {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, p)
	return router.Navigation{To: profile.LandingRouteFor(profile.ResolveRole(p)), Replace: true}
}

func newSelector() *Selector {
	return New(profile.MustCatalog(profile.DefaultProfiles()), nil)
}

func TestChooseAndCancel(t *testing.T) {
	s := newSelector()
	out, err := s.Choose("profile-2")
	if err != nil || out.Kind != OutcomeChosen || out.Profile.Name != "Recruiter" {
		t.Fatalf("Choose = %+v, %v", out, err)
	}
	if snap := s.Snapshot(); snap.Selected == nil || snap.Selected.ID != "profile-2" || snap.Transitioning {
		t.Errorf("snapshot = %+v", snap)
	}

	s.Cancel()
	if s.Snapshot().Selected != nil {
		t.Error("Cancel kept the selection")
	}

	if _, err := s.Choose("profile-9"); !errors.Is(err, profile.ErrUnknownProfile) {
		t.Errorf("Choose(unknown) err = %v", err)
	}
}

func TestConfirmRedirectSkipsTransition(t *testing.T) {
	s := newSelector()
	out, err := s.Confirm("profile-4")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if out.Kind != OutcomeRedirect || out.URL == "" {
		t.Errorf("outcome = %+v, want redirect", out)
	}
	if _, running := s.Pending(); running {
		t.Error("redirect profile started a transition")
	}
}

func TestTransitionCompletesOnce(t *testing.T) {
	ctx := context.Background()
	host := &recordingHost{}
	s := newSelector()

	out, err := s.Confirm("profile-1")
	if err != nil || out.Kind != OutcomeTransition {
		t.Fatalf("Confirm = %+v, %v", out, err)
	}
	if snap := s.Snapshot(); !snap.Transitioning || snap.PendingID != "profile-1" {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := s.Confirm("profile-2"); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("second Confirm err = %v", err)
	}
	if _, err := s.Choose("profile-2"); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("Choose during transition err = %v", err)
	}
	s.Cancel()
	if s.Snapshot().Selected == nil {
		t.Error("Cancel cleared the selection during a transition")
	}

	nav, err := s.Complete(ctx, out.Transition, host)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if nav.To != profile.RouteAdmin {
		t.Errorf("nav = %+v, want admin", nav)
	}
	if _, err := s.Complete(ctx, out.Transition, host); !errors.Is(err, ErrNotTransitioning) {
		t.Errorf("second Complete err = %v", err)
	}
	if len(host.calls) != 1 || host.calls[0].ID != "profile-1" {
		t.Errorf("host calls = %+v", host.calls)
	}
	if snap := s.Snapshot(); snap.Transitioning || snap.PendingID != "" {
		t.Errorf("after complete: %+v", snap)
	}
}

func TestActivateChoosesThenConfirms(t *testing.T) {
	s := newSelector()

	out, err := s.Activate("profile-3")
	if err != nil || out.Kind != OutcomeChosen {
		t.Fatalf("first Activate = %+v, %v", out, err)
	}
	out, err = s.Activate("profile-2")
	if err != nil || out.Kind != OutcomeChosen || s.Snapshot().Selected.ID != "profile-2" {
		t.Fatalf("Activate on another profile = %+v, %v", out, err)
	}
	out, err = s.Activate("profile-2")
	if err != nil || out.Kind != OutcomeTransition {
		t.Fatalf("second Activate = %+v, %v", out, err)
	}
	if _, err := s.Activate("profile-2"); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("Activate during transition err = %v", err)
	}
}

func TestAbortInvalidatesTransition(t *testing.T) {
	ctx := context.Background()
	host := &recordingHost{}
	s := newSelector()

	first, _ := s.Confirm("profile-2")
	if !s.Abort(first.Transition) {
		t.Fatal("Abort returned false")
	}
	if s.Abort(first.Transition) {
		t.Error("second Abort returned true")
	}
	if _, err := s.Complete(ctx, first.Transition, host); !errors.Is(err, ErrNotTransitioning) {
		t.Errorf("Complete after Abort err = %v", err)
	}

	second, err := s.Confirm("profile-3")
	if err != nil {
		t.Fatalf("Confirm after abort: %v", err)
	}
	if _, err := s.Complete(ctx, first.Transition, host); !errors.Is(err, ErrNotTransitioning) {
		t.Errorf("stale Complete err = %v", err)
	}
	if s.Abort(first.Transition) {
		t.Error("stale Abort cancelled the running transition")
	}
	if _, err := s.Complete(ctx, second.Transition, host); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(host.calls) != 1 || host.calls[0].ID != "profile-3" {
		t.Errorf("host calls = %+v", host.calls)
	}
}

func TestAbandonDropsPendingTransition(t *testing.T) {
	s := newSelector()
	if s.Abandon() {
		t.Error("Abandon on an idle selector returned true")
	}

	out, _ := s.Confirm("profile-2")
	if !s.Abandon() {
		t.Fatal("Abandon returned false")
	}
	if snap := s.Snapshot(); snap.Transitioning || snap.PendingID != "" {
		t.Errorf("after abandon: %+v", snap)
	}
	if _, err := s.Complete(context.Background(), out.Transition, &recordingHost{}); !errors.Is(err, ErrNotTransitioning) {
		t.Errorf("Complete after Abandon err = %v", err)
	}
	if _, err := s.Choose("profile-3"); err != nil {
		t.Errorf("Choose after Abandon: %v", err)
	}
}

func TestCompleteFallsBackToSelected(t *testing.T) {
	host := &recordingHost{}
	s := newSelector()
	out, _ := s.Confirm("profile-2")

	s.mu.Lock()
	s.pendingID = "retired-profile"
	s.mu.Unlock()

	if _, err := s.Complete(context.Background(), out.Transition, host); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(host.calls) != 1 || host.calls[0].ID != "profile-2" {
		t.Errorf("host calls = %+v, want the highlighted profile", host.calls)
	}
}

func TestConcurrentConfirmStartsOneTransition(t *testing.T) {
	s := newSelector()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out, err := s.Confirm("profile-1"); err == nil && out.Kind == OutcomeTransition {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Errorf("%d transitions started, want 1", started)
	}
}

func TestCompleteThroughRouterPersistsSelection(t *testing.T) {
	ctx := context.Background()
	backend := session.NewMemory()
	r := router.New(session.NewProfileStore(backend, "sid", nil))
	s := newSelector()

	out, _ := s.Confirm("profile-3")
	nav, err := s.Complete(ctx, out.Transition, r)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if nav.To != profile.RoutePortfolio || r.State() != router.StateProfileActive {
		t.Errorf("nav = %+v state = %v", nav, r.State())
	}
	if _, ok, _ := backend.Get(ctx, "sid", session.KeyProfileData); !ok {
		t.Error("selection not persisted")
	}
}
