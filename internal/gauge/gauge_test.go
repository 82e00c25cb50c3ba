package gauge

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestEaseOutCubic(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 0.5: 0.875, 1: 1} {
		if got := EaseOutCubic(in); !approx(got, want) {
			t.Errorf("EaseOutCubic(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCurve(t *testing.T) {
	c := DefaultCurve()
	peak := 12000 * 1.035
	tests := []struct {
		elapsed time.Duration
		rpm     float64
		phase   Phase
	}{
		{-time.Millisecond, 0, PhaseRising},
		{0, 0, PhaseRising},
		{500 * time.Millisecond, 10500, PhaseRising},
		{1000 * time.Millisecond, 12000, PhaseSettling},
		{1050 * time.Millisecond, peak, PhaseSettling},
		{1075 * time.Millisecond, (peak + 12000) / 2, PhaseSettling},
		{1100 * time.Millisecond, 12000, PhaseDone},
		{5 * time.Second, 12000, PhaseDone},
	}
	for _, tt := range tests {
		if got := c.RPMAt(tt.elapsed); !approx(got, tt.rpm) {
			t.Errorf("RPMAt(%v) = %v, want %v", tt.elapsed, got, tt.rpm)
		}
		if tt.elapsed >= 0 {
			if got := c.PhaseAt(tt.elapsed); got != tt.phase {
				t.Errorf("PhaseAt(%v) = %v, want %v", tt.elapsed, got, tt.phase)
			}
		}
	}
	if c.Total() != 1100*time.Millisecond {
		t.Errorf("Total() = %v", c.Total())
	}
}

func TestAngleFor(t *testing.T) {
	c := DefaultCurve()
	for rpm, want := range map[float64]float64{-5: 0, 0: 0, 6000: 145, 12000: 290, 12420: 290} {
		if got := c.AngleFor(rpm); !approx(got, want) {
			t.Errorf("AngleFor(%v) = %v, want %v", rpm, got, want)
		}
	}
}

func fastConfig() Config {
	return Config{
		Curve: Curve{
			TargetRPM:    12000,
			Overshoot:    1.035,
			Main:         20 * time.Millisecond,
			Settle:       4 * time.Millisecond,
			SweepDegrees: 290,
		},
		PolishDelay:   5 * time.Millisecond,
		Failsafe:      2 * time.Second,
		FrameInterval: time.Millisecond,
	}
}

type recorder struct {
	mu      sync.Mutex
	frames  []Frame
	dones   []Trigger
	doneIdx int // len(frames) when onDone ran
}

func (r *recorder) frame(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) done(tr Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dones = append(r.dones, tr)
	r.doneIdx = len(r.frames)
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("gauge never finished")
	}
}

func TestControllerCompletesOnceAfterTerminalFrame(t *testing.T) {
	rec := &recorder{}
	c := NewController(fastConfig())
	if err := c.Start(rec.frame, rec.done); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, c)
	time.Sleep(20 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.dones) != 1 || rec.dones[0] != TriggerAnimation {
		t.Fatalf("completions = %v, want one animation", rec.dones)
	}
	if rec.doneIdx != len(rec.frames) {
		t.Errorf("%d frames arrived after completion", len(rec.frames)-rec.doneIdx)
	}
	last := rec.frames[len(rec.frames)-1]
	if last.Phase != PhaseDone || !approx(last.RPM, 12000) || !approx(last.Angle, 290) {
		t.Errorf("last frame = %+v, want terminal", last)
	}
	for i := 1; i < len(rec.frames); i++ {
		if rec.frames[i].Phase < rec.frames[i-1].Phase {
			t.Fatalf("phase went backwards at frame %d", i)
		}
	}
	c.Dispose()
}

func stalled(time.Duration) (<-chan time.Time, func()) { return nil, func() {} }

func TestControllerFailsafeWhenFramesStall(t *testing.T) {
	cfg := fastConfig()
	cfg.Failsafe = 30 * time.Millisecond
	rec := &recorder{}

	c := NewController(cfg, WithFrameSource(stalled))
	start := time.Now()
	if err := c.Start(rec.frame, rec.done); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, c)

	if elapsed := time.Since(start); elapsed < cfg.Failsafe {
		t.Errorf("completed after %v, before the failsafe", elapsed)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.dones) != 1 || rec.dones[0] != TriggerFailsafe {
		t.Fatalf("completions = %v, want one failsafe", rec.dones)
	}
	if len(rec.frames) != 1 || rec.frames[0].Phase != PhaseDone {
		t.Errorf("frames = %+v, want only the terminal frame", rec.frames)
	}
}

func TestControllerRecoversCallbackPanic(t *testing.T) {
	var calls atomic.Int32
	c := NewController(fastConfig())
	err := c.Start(nil, func(Trigger) {
		calls.Add(1)
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, c)
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("callback ran %d times, want 1", calls.Load())
	}
	c.Dispose()
}

func TestControllerDisposeBeforeCompletion(t *testing.T) {
	cfg := fastConfig()
	cfg.Curve.Main = time.Second
	var calls atomic.Int32

	c := NewController(cfg)
	c.Start(nil, func(Trigger) { calls.Add(1) })
	time.Sleep(5 * time.Millisecond)
	c.Dispose()
	c.Dispose()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed by Dispose")
	}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("callback ran %d times after dispose", calls.Load())
	}
}

func TestControllerDisposeDuringPolish(t *testing.T) {
	cfg := fastConfig()
	cfg.PolishDelay = 200 * time.Millisecond
	var frames, calls atomic.Int32

	c := NewController(cfg)
	c.Start(func(f Frame) {
		if f.Phase == PhaseDone {
			frames.Add(1)
		}
	}, func(Trigger) { calls.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for frames.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.Dispose()
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("callback ran %d times after dispose during polish", calls.Load())
	}
}

func TestControllerStartErrors(t *testing.T) {
	c := NewController(fastConfig())
	if err := c.Start(nil, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(nil, nil); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start err = %v, want ErrAlreadyStarted", err)
	}
	c.Dispose()

	d := NewController(fastConfig())
	d.Dispose()
	if err := d.Start(nil, nil); !errors.Is(err, ErrDisposed) {
		t.Errorf("Start after Dispose err = %v, want ErrDisposed", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.Curve.Main = 0 },
		func(c *Config) { c.Curve.Settle = -1 },
		func(c *Config) { c.Curve.TargetRPM = 0 },
		func(c *Config) { c.PolishDelay = -1 },
		func(c *Config) { c.Failsafe = 0 },
		func(c *Config) { c.Curve.Main = 3 * time.Second },
		func(c *Config) { c.Failsafe = c.Curve.Total() },
		func(c *Config) { c.FrameInterval = 0 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if cfg.Validate() == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
