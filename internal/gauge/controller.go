package gauge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/metrics"
)

// Trigger names what finished a run.
type Trigger string

const (
	TriggerAnimation Trigger = "animation"
	TriggerFailsafe  Trigger = "failsafe"
)

var (
	ErrAlreadyStarted = errors.New("gauge already started")
	ErrDisposed       = errors.New("gauge disposed")
)

// Config holds the timings of a run.
type Config struct {
	Curve         Curve         `koanf:"curve" yaml:"curve"`
	PolishDelay   time.Duration `koanf:"polish_delay" yaml:"polish_delay"`
	Failsafe      time.Duration `koanf:"failsafe" yaml:"failsafe"`
	FrameInterval time.Duration `koanf:"frame_interval" yaml:"frame_interval"`
}

// DefaultConfig returns the stock timings: 1s rise, 100ms settle, 250ms
// polish delay, 2s failsafe, ~60fps frames.
func DefaultConfig() Config {
	return Config{
		Curve:         DefaultCurve(),
		PolishDelay:   250 * time.Millisecond,
		Failsafe:      2 * time.Second,
		FrameInterval: 16 * time.Millisecond,
	}
}

// Validate checks that the timings can drive a run.
func (c Config) Validate() error {
	switch {
	case c.Curve.Main <= 0:
		return fmt.Errorf("gauge main duration must be positive")
	case c.Curve.Settle < 0:
		return fmt.Errorf("gauge settle duration must not be negative")
	case c.Curve.TargetRPM <= 0:
		return fmt.Errorf("gauge target rpm must be positive")
	case c.PolishDelay < 0:
		return fmt.Errorf("gauge polish delay must not be negative")
	case c.Failsafe <= 0:
		return fmt.Errorf("gauge failsafe must be positive")
	case c.Failsafe <= c.Curve.Total():
		return fmt.Errorf("gauge failsafe %s must outlast the %s animation", c.Failsafe, c.Curve.Total())
	case c.FrameInterval <= 0:
		return fmt.Errorf("gauge frame interval must be positive")
	}
	return nil
}

// FrameSource yields frame ticks until stop is called.
type FrameSource func(interval time.Duration) (ticks <-chan time.Time, stop func())

// TickerSource is the default FrameSource.
func TickerSource(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Controller runs one gauge animation. The frame loop and a failsafe timer
// race to finish it; the first one wins and the other is cancelled. The
// completion callback runs once, after the polish delay, unless the
// controller is disposed first.
type Controller struct {
	cfg    Config
	log    *zap.Logger
	frames FrameSource
	now    func() time.Time

	frameMu  sync.Mutex // serializes onFrame
	onFrame  func(Frame)
	onDone   func(Trigger)
	finished bool

	mu        sync.Mutex
	started   bool
	disposed  bool
	stop      chan struct{}
	stopOnce  sync.Once
	failsafe  *time.Timer
	polish    *time.Timer
	done      chan struct{}
	doneOnce  sync.Once
	completed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger that receives callback failures.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = logging.OrNop(log) }
}

// WithFrameSource replaces the ticker that drives frames.
func WithFrameSource(src FrameSource) Option {
	return func(c *Controller) { c.frames = src }
}

// WithClock replaces time.Now for elapsed-time sampling.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates an idle controller.
func NewController(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		log:    zap.NewNop(),
		frames: TickerSource,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins the animation. onFrame receives every sampled frame, ending
// with one at the target reading; onDone is called once afterwards.
// Callbacks must not block for long.
func (c *Controller) Start(onFrame func(Frame), onDone func(Trigger)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	c.onFrame = onFrame
	c.onDone = onDone

	ticks, stopTicks := c.frames(c.cfg.FrameInterval)
	c.failsafe = time.AfterFunc(c.cfg.Failsafe, func() { c.finish(TriggerFailsafe) })
	go c.loop(c.now(), ticks, stopTicks)
	return nil
}

// Done is closed once the completion callback has returned, or when the
// controller is disposed before completing.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Dispose releases the frame loop and timers. A completion that has not
// started yet is cancelled. Safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	if c.failsafe != nil {
		c.failsafe.Stop()
	}
	if c.polish != nil {
		c.polish.Stop()
	}
	completed := c.completed
	c.mu.Unlock()

	c.stopLoop()
	if !completed {
		c.closeDone()
	}
}

func (c *Controller) loop(start time.Time, ticks <-chan time.Time, stopTicks func()) {
	defer stopTicks()
	for {
		select {
		case <-c.stop:
			return
		case <-ticks:
			elapsed := c.now().Sub(start)
			if c.cfg.Curve.PhaseAt(elapsed) == PhaseDone {
				c.finish(TriggerAnimation)
				return
			}
			if !c.emit(c.cfg.Curve.FrameAt(elapsed)) {
				return
			}
		}
	}
}

func (c *Controller) emit(f Frame) bool {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	if c.finished || c.isDisposed() {
		return false
	}
	c.onFrame(f)
	return true
}

// finish enters DONE: the terminal frame goes out, the loop and failsafe are
// released and completion is scheduled after the polish delay.
func (c *Controller) finish(trigger Trigger) {
	c.frameMu.Lock()
	if c.finished || c.isDisposed() {
		c.frameMu.Unlock()
		return
	}
	c.finished = true
	c.onFrame(c.cfg.Curve.FrameAt(c.cfg.Curve.Total()))
	c.frameMu.Unlock()

	c.stopLoop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.failsafe.Stop()
	c.polish = time.AfterFunc(c.cfg.PolishDelay, func() { c.complete(trigger) })
}

func (c *Controller) complete(trigger Trigger) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	c.mu.Unlock()

	defer c.closeDone()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordGaugeCallbackPanic()
			c.log.Warn("gauge completion callback panicked",
				zap.String("trigger", string(trigger)),
				zap.Any("panic", r),
			)
		}
	}()

	metrics.RecordGaugeCompletion(string(trigger))
	if trigger == TriggerFailsafe {
		c.log.Warn("gauge finished by failsafe", zap.Duration("failsafe", c.cfg.Failsafe))
	}
	if c.onDone != nil {
		c.onDone(trigger)
	}
}

func (c *Controller) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Controller) stopLoop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Controller) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}
