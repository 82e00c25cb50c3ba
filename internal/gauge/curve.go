// Package gauge drives the engine-start RPM meter shown between choosing a
// profile and opening the portfolio.
package gauge

import (
	"math"
	"time"
)

// Phase of the needle animation.
type Phase int

const (
	PhaseRising Phase = iota
	PhaseSettling
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRising:
		return "rising"
	case PhaseSettling:
		return "settling"
	default:
		return "done"
	}
}

// MarshalText lets frames carry the phase name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Curve maps elapsed time to an RPM reading: an ease-out cubic rise to the
// target over Main, then an overshoot and return to the target over Settle.
type Curve struct {
	TargetRPM    float64       `koanf:"target_rpm" yaml:"target_rpm"`
	Overshoot    float64       `koanf:"overshoot" yaml:"overshoot"`
	Main         time.Duration `koanf:"main" yaml:"main"`
	Settle       time.Duration `koanf:"settle" yaml:"settle"`
	SweepDegrees float64       `koanf:"sweep_degrees" yaml:"sweep_degrees"`
}

// DefaultCurve returns the stock 12000 RPM sweep.
func DefaultCurve() Curve {
	return Curve{
		TargetRPM:    12000,
		Overshoot:    1.035,
		Main:         1000 * time.Millisecond,
		Settle:       100 * time.Millisecond,
		SweepDegrees: 290,
	}
}

// EaseOutCubic is 1-(1-t)^3.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Total is the length of the animation.
func (c Curve) Total() time.Duration {
	return c.Main + c.Settle
}

// PhaseAt returns the phase at elapsed.
func (c Curve) PhaseAt(elapsed time.Duration) Phase {
	switch {
	case elapsed < c.Main:
		return PhaseRising
	case elapsed < c.Total():
		return PhaseSettling
	default:
		return PhaseDone
	}
}

// RPMAt returns the reading at elapsed.
func (c Curve) RPMAt(elapsed time.Duration) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	switch c.PhaseAt(elapsed) {
	case PhaseRising:
		t := float64(elapsed) / float64(c.Main)
		return c.TargetRPM * EaseOutCubic(t)
	case PhaseSettling:
		t := float64(elapsed-c.Main) / float64(c.Settle)
		peak := c.TargetRPM * c.Overshoot
		if t < 0.5 {
			return c.TargetRPM + (peak-c.TargetRPM)*EaseOutCubic(t/0.5)
		}
		return peak - (peak-c.TargetRPM)*((t-0.5)/0.5)
	default:
		return c.TargetRPM
	}
}

// AngleFor converts a reading to a needle angle, clamped to the sweep.
func (c Curve) AngleFor(rpm float64) float64 {
	if c.TargetRPM <= 0 {
		return 0
	}
	clamped := math.Max(0, math.Min(rpm, c.TargetRPM))
	return clamped / c.TargetRPM * c.SweepDegrees
}

// FrameAt samples the curve.
func (c Curve) FrameAt(elapsed time.Duration) Frame {
	rpm := c.RPMAt(elapsed)
	return Frame{
		Elapsed:   elapsed,
		ElapsedMS: elapsed.Milliseconds(),
		RPM:       rpm,
		Angle:     c.AngleFor(rpm),
		Phase:     c.PhaseAt(elapsed),
	}
}

// Frame is one sampled gauge state.
type Frame struct {
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"elapsed_ms"`
	RPM       float64       `json:"rpm"`
	Angle     float64       `json:"angle"`
	Phase     Phase         `json:"phase"`
}
