package systems

import (
	"math/rand"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
)

// Ramp holds the hysteresis schedule for the controller. Decrements are
// normally larger than increments so agents slow down faster than they
// recover.
type Ramp struct {
	MinSpeed, MaxSpeed float64
	SpeedInc, SpeedDec float64
	MinScan, MaxScan   float64
	ScanInc, ScanDec   float64
	Rotation           float64 // radians per turning frame
}

// RampFromConfig builds the ramp from a finalized config.
func RampFromConfig(cfg *config.Config) Ramp {
	nav := cfg.Navigation
	return Ramp{
		MinSpeed: nav.MinSpeed,
		MaxSpeed: nav.MaxSpeed,
		SpeedInc: cfg.Derived.SpeedIncrementDelta,
		SpeedDec: cfg.Derived.SpeedDecrementDelta,
		MinScan:  nav.MinScan,
		MaxScan:  nav.MaxScan,
		ScanInc:  nav.ScanIncrementDelta,
		ScanDec:  nav.ScanDecrementDelta,
		Rotation: cfg.Derived.RotationDelta,
	}
}

// Controller is the per-agent turn-and-slow / continue-and-accelerate state
// machine. It holds no per-agent state; everything lives in the components.
type Controller struct {
	ramp Ramp
	rng  *rand.Rand
}

// NewController creates a controller drawing turn directions from rng.
func NewController(ramp Ramp, rng *rand.Rand) *Controller {
	return &Controller{ramp: ramp, rng: rng}
}

// Ramp returns the controller's schedule.
func (c *Controller) Ramp() Ramp {
	return c.ramp
}

// Initial returns the starting kinematic state for a new agent.
func (c *Controller) Initial() (components.Kinematics, components.Navigation) {
	return components.Kinematics{Speed: c.ramp.MaxSpeed, ScanRadius: c.ramp.MaxScan},
		components.Navigation{State: components.Moving}
}

// Update applies one frame of the state machine given the scan result. It
// changes bearing, speed and scan radius but does not translate the agent.
func (c *Controller) Update(pose *components.Pose, kin *components.Kinematics, nav *components.Navigation, blocked bool) {
	r := c.ramp
	if !blocked {
		nav.State = components.Moving
		nav.Direction = components.Unset
		kin.Speed = clamp(kin.Speed+r.SpeedInc, r.MinSpeed, r.MaxSpeed)
		kin.ScanRadius = clamp(kin.ScanRadius+r.ScanInc, r.MinScan, r.MaxScan)
		return
	}

	if nav.State != components.Turning || nav.Direction == components.Unset {
		nav.State = components.Turning
		nav.Direction = c.drawDirection()
	}

	pose.SetBearing(normalizeAngle(pose.Bearing + nav.Direction.Sign()*r.Rotation))
	kin.Speed = clamp(kin.Speed-r.SpeedDec, r.MinSpeed, r.MaxSpeed)
	kin.ScanRadius = clamp(kin.ScanRadius-r.ScanDec, r.MinScan, r.MaxScan)
}

func (c *Controller) drawDirection() components.TurnDirection {
	if c.rng.Intn(2) == 0 {
		return components.CW
	}
	return components.CCW
}
