package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/spheresim/internal/dynamo"
)

const (
	DefaultInterval = 10 * time.Millisecond

	// MaxCatchUp bounds how many intervals a single frame may run after a
	// stall, so a long pause does not replay seconds of physics at once.
	MaxCatchUp = 10
)

// Controls are the user-facing knobs of an interactive session. They are
// applied between ticks only.
type Controls struct {
	Gravity     float64
	Restitution float64
	Bodies      int
	Multiplier  int
	Running     bool
	Sound       bool
}

func DefaultControls() Controls {
	return Controls{
		Gravity:     0,
		Restitution: 1,
		Bodies:      5,
		Multiplier:  1,
		Running:     true,
	}
}

func (c Controls) Params() dynamo.Params {
	return dynamo.Params{Gravity: c.Gravity, Restitution: c.Restitution}
}

func (c Controls) Validate() error {
	if c.Bodies < 1 {
		return fmt.Errorf("%w: got %d", dynamo.ErrBodyCount, c.Bodies)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier %d must be >= 1", dynamo.ErrParameterBounds, c.Multiplier)
	}
	return c.Params().Validate()
}

// Pacer turns elapsed wall time into a whole number of fixed intervals.
type Pacer struct {
	interval time.Duration
	acc      time.Duration
}

func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pacer{interval: interval}
}

func (p *Pacer) Interval() time.Duration { return p.interval }

// Due adds elapsed to the backlog and returns how many intervals are ready.
// Backlog beyond MaxCatchUp intervals is dropped.
func (p *Pacer) Due(elapsed time.Duration) int {
	if elapsed > 0 {
		p.acc += elapsed
	}
	n := int(p.acc / p.interval)
	p.acc -= time.Duration(n) * p.interval
	if n > MaxCatchUp {
		n = MaxCatchUp
	}
	return n
}

func (p *Pacer) Reset() { p.acc = 0 }
