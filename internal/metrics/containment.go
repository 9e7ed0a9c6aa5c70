package metrics

import (
	"github.com/san-kum/spheresim/internal/dynamo"
)

// Containment is the fraction of observed ticks on which every sphere was
// fully inside the box. Walls only reflect velocity, so fast or heavy
// bodies can leave it for a while.
type Containment struct {
	name       string
	violations int
	samples    int
	worst      float64
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(tick int, bodies []dynamo.Body) {
	c.samples++
	leaked := false
	for _, b := range bodies {
		if d := penetration(b); d > 0 {
			leaked = true
			if d > c.worst {
				c.worst = d
			}
		}
	}
	if leaked {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Worst is the deepest wall penetration seen.
func (c *Containment) Worst() float64 { return c.worst }

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
	c.worst = 0
}

func penetration(b dynamo.Body) float64 {
	worst := 0.0
	for i := 0; i < 3; i++ {
		lo := -dynamo.BoxHalfExtent - (b.Position[i] - b.Radius)
		hi := b.Position[i] + b.Radius - dynamo.BoxHalfExtent
		if lo > worst {
			worst = lo
		}
		if hi > worst {
			worst = hi
		}
	}
	return worst
}
