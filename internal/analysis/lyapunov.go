package analysis

import (
	"math"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

// Divergence estimates how fast two almost identical worlds drift apart,
// as the mean per-tick log growth of their separation in position and
// velocity. The copy has body 0 shifted by perturbation along x and is
// pulled back to that distance after every tick. Collisions make the value
// positive; a world with no contacts stays near zero.
func Divergence(w *physics.World, p dynamo.Params, perturbation float64, ticks int) float64 {
	if w.Len() == 0 || perturbation <= 0 || ticks <= 0 {
		return 0
	}

	a := w.Clone()
	b := w.Clone()
	b.Bodies[0].Position[0] += perturbation

	d0 := perturbation
	sumLog := 0.0
	count := 0

	for i := 0; i < ticks; i++ {
		a.Step(p, nil)
		b.Step(p, nil)

		sep := separation(a, b)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for k := range b.Bodies {
			ak, bk := &a.Bodies[k], &b.Bodies[k]
			bk.Position = ak.Position.Add(bk.Position.Sub(ak.Position).Mul(scale))
			bk.Velocity = ak.Velocity.Add(bk.Velocity.Sub(ak.Velocity).Mul(scale))
		}
	}

	if count == 0 {
		return 0
	}

	return sumLog / float64(count)
}

func separation(a, b *physics.World) float64 {
	sum := 0.0
	for i := range a.Bodies {
		sum += b.Bodies[i].Position.Sub(a.Bodies[i].Position).LenSqr()
		sum += b.Bodies[i].Velocity.Sub(a.Bodies[i].Velocity).LenSqr()
	}
	return math.Sqrt(sum)
}
