package physics_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/physics"
)

const tol = 1e-12

func body(pos, vel dynamo.Vec3, r float64) dynamo.Body {
	b, err := dynamo.NewBody(pos, vel, r)
	Expect(err).NotTo(HaveOccurred())
	return b
}

func momentum(bs ...dynamo.Body) dynamo.Vec3 {
	var p dynamo.Vec3
	for _, b := range bs {
		p = p.Add(b.Momentum())
	}
	return p
}

func expectVec(got, want dynamo.Vec3) {
	for k := 0; k < 3; k++ {
		ExpectWithOffset(1, got[k]).To(BeNumerically("~", want[k], tol), "axis %d of %v", k, got)
	}
}

type recorder struct{ contacts []dynamo.Contact }

func (r *recorder) OnContact(c dynamo.Contact) { r.contacts = append(r.contacts, c) }

var _ = Describe("Body", func() {
	It("derives mass from the cube of the radius", func() {
		b := body(dynamo.Vec3{}, dynamo.Vec3{}, 0.3)
		Expect(b.Mass).To(BeNumerically("~", 0.027, tol))
	})

	It("rejects non-positive radii", func() {
		_, err := dynamo.NewBody(dynamo.Vec3{}, dynamo.Vec3{}, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidRadius))

		_, err = dynamo.NewBody(dynamo.Vec3{}, dynamo.Vec3{}, -0.2)
		Expect(err).To(MatchError(dynamo.ErrInvalidRadius))
	})
})

var _ = Describe("Integrate", func() {
	It("adds velocity to position and then applies scaled gravity", func() {
		b := body(dynamo.Vec3{0.1, 0.2, 0.3}, dynamo.Vec3{0.01, 0.02, -0.03}, 0.1)
		physics.Integrate(&b, 2)

		expectVec(b.Position, dynamo.Vec3{0.11, 0.22, 0.27})
		Expect(b.Velocity.X()).To(Equal(0.01))
		Expect(b.Velocity.Y()).To(BeNumerically("~", 0.02-2*dynamo.GravityScale, tol))
		Expect(b.Velocity.Z()).To(Equal(-0.03))
	})

	It("uses the velocity from before gravity for the position update", func() {
		b := body(dynamo.Vec3{}, dynamo.Vec3{}, 0.1)
		physics.Integrate(&b, 1)

		Expect(b.Position).To(Equal(dynamo.Vec3{}))
		Expect(b.Velocity.Y()).To(BeNumerically("~", -0.0001, tol))
	})
})

var _ = Describe("ResolveBoundary", func() {
	It("reflects and scales only the offending axis", func() {
		b := body(dynamo.Vec3{0.95, 0, 0}, dynamo.Vec3{0.01, 0.02, 0.03}, 0.1)
		flipped := physics.ResolveBoundary(&b, 0.8)

		Expect(flipped).To(Equal(dynamo.AxisX))
		Expect(b.Velocity.X()).To(BeNumerically("~", -0.008, tol))
		Expect(b.Velocity.Y()).To(Equal(0.02))
		Expect(b.Velocity.Z()).To(Equal(0.03))
	})

	It("handles every axis independently in a corner", func() {
		b := body(dynamo.Vec3{-0.95, 0.95, 0}, dynamo.Vec3{-0.01, 0.01, 0.01}, 0.1)
		flipped := physics.ResolveBoundary(&b, 1)

		Expect(flipped.Has(0)).To(BeTrue())
		Expect(flipped.Has(1)).To(BeTrue())
		Expect(flipped.Has(2)).To(BeFalse())
		expectVec(b.Velocity, dynamo.Vec3{0.01, -0.01, 0.01})
	})

	It("never moves the body", func() {
		pos := dynamo.Vec3{1.2, -1.3, 0.99}
		b := body(pos, dynamo.Vec3{0.1, 0.1, 0.1}, 0.05)
		physics.ResolveBoundary(&b, 0.5)
		Expect(b.Position).To(Equal(pos))
	})

	It("flips again on the next call while still outside", func() {
		b := body(dynamo.Vec3{0, 0, 1.5}, dynamo.Vec3{0, 0, 0.02}, 0.1)
		physics.ResolveBoundary(&b, 0.5)
		physics.ResolveBoundary(&b, 0.5)
		Expect(b.Velocity.Z()).To(BeNumerically("~", 0.005, tol))
	})

	It("leaves an interior body alone", func() {
		b := body(dynamo.Vec3{0.5, 0.5, 0.5}, dynamo.Vec3{0.01, 0.01, 0.01}, 0.4)
		Expect(physics.ResolveBoundary(&b, 0.3)).To(BeZero())
		Expect(b.Velocity).To(Equal(dynamo.Vec3{0.01, 0.01, 0.01}))
	})
})

var _ = Describe("ResolvePair", func() {
	It("swaps velocities in an equal mass head-on elastic collision", func() {
		a := body(dynamo.Vec3{-0.1, 0, 0}, dynamo.Vec3{1, 0, 0}, 0.5)
		b := body(dynamo.Vec3{0.1, 0, 0}, dynamo.Vec3{-1, 0, 0}, 0.5)

		res := physics.ResolvePair(&a, &b, 1)

		Expect(res.Applied).To(BeTrue())
		Expect(res.Impulse).To(BeNumerically("~", 0.25, tol))
		expectVec(a.Velocity, dynamo.Vec3{-1, 0, 0})
		expectVec(b.Velocity, dynamo.Vec3{1, 0, 0})
	})

	It("conserves momentum and kinetic energy when e = 1", func() {
		a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.03, -0.01, 0.02}, 0.3)
		b := body(dynamo.Vec3{0.2, 0.1, -0.15}, dynamo.Vec3{-0.02, 0.01, 0.005}, 0.15)
		before := momentum(a, b)
		energy := a.KineticEnergy() + b.KineticEnergy()

		res := physics.ResolvePair(&a, &b, 1)

		Expect(res.Applied).To(BeTrue())
		expectVec(momentum(a, b), before)
		Expect(a.KineticEnergy() + b.KineticEnergy()).To(BeNumerically("~", energy, tol))
	})

	It("conserves momentum for any restitution", func() {
		for _, e := range []float64{0, 0.25, 0.5, 0.9} {
			a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.05, 0, 0.01}, 0.2)
			b := body(dynamo.Vec3{0.3, 0.05, 0}, dynamo.Vec3{-0.05, 0, 0}, 0.25)
			before := momentum(a, b)
			physics.ResolvePair(&a, &b, e)
			expectVec(momentum(a, b), before)
		}
	})

	It("removes the normal relative velocity when e = 0", func() {
		a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.04, 0.01, 0}, 0.3)
		b := body(dynamo.Vec3{0.3, 0.2, 0}, dynamo.Vec3{-0.01, 0.02, 0.03}, 0.2)

		res := physics.ResolvePair(&a, &b, 0)

		rel := b.Velocity.Sub(a.Velocity)
		Expect(rel.Dot(res.Normal)).To(BeNumerically("~", 0, tol))
	})

	It("keeps tangential velocity", func() {
		a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.1, 0.07, 0}, 0.3)
		b := body(dynamo.Vec3{0.4, 0, 0}, dynamo.Vec3{0, -0.02, 0.05}, 0.3)

		physics.ResolvePair(&a, &b, 0.7)

		Expect(a.Velocity.Y()).To(BeNumerically("~", 0.07, tol))
		Expect(b.Velocity.Y()).To(BeNumerically("~", -0.02, tol))
		Expect(b.Velocity.Z()).To(BeNumerically("~", 0.05, tol))
	})

	It("does nothing for spheres that only touch", func() {
		a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.1, 0, 0}, 0.25)
		b := body(dynamo.Vec3{0.5, 0, 0}, dynamo.Vec3{-0.1, 0, 0}, 0.25)

		Expect(physics.Overlaps(a, b)).To(BeFalse())
		res := physics.ResolvePair(&a, &b, 1)

		Expect(res.Applied).To(BeFalse())
		Expect(a.Velocity).To(Equal(dynamo.Vec3{0.1, 0, 0}))
		Expect(b.Velocity).To(Equal(dynamo.Vec3{-0.1, 0, 0}))
	})

	It("agrees with Overlaps at tangency", func() {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 20000; i++ {
			ra := 0.1 + rng.Float64()*0.3
			rb := 0.1 + rng.Float64()*0.3
			dir := dynamo.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}.Normalize()
			a := body(dynamo.Vec3{}, dynamo.Vec3{}, ra)
			b := body(dir.Mul(ra+rb), dir.Mul(-0.01), rb)

			overlaps := physics.Overlaps(a, b)
			res := physics.ResolvePair(&a, &b, 1)
			Expect(res.Applied).To(Equal(overlaps), "ra=%v rb=%v", ra, rb)
			if overlaps {
				Expect(res.Normal.Len()).To(BeNumerically("~", 1, 1e-9))
			}
		}
	})

	It("reports only pairs it resolves at tangency during a step", func() {
		rng := rand.New(rand.NewSource(4))
		for i := 0; i < 2000; i++ {
			ra := 0.1 + rng.Float64()*0.3
			rb := 0.1 + rng.Float64()*0.3
			// after one tick the centers sit ra+rb apart, give or take rounding
			w := physics.NewWorld([]dynamo.Body{
				body(dynamo.Vec3{-ra, 0, 0}, dynamo.Vec3{}, ra),
				body(dynamo.Vec3{rb + 1e-3, 0, 0}, dynamo.Vec3{-1e-3, 0, 0}, rb),
			})

			rec := &recorder{}
			w.Step(dynamo.Params{Restitution: 1}, rec)
			for _, c := range rec.contacts {
				Expect(c.Resolved).To(BeTrue())
				Expect(c.Normal.Len()).To(BeNumerically("~", 1, 1e-9))
			}
		}
	})

	It("does nothing for an overlapping pair that is separating", func() {
		a := body(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{-0.1, 0, 0}, 0.3)
		b := body(dynamo.Vec3{0.2, 0, 0}, dynamo.Vec3{0.1, 0, 0}, 0.3)

		res := physics.ResolvePair(&a, &b, 1)

		Expect(res.Applied).To(BeFalse())
		Expect(a.Velocity).To(Equal(dynamo.Vec3{-0.1, 0, 0}))
		Expect(b.Velocity).To(Equal(dynamo.Vec3{0.1, 0, 0}))
	})

	It("falls back to the x axis for coincident centers", func() {
		a := body(dynamo.Vec3{0.2, 0.2, 0.2}, dynamo.Vec3{0.1, 0.05, 0}, 0.2)
		b := body(dynamo.Vec3{0.2, 0.2, 0.2}, dynamo.Vec3{}, 0.2)

		res := physics.ResolvePair(&a, &b, 1)

		Expect(res.Degenerate).To(BeTrue())
		Expect(res.Normal).To(Equal(dynamo.FallbackNormal))
		Expect(a.IsValid()).To(BeTrue())
		Expect(b.IsValid()).To(BeTrue())
		expectVec(a.Velocity, dynamo.Vec3{0, 0.05, 0})
		expectVec(b.Velocity, dynamo.Vec3{0.1, 0, 0})
	})
})

var _ = Describe("World", func() {
	It("is a no-op for resting bodies without gravity", func() {
		w := physics.NewWorld([]dynamo.Body{
			body(dynamo.Vec3{-0.5, 0, 0}, dynamo.Vec3{}, 0.2),
			body(dynamo.Vec3{0.5, 0, 0}, dynamo.Vec3{}, 0.2),
		})
		before := w.Clone()

		w.Step(dynamo.Params{Gravity: 0, Restitution: 0.5}, nil)

		Expect(w.Bodies).To(Equal(before.Bodies))
	})

	It("resolves pairs that come into contact during the same tick", func() {
		w := physics.NewWorld([]dynamo.Body{
			body(dynamo.Vec3{-0.3, 0, 0}, dynamo.Vec3{0.1, 0, 0}, 0.25),
			body(dynamo.Vec3{0.3, 0, 0}, dynamo.Vec3{-0.1, 0, 0}, 0.25),
		})
		rec := &recorder{}

		w.Step(dynamo.Params{Restitution: 1}, rec)

		Expect(rec.contacts).To(HaveLen(1))
		Expect(rec.contacts[0].A).To(Equal(0))
		Expect(rec.contacts[0].B).To(Equal(1))
		Expect(rec.contacts[0].Resolved).To(BeTrue())
		expectVec(w.Bodies[0].Velocity, dynamo.Vec3{-0.1, 0, 0})
		expectVec(w.Bodies[1].Velocity, dynamo.Vec3{0.1, 0, 0})
	})

	It("reports separating overlaps as unresolved", func() {
		w := physics.NewWorld([]dynamo.Body{
			body(dynamo.Vec3{-0.1, 0, 0}, dynamo.Vec3{-0.01, 0, 0}, 0.3),
			body(dynamo.Vec3{0.1, 0, 0}, dynamo.Vec3{0.01, 0, 0}, 0.3),
		})
		rec := &recorder{}

		w.Step(dynamo.DefaultParams(), rec)

		Expect(rec.contacts).To(HaveLen(1))
		Expect(rec.contacts[0].Resolved).To(BeFalse())
	})

	It("gives the same result for k single steps and one k-step run", func() {
		w, err := physics.Spawn(rand.New(rand.NewSource(7)), 8, physics.DefaultSpawn())
		Expect(err).NotTo(HaveOccurred())
		other := w.Clone()
		p := dynamo.Params{Gravity: 3, Restitution: 0.9}

		for i := 0; i < 50; i++ {
			w.Step(p, nil)
		}
		other.StepN(50, p, nil)

		Expect(w.Bodies).To(Equal(other.Bodies))
	})

	It("conserves total momentum in the pair phase when nothing touches a wall", func() {
		w := physics.NewWorld([]dynamo.Body{
			body(dynamo.Vec3{-0.2, 0, 0}, dynamo.Vec3{0.02, 0.01, 0}, 0.2),
			body(dynamo.Vec3{0.15, 0.05, 0}, dynamo.Vec3{-0.03, 0, 0.01}, 0.25),
			body(dynamo.Vec3{0, -0.5, 0.3}, dynamo.Vec3{0, 0.01, 0}, 0.15),
		})
		before := w.Momentum()

		w.Step(dynamo.Params{Restitution: 1}, nil)

		expectVec(w.Momentum(), before)
	})

	It("stays finite over a long run", func() {
		w, err := physics.Spawn(rand.New(rand.NewSource(42)), 20, physics.DefaultSpawn())
		Expect(err).NotTo(HaveOccurred())

		w.StepN(5000, dynamo.Params{Gravity: 5, Restitution: 0.8}, nil)

		idx, ok := w.Validate()
		Expect(ok).To(BeTrue(), "body %d went non-finite", idx)
	})
})

var _ = Describe("Spawn", func() {
	It("places every body fully inside the box", func() {
		w, err := physics.Spawn(rand.New(rand.NewSource(1)), 200, physics.DefaultSpawn())
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Len()).To(Equal(200))

		for _, b := range w.Bodies {
			Expect(b.Radius).To(BeNumerically(">=", physics.DefaultMinRadius))
			Expect(b.Radius).To(BeNumerically("<=", physics.DefaultMaxRadius))
			Expect(b.Mass).To(BeNumerically("~", math.Pow(b.Radius, 3), tol))
			Expect(b.Contained()).To(BeTrue())
			for k := 0; k < 3; k++ {
				Expect(math.Abs(b.Velocity[k])).To(BeNumerically("<=", physics.DefaultMaxSpeed))
			}
		}
	})

	It("is deterministic for a seed", func() {
		a, _ := physics.Spawn(rand.New(rand.NewSource(99)), 5, physics.DefaultSpawn())
		b, _ := physics.Spawn(rand.New(rand.NewSource(99)), 5, physics.DefaultSpawn())
		Expect(a.Bodies).To(Equal(b.Bodies))
	})

	It("rejects an empty world", func() {
		_, err := physics.Spawn(rand.New(rand.NewSource(1)), 0, physics.DefaultSpawn())
		Expect(err).To(MatchError(dynamo.ErrBodyCount))
	})

	It("rejects radii that cannot fit", func() {
		cfg := physics.DefaultSpawn()
		cfg.MaxRadius = 1.5
		_, err := physics.Spawn(rand.New(rand.NewSource(1)), 3, cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})
