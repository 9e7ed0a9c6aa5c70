// Package physics steps spheres inside the unit box.
//
// A tick is two phases:
//
//   - [Integrate] then [ResolveBoundary] for every body
//   - [ResolvePair] for every overlapping pair i<j, in index order
//
// [World.Step] runs one tick with the [dynamo.Params] it is given and keeps
// no other state, so calling it k times is the same as running k ticks.
//
// Collisions exchange an impulse along the line of centers scaled by the
// restitution coefficient. Positions are never corrected: spheres may sink
// into walls and into each other, and only their velocities react.
//
//	w, _ := physics.Spawn(rng, 5, physics.DefaultSpawn())
//	for i := 0; i < 100; i++ {
//	    w.Step(dynamo.Params{Gravity: 1, Restitution: 0.9}, nil)
//	}
package physics
