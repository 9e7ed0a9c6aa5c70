// Package dynamo provides the shared primitives of the sphere simulation.
//
// The package defines the value types every other package passes around:
//
//   - [Body]: a sphere with position, velocity, radius and mass = radius^3
//   - [Params]: gravity and restitution for a single step
//   - [Contact] and [ContactSink]: collision notifications
//   - [Metric] and [Observer]: hooks run after each tick
//
// Bodies are stored by value in a slice and referred to by index. Nothing
// in this package mutates them; stepping lives in the physics package.
//
// # Example
//
//	w, _ := physics.Spawn(rand.New(rand.NewSource(1)), 5, physics.DefaultSpawn())
//	w.Step(dynamo.DefaultParams(), nil)
package dynamo
