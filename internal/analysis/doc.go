// Package analysis provides offline tools for recorded or freshly run
// sphere worlds.
//
//   - [PowerSpectrum]: windowed spectrum of a time series, via go-dsp
//   - [Divergence]: sensitivity of a world to a tiny perturbation
//   - [GeneratePhasePortrait]: position against velocity for one body axis
//   - [BounceSection]: the portrait points where a body was reflected
//   - [Sweep]: gravity or restitution sweep with per-point summaries
//
// # Sensitivity
//
// Contacts amplify small differences, so a crowded box diverges fast:
//
//	lambda := analysis.Divergence(world, params, 1e-9, 2000)
//	if lambda > 0 {
//	    // trajectories separate exponentially
//	}
package analysis
