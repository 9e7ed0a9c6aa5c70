// Package viz is the terminal front end: a Bubble Tea program that steps a
// sim.Session on a fixed interval and draws the box and its spheres on a
// braille canvas.
//
// Spheres are shaded with dynamo.Shade and dithered so that brighter
// surfaces show more dots. A second small canvas shows the light direction
// on a reference sphere.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	N       - Respawn spheres
//	Tab ↑↓  - Select and tune gravity, restitution, bodies, speed
//	x y + - - Rotate and zoom the camera, R resets it
//	W A S D - Rotate the light, O resets it
//	M       - Toggle collision sound
//	[ ]     - Step through recent history
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
