// Package viz draws a live takoyaki session in the terminal.
//
// The package implements a Bubble Tea front end:
//
//   - [Menu]: preset and shaper picker that starts a play session
//   - [Model]: live view driving a [sim.Runner] from the keyboard
//   - [Canvas]: Braille pixel canvas, shaded per cell by cook level
//   - [Camera] and [DrawBall]: wireframe projection of the deformed mesh
//
// # Key Bindings
//
//	Space - Pause/Resume
//	↑/↓   - Spin faster/slower
//	←/→   - Tilt the pan about Z
//	W/S   - Tilt the pan about X
//	J     - Jiggle the ball
//	N     - Force the next cooking phase
//	H     - Lift the ball out of its hole
//	+/-   - Pan temperature
//	R     - New ball
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
