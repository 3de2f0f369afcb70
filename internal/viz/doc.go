// Package viz is the live terminal view of a simulated robot.
//
// [Model] is a Bubble Tea program. Key presses feed an [operator.Keyboard],
// every frame advances the robot by enough ticks to keep pace with the wall
// clock, and lipgloss panels draw the wheels and the agitator.
//
// # Key Bindings
//
//	W/S   - Forward / back
//	A/D   - Strafe left / right
//	Q/E   - Rotate counter-clockwise / clockwise
//	Space - Index the agitator
//	1-4   - Toggle a wheel's bus link (LF, LB, RF, RB)
//	5     - Toggle the agitator's bus link
//	P     - Pause / resume
//	T     - Cycle color themes
//	Esc   - Quit
package viz
