// Package control provides the discrete-time PID loop shared by every
// actuator subsystem.
//
// A [PID] knows nothing about motors or units. Callers feed it an error and
// a time delta and push the clamped result wherever it belongs:
//
//	pid := control.NewPID(control.Params{Kp: 10, MaxOutput: 16000})
//	out := pid.Step(setpoint-measured, 2) // dt in milliseconds
//
// Every caller in this module passes dt in milliseconds. Mixing units on one
// controller instance silently rescales Ki and Kd.
package control
