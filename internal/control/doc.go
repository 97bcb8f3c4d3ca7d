// Package control provides the feedback regulator used by the shaping loop.
//
//   - [PID]: Proportional-Integral-Derivative controller with optional
//     integral clamp
//
// # Usage
//
//	pid := control.NewPID(1.2, 0.3, 0.15).WithIntegralLimit(1)
//	out := pid.Update(setPoint, measured, dt)
//	p, i, d := pid.Terms() // diagnostic contributions
//
// The base controller does not bound its integral. Callers that run it under
// sustained error should set [PID.IntegralLimit].
//
// [PID] supports live tuning through GetParams and SetParam.
package control
