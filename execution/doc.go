// Package execution runs a loaded program on a fixed tick.
//
// The dispatcher builds a Context, puts it into a Handoff and starts a Task;
// the task takes the context exactly once and owns it until it exits.
// Coordination uses no locks:
//
//   - the handoff is a one-shot channel guarded by an atomic flag
//   - stopping cancels the task's context, which the loop checks once per
//     tick
//   - Done is closed as the task's last act, after the context was
//     released, so a receive on Done orders every effect of the run before
//     the observer's next step
//   - Input is a one-element channel; Offer never overwrites a pending
//     payload
//
// Tick pacing comes from a Clock. Tests drive it with ManualClock.
package execution
