// Package dispatch implements the controller loop: it frames incoming
// commands and manages at most one execution task.
//
// Rules:
//   - LoadProgram and SetSolidColor first stop a running task and wait for
//     its exit, so two tasks never overlap
//   - Stop is idempotent
//   - FeedInput is ignored while idle and dropped while a previous input
//     is still pending
//   - a zero-length frame or a failed read ends the session; any other bad
//     frame is logged and skipped
//
// The execution state only changes on the serving goroutine: Idle to
// Running after a successful load, Running to Idle after the task's exit is
// observed on its Done channel.
package dispatch
