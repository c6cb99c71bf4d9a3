// Package taskrunner executes small units of work on a bounded pool of
// goroutines fed by a finite queue.
//
// When the queue is full, or the runner has been shut down, Submit runs the
// task on the calling goroutine instead of rejecting it. Callers therefore
// never lose work and a saturated pool slows producers down naturally.
package taskrunner
