// Package timeline tracks elapsed time against the steps of a cooking plan.
// A Scheduler is created per tracking session. It records a reference instant when
// tracking starts, classifies every step as pending, active or done for a given
// instant, and applies the "running behind" shift followed by a rebase of its
// reference instant.
//
// A Scheduler has no internal locking and starts no goroutines. Callers that share
// one between goroutines must serialize access themselves.
package timeline
