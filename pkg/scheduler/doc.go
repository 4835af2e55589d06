// Package scheduler drives running cooking timelines.
// It ticks at a fixed interval, evaluates every running chat session, announces
// steps as they become active, and stops tracking once a plan is finished. It also
// expires idle sessions.
package scheduler
