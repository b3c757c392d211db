// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Company management metrics
	IncCompanyUpdated()

	// Subscription lifecycle metrics
	IncSubscriptionUpdated(plan string)
	IncSubscriptionConflict()
	ObserveSubscriptionDuration(duration time.Duration)
}

// Snapshotter exposes a point-in-time view of recorded metrics.
// InMemoryRecorder implements it; exporters read through it.
type Snapshotter interface {
	Snapshot() Snapshot
}
