package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCompanyUpdated is a no-op.
func (n *NoopRecorder) IncCompanyUpdated() {}

// IncSubscriptionUpdated is a no-op.
func (n *NoopRecorder) IncSubscriptionUpdated(plan string) {}

// IncSubscriptionConflict is a no-op.
func (n *NoopRecorder) IncSubscriptionConflict() {}

// ObserveSubscriptionDuration is a no-op.
func (n *NoopRecorder) ObserveSubscriptionDuration(duration time.Duration) {}
