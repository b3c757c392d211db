package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of recorded metrics.
type Snapshot struct {
	CompanyUpdated       int64
	SubscriptionUpdated  map[string]int64
	SubscriptionConflict int64
}

// InMemoryRecorder keeps counters in memory; useful for tests and the
// development environment.
type InMemoryRecorder struct {
	mu                   sync.Mutex
	companyUpdated       int64
	subscriptionUpdated  map[string]int64
	subscriptionConflict int64
}

// NewInMemory returns a Recorder backed by in-memory counters.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		subscriptionUpdated: make(map[string]int64),
	}
}

func (m *InMemoryRecorder) IncCompanyUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companyUpdated++
}

func (m *InMemoryRecorder) IncSubscriptionUpdated(plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptionUpdated[plan]++
}

func (m *InMemoryRecorder) IncSubscriptionConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptionConflict++
}

func (m *InMemoryRecorder) ObserveSubscriptionDuration(duration time.Duration) {}

// Snapshot returns a copy of current counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	plans := make(map[string]int64, len(m.subscriptionUpdated))
	for plan, count := range m.subscriptionUpdated {
		plans[plan] = count
	}

	return Snapshot{
		CompanyUpdated:       m.companyUpdated,
		SubscriptionUpdated:  plans,
		SubscriptionConflict: m.subscriptionConflict,
	}
}
