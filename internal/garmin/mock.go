package garmin

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MockAPI is an in-memory API implementation for tests. It serves seeded
// data and records every call so tests can assert on fetch counts.
type MockAPI struct {
	mu sync.Mutex

	ActivityList []Activity
	Details      map[int64]*ActivityDetail
	Body         []BodyComposition
	Profile      *UserProfile
	Sleep        []SleepSummary

	// Err, when set, is returned by every call.
	Err error

	calls map[string]int
}

// NewMockAPI returns an empty mock ready for seeding.
func NewMockAPI() *MockAPI {
	return &MockAPI{
		Details: make(map[int64]*ActivityDetail),
		calls:   make(map[string]int),
	}
}

func (m *MockAPI) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.Err
}

// Calls returns how many times the named operation was invoked.
func (m *MockAPI) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of API invocations across all operations.
func (m *MockAPI) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Reset clears call counters but keeps seeded data.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

func (m *MockAPI) Activities(ctx context.Context, window DateRange) ([]Activity, error) {
	if err := m.record("activities"); err != nil {
		return nil, err
	}
	return m.ActivityList, nil
}

func (m *MockAPI) ActivityDetail(ctx context.Context, id int64) (*ActivityDetail, error) {
	if err := m.record("activity_detail"); err != nil {
		return nil, err
	}
	d, ok := m.Details[id]
	if !ok {
		return nil, errors.Errorf("no detail seeded for activity %d", id)
	}
	return d, nil
}

func (m *MockAPI) BodyComposition(ctx context.Context, window DateRange) ([]BodyComposition, error) {
	if err := m.record("body_composition"); err != nil {
		return nil, err
	}
	return m.Body, nil
}

func (m *MockAPI) UserProfile(ctx context.Context) (*UserProfile, error) {
	if err := m.record("user_profile"); err != nil {
		return nil, err
	}
	if m.Profile == nil {
		return &UserProfile{FullName: "Test Athlete", UnitSystem: "metric"}, nil
	}
	return m.Profile, nil
}

func (m *MockAPI) SleepSummaries(ctx context.Context, window DateRange) ([]SleepSummary, error) {
	if err := m.record("sleep"); err != nil {
		return nil, err
	}
	return m.Sleep, nil
}
