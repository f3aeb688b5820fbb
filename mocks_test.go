package signup_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/mock"
)

// MockIdentityStore implements signup.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) Create(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIdentityStore) Verify(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*signup.Identity, error) {
	args := m.Called(ctx, email)
	if identity, ok := args.Get(0).(*signup.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProfileStore implements signup.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByUsername(ctx context.Context, username string) (*signup.Profile, error) {
	args := m.Called(ctx, username)
	if profile, ok := args.Get(0).(*signup.Profile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileStore) GetByID(ctx context.Context, id string) (*signup.Profile, error) {
	args := m.Called(ctx, id)
	if profile, ok := args.Get(0).(*signup.Profile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileStore) Insert(ctx context.Context, profile *signup.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileStore) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileStore) LookupReferrerID(ctx context.Context, username string) (string, bool, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Bool(1), args.Error(2)
}

// capturingSink records activity events
type capturingSink struct {
	mu     sync.Mutex
	events []signup.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event signup.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) types() []signup.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]signup.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// captureLogger records structured log calls
type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

type logCall struct {
	level   string
	message string
	args    []any
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.calls))
	for _, c := range l.calls {
		out = append(out, c.level)
	}
	return out
}

// countingRecorder implements signup.Recorder
type countingRecorder struct {
	mu           sync.Mutex
	outcomes     map[string]int
	availability map[string]int
	compensation int
	logins       map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes:     map[string]int{},
		availability: map[string]int{},
		logins:       map[string]int{},
	}
}

func (r *countingRecorder) AvailabilityChecked(check, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.availability[check+":"+outcome]++
}

func (r *countingRecorder) AccountProvisioned(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) CompensationFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensation++
}

func (r *countingRecorder) LoginAttempted(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[outcome]++
}

func (r *countingRecorder) ObserveProvisioning(time.Duration) {}
