package signup

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventAccountCreated        ActivityEventType = "account.created"
	ActivityEventAccountRejected       ActivityEventType = "account.rejected"
	ActivityEventCompensationSucceeded ActivityEventType = "account.compensation.succeeded"
	ActivityEventCompensationFailed    ActivityEventType = "account.compensation.failed"
	ActivityEventLoginSuccess          ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure          ActivityEventType = "auth.login.failure"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	AccountID  string
	Username   string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity emits best effort, failures are only logged
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("activity sink record failed", "error", err, "event", string(event.EventType))
	}
}
