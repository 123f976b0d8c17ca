package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignupSuccess ActivityEventType = "auth.signup.success"
	ActivityEventLoginSuccess  ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure  ActivityEventType = "auth.login.failure"
	ActivityEventLogout        ActivityEventType = "auth.logout"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
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

// LoggerActivitySink writes every event to logger at info level
func LoggerActivitySink(logger Logger) ActivitySink {
	if logger == nil {
		logger = defLogger{}
	}
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		args := []any{"user_id", event.UserID, "occurred_at", event.OccurredAt.Format(time.RFC3339)}
		for k, v := range event.Metadata {
			args = append(args, k, v)
		}
		logger.Info(string(event.EventType), args...)
		return nil
	})
}
