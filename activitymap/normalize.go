package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-signup"
)

const (
	// MetadataKeyUsername stores the username the event refers to.
	MetadataKeyUsername = "username"
	// MetadataKeyEmailDomain stores the domain part of the account email.
	MetadataKeyEmailDomain = "email_domain"
)

const (
	defaultChannel    = "signup"
	defaultObjectType = "account"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
	keepEmail     bool
}

// Normalize converts a signup.ActivityEvent into a generic normalized shape.
// Emails are reduced to their domain unless WithEmail is set.
func Normalize(event signup.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	accountID := strings.TrimSpace(event.AccountID)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    firstNonEmpty(accountID, options.actorFallback),
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   accountID,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, options.keepEmail),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used before an account exists.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithEmail keeps the full email address in metadata.
func WithEmail() Option {
	return func(opts *normalizeOptions) {
		opts.keepEmail = true
	}
}

// Logger is the subset of signup.Logger the log sink needs.
type Logger interface {
	Info(msg string, args ...any)
}

// LogSink returns an activity sink that writes normalized records to logger.
func LogSink(logger Logger, opts ...Option) signup.ActivitySink {
	return signup.ActivitySinkFunc(func(_ context.Context, event signup.ActivityEvent) error {
		record := Normalize(event, opts...)
		logger.Info("activity",
			"verb", record.Verb,
			"actor_id", record.ActorID,
			"object_type", record.ObjectType,
			"object_id", record.ObjectID,
			"channel", record.Channel,
			"metadata", record.Metadata,
			"occurred_at", record.OccurredAt,
		)
		return nil
	})
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func normalizeMetadata(event signup.ActivityEvent, keepEmail bool) map[string]any {
	metadata := cloneMap(event.Metadata)

	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	if username := strings.TrimSpace(event.Username); username != "" {
		set(MetadataKeyUsername, username)
	}

	if email := strings.TrimSpace(event.Email); email != "" {
		if keepEmail {
			set("email", email)
		} else if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
			set(MetadataKeyEmailDomain, strings.ToLower(email[at+1:]))
		}
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
