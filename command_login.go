package signup

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// LoginMessage carries the credentials of a login request. Identifier is
// either an email or a username.
type LoginMessage struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

func (e LoginMessage) Type() string { return "session.login" }

// SessionIssuer mints session tokens for a profile
type SessionIssuer interface {
	Issue(profile *Profile) (string, *Session, error)
}

// SessionEstablisher verifies credentials and issues sessions
type SessionEstablisher struct {
	identities IdentityStore
	profiles   ProfileStore
	tokens     SessionIssuer
	logger     Logger
	activity   ActivitySink
	metrics    Recorder
}

// LoginOption configures a SessionEstablisher
type LoginOption func(*SessionEstablisher)

// WithLoginLogger sets the logger
func WithLoginLogger(logger Logger) LoginOption {
	return func(s *SessionEstablisher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoginActivitySink sets the audit sink
func WithLoginActivitySink(sink ActivitySink) LoginOption {
	return func(s *SessionEstablisher) {
		s.activity = normalizeActivitySink(sink)
	}
}

// WithLoginMetrics sets the metrics recorder
func WithLoginMetrics(metrics Recorder) LoginOption {
	return func(s *SessionEstablisher) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewSessionEstablisher creates the login handler
func NewSessionEstablisher(identities IdentityStore, profiles ProfileStore, tokens SessionIssuer, opts ...LoginOption) *SessionEstablisher {
	s := &SessionEstablisher{
		identities: identities,
		profiles:   profiles,
		tokens:     tokens,
		logger:     defLogger{},
		activity:   noopActivitySink{},
		metrics:    noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Execute implements the command handler shape
func (s *SessionEstablisher) Execute(ctx context.Context, event LoginMessage) error {
	_, err := s.Login(ctx, event.Identifier, event.Password)
	return err
}

// Login verifies the credential pair and returns a session carrying its
// token. Unknown accounts and wrong passwords both yield
// ErrInvalidCredentials.
func (s *SessionEstablisher) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, s.reject(ctx, identifier, "missing_credentials")
	}

	var profile *Profile
	email := identifier
	if !strings.Contains(identifier, "@") {
		p, err := s.profiles.GetByUsername(ctx, identifier)
		if err != nil {
			if IsNotFound(err) {
				return nil, s.reject(ctx, identifier, "unknown_username")
			}
			return nil, s.transport(err, "lookup_username")
		}
		profile = p
		email = p.Email
	}

	id, err := s.identities.Verify(ctx, email, password)
	if err != nil {
		if goerrors.Is(err, ErrInvalidCredentials) {
			return nil, s.reject(ctx, identifier, "bad_credentials")
		}
		return nil, s.transport(err, "verify_credentials")
	}

	if profile == nil || profile.ID != id {
		profile, err = s.profiles.GetByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				s.logger.Warn("identity has no profile", "account_id", id)
				return nil, s.reject(ctx, identifier, "missing_profile")
			}
			return nil, s.transport(err, "load_profile")
		}
	}

	_, session, err := s.tokens.Issue(profile)
	if err != nil {
		s.logger.Error("session token issue failed", "error", err, "account_id", profile.ID)
		s.metrics.LoginAttempted("error")
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not establish session")
	}

	s.metrics.LoginAttempted("success")
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		AccountID: profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
	})

	return session, nil
}

func (s *SessionEstablisher) reject(ctx context.Context, identifier, reason string) error {
	s.metrics.LoginAttempted("invalid")
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Username:  identifier,
		Metadata:  map[string]any{"reason": reason},
	})
	return ErrInvalidCredentials
}

func (s *SessionEstablisher) transport(err error, operation string) error {
	s.logger.Error("login collaborator failed", "error", err, "operation", operation)
	s.metrics.LoginAttempted("error")
	return NewTransportError(err, operation)
}
