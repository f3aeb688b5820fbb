package routeguard

import (
	"net/url"

	"github.com/goliatone/go-router"
)

// SessionValidator resolves a session token. Any error means no session.
// It mirrors the token service without importing it.
type SessionValidator interface {
	Validate(token string) (any, error)
}

// SessionValidatorFunc adapts a function to SessionValidator
type SessionValidatorFunc func(token string) (any, error)

// Validate implements SessionValidator
func (f SessionValidatorFunc) Validate(token string) (any, error) {
	return f(token)
}

// Logger is the subset of the logger the guard uses
type Logger interface {
	Debug(msg string, args ...any)
}

type Config struct {
	// Filter skips the guard when it returns true
	Filter     func(router.Context) bool
	Rules      Rules
	CookieName string
	// Validator is required
	Validator SessionValidator
	// ContextKey, when set, stores the resolved session in locals
	ContextKey string
	StatusCode int
	Logger     Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// GetDefaultConfig fills unset fields
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("SIGNUP: route guard configuration: Validator is required.")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "signup_session"
	}

	if cfg.StatusCode == 0 {
		cfg.StatusCode = router.StatusSeeOther
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	cfg.Rules = cfg.Rules.withDefaults()

	return cfg
}

// New returns the guard middleware
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			session, hasSession := cfg.lookup(ctx)

			req := Request{Path: ctx.Path(), Query: queryValues(ctx.Queries())}
			decision := Decide(req, hasSession, cfg.Rules)
			if decision.Action == Redirect {
				cfg.Logger.Debug("route guard redirect", "path", req.Path, "location", decision.Location)
				return ctx.Redirect(decision.Location, cfg.StatusCode)
			}

			if hasSession && cfg.ContextKey != "" {
				ctx.Locals(cfg.ContextKey, session)
			}

			return ctx.Next()
		}
	}
}

func queryValues(raw map[string]string) url.Values {
	if len(raw) == 0 {
		return nil
	}
	values := make(url.Values, len(raw))
	for key, value := range raw {
		values.Set(key, value)
	}
	return values
}

func (cfg Config) lookup(ctx router.Context) (any, bool) {
	token := ctx.Cookies(cfg.CookieName)
	if token == "" {
		return nil, false
	}

	session, err := cfg.Validator.Validate(token)
	if err != nil || session == nil {
		cfg.Logger.Debug("route guard ignoring invalid session", "error", err)
		return nil, false
	}
	return session, true
}
