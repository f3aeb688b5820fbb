package signup

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

const defaultCookieDuration = 24 * time.Hour

// SessionCookies reads and writes the session cookie
type SessionCookies struct {
	name     string
	secure   bool
	duration time.Duration
}

// NewSessionCookies builds the cookie helper from cfg
func NewSessionCookies(cfg Config) *SessionCookies {
	duration := defaultCookieDuration
	if cfg.GetTokenExpiration() > 0 {
		duration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	name := cfg.GetCookieName()
	if name == "" {
		name = "signup_session"
	}

	return &SessionCookies{
		name:     name,
		secure:   cfg.GetCookieSecure(),
		duration: duration,
	}
}

// Name returns the cookie name
func (s *SessionCookies) Name() string {
	return s.name
}

// Duration returns the cookie lifetime
func (s *SessionCookies) Duration() time.Duration {
	return s.duration
}

// Token returns the session token sent with the request
func (s *SessionCookies) Token(c router.Context) string {
	return c.Cookies(s.name)
}

// Set stores the session token
func (s *SessionCookies) Set(c router.Context, session *Session) {
	if session == nil || session.Token == "" {
		return
	}

	expires := time.Now().Add(s.duration)
	if !session.ExpiresAt.IsZero() {
		expires = session.ExpiresAt
	}

	c.Cookie(&router.Cookie{
		Name:     s.name,
		Value:    session.Token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: "Lax",
	})
}

// Clear expires the session cookie
func (s *SessionCookies) Clear(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: "Lax",
	})
}

// ErrorResponse maps err to a status code and JSON body
func ErrorResponse(err error) (int, map[string]any) {
	richErr, ok := AsRichError(err)
	if !ok {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = errors.CodeInternal
	}

	body := map[string]any{
		"success": false,
		"message": richErr.Message,
		"code":    richErr.TextCode,
	}

	if fields := FieldErrorsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}

	if IsRetryable(err) {
		body["retryable"] = true
	}

	return code, body
}

func writeError(c router.Context, logger Logger, err error) error {
	code, body := ErrorResponse(err)

	if richErr, ok := AsRichError(err); ok {
		logger.Info(
			"signup request failed",
			"error", richErr.Message,
			"text_code", richErr.TextCode,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	} else {
		logger.Error("signup request failed", "error", err)
	}

	return c.JSON(code, body)
}
