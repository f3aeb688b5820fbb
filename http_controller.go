package signup

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-signup/middleware/routeguard"
)

// SignUpper runs the signup flow
type SignUpper interface {
	SignUp(ctx context.Context, event CreateAccountMessage) (EnrollmentResult, error)
}

// RegisterSignupRoutes mounts the signup and session endpoints on app
func RegisterSignupRoutes[T any](app router.Router[T], opts ...SignupControllerOption) *SignupController {
	controller := NewSignupController(opts...)

	app.Post(controller.Routes.Signup, controller.Signup).
		SetName("signup.post")

	app.Get(controller.Routes.UsernameAvailable, controller.UsernameAvailable, controller.limit()...).
		SetName("signup.username-available")

	app.Get(controller.Routes.Referrer, controller.Referrer, controller.limit()...).
		SetName("signup.referrer")

	app.Post(controller.Routes.Login, controller.Login).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.Logout).
		SetName("sign-out.get")

	app.Get(controller.Routes.Landing, controller.Landing).
		SetName("landing.get")

	return controller
}

type SignupControllerRoutes struct {
	Signup            string
	UsernameAvailable string
	Referrer          string
	Login             string
	Logout            string
	Landing           string
}

// SignupController serves the signup JSON API and the session endpoints
type SignupController struct {
	Logger           Logger
	Routes           *SignupControllerRoutes
	Enrollment       SignUpper
	Checker          Checker
	Sessions         SessionLogin
	Cookies          *SessionCookies
	Limiter          *RateLimiter
	SessionKey       string
	SignInPath       string
	LandingPath      string
	RedirectQueryKey string
}

type SignupControllerOption func(*SignupController) *SignupController

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithEnrollment sets the signup flow
func WithEnrollment(e SignUpper) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Enrollment = e
		return c
	}
}

// WithChecker sets the availability checker
func WithChecker(checker Checker) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Checker = checker
		return c
	}
}

// WithSessions sets the login handler
func WithSessions(sessions SessionLogin) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Sessions = sessions
		return c
	}
}

// WithSessionCookies sets the cookie helper
func WithSessionCookies(cookies *SessionCookies) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Cookies = cookies
		return c
	}
}

// WithRateLimiter throttles the availability endpoints
func WithRateLimiter(limiter *RateLimiter) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Limiter = limiter
		return c
	}
}

// WithControllerConfig copies paths and cookie settings from cfg
func WithControllerConfig(cfg Config) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		if p := cfg.GetSignInPath(); p != "" {
			c.SignInPath = p
			c.Routes.Login = p
		}
		if p := cfg.GetLandingPath(); p != "" {
			c.LandingPath = p
			c.Routes.Landing = p
		}
		if k := cfg.GetRedirectQueryKey(); k != "" {
			c.RedirectQueryKey = k
		}
		c.Cookies = NewSessionCookies(cfg)
		return c
	}
}

// NewSignupController creates the controller, panicking on missing
// collaborators
func NewSignupController(opts ...SignupControllerOption) *SignupController {
	c := &SignupController{
		Logger: defLogger{},
		Routes: &SignupControllerRoutes{
			Signup:            "/api/auth/signup",
			UsernameAvailable: "/api/auth/username-available",
			Referrer:          "/api/auth/referrer",
			Login:             "/login",
			Logout:            "/logout",
			Landing:           "/dashboard",
		},
		SessionKey:       "session",
		SignInPath:       "/login",
		LandingPath:      "/dashboard",
		RedirectQueryKey: "redirectedFrom",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Enrollment == nil {
		panic("Missing Enrollment in signup controller...")
	}

	if c.Checker == nil {
		panic("Missing Checker in signup controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionLogin in signup controller...")
	}

	if c.Cookies == nil {
		c.Cookies = &SessionCookies{name: "signup_session", duration: defaultCookieDuration}
	}

	return c
}

func (a *SignupController) limit() []router.MiddlewareFunc {
	if a.Limiter == nil {
		return nil
	}
	return []router.MiddlewareFunc{a.Limiter.Middleware()}
}

// Signup provisions the account and logs it in
func (a *SignupController) Signup(ctx router.Context) error {
	payload := new(Draft)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, a.Logger, NewInvalidInputError(FieldErrors{"_": "malformed request body"}))
	}

	result, err := a.Enrollment.SignUp(ctx.Context(), CreateAccountMessage{Draft: *payload})
	if err != nil {
		return writeError(ctx, a.Logger, err)
	}

	body := map[string]any{
		"success":  true,
		"id":       result.AccountID,
		"redirect": result.Redirect,
	}

	if result.LoggedIn() {
		a.Cookies.Set(ctx, result.Session)
		body["session"] = result.Session
	} else {
		body["message"] = result.Message
		body["code"] = string(KindSessionEstablishmentFailed)
	}

	return ctx.JSON(router.StatusOK, body)
}

// UsernameAvailable answers the first wizard gate
func (a *SignupController) UsernameAvailable(ctx router.Context) error {
	verdict, err := a.Checker.CheckUsername(ctx.Context(), ctx.Query("username"))
	if err != nil {
		return writeError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"available": verdict == UsernameAvailable,
		"verdict":   verdict,
	})
}

// Referrer answers the second wizard gate. The acting username is checked
// here rather than taken from the client.
func (a *SignupController) Referrer(ctx router.Context) error {
	result, err := a.Checker.VerifyReferrer(ctx.Context(), ctx.Query("actingUsername"), ctx.Query("username"))
	if err != nil {
		return writeError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"verified":   result.Verdict == ReferrerVerified,
		"verdict":    result.Verdict,
		"referrerId": result.ReferrerID,
	})
}

// Login establishes a session and points the client to where it came from
func (a *SignupController) Login(ctx router.Context) error {
	payload := new(LoginMessage)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, a.Logger, ErrInvalidCredentials)
	}

	session, err := a.Sessions.Login(ctx.Context(), payload.Identifier, payload.Password)
	if err != nil {
		return writeError(ctx, a.Logger, err)
	}

	a.Cookies.Set(ctx, session)

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":  true,
		"redirect": routeguard.ReturnTarget(ctx.Query(a.RedirectQueryKey), a.LandingPath),
	})
}

// Logout clears the session cookie
func (a *SignupController) Logout(ctx router.Context) error {
	a.Cookies.Clear(ctx)
	return ctx.Redirect(a.SignInPath, router.StatusSeeOther)
}

// Landing is the placeholder page behind the route guard
func (a *SignupController) Landing(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"page":    "dashboard",
		"session": ctx.Locals(a.SessionKey),
	})
}
