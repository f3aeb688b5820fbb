package signup

import "context"

// AccountCreator provisions accounts
type AccountCreator interface {
	CreateAccount(ctx context.Context, event CreateAccountMessage) (string, error)
}

// SessionLogin establishes sessions
type SessionLogin interface {
	Login(ctx context.Context, identifier, password string) (*Session, error)
}

// EnrollmentResult is the outcome of a completed signup. Session is nil when
// the account exists but the automatic login failed, in which case Err holds
// the SessionEstablishmentFailed condition.
type EnrollmentResult struct {
	AccountID string   `json:"id"`
	Session   *Session `json:"session,omitempty"`
	Redirect  string   `json:"redirect"`
	Message   string   `json:"message,omitempty"`
	Err       error    `json:"-"`
}

// LoggedIn reports whether a session was established
func (r EnrollmentResult) LoggedIn() bool {
	return r.Session != nil
}

// Enrollment runs provisioning followed by the automatic login
type Enrollment struct {
	accounts    AccountCreator
	sessions    SessionLogin
	logger      Logger
	landingPath string
	signInPath  string
}

// NewEnrollment creates the signup flow. landingPath is used after a
// successful login and signInPath when the user must log in manually.
func NewEnrollment(accounts AccountCreator, sessions SessionLogin, landingPath, signInPath string, logger Logger) *Enrollment {
	if logger == nil {
		logger = defLogger{}
	}
	if landingPath == "" {
		landingPath = "/dashboard"
	}
	if signInPath == "" {
		signInPath = "/login"
	}
	return &Enrollment{
		accounts:    accounts,
		sessions:    sessions,
		logger:      logger,
		landingPath: landingPath,
		signInPath:  signInPath,
	}
}

// SignUp creates the account and logs it in. Provisioning failures are
// returned as errors. A login failure after provisioning is not an error, the
// account is kept and the result points at the sign in page.
func (e *Enrollment) SignUp(ctx context.Context, event CreateAccountMessage) (EnrollmentResult, error) {
	id, err := e.accounts.CreateAccount(ctx, event)
	if err != nil {
		return EnrollmentResult{}, err
	}

	session, err := e.sessions.Login(context.WithoutCancel(ctx), event.Email, event.Password)
	if err != nil {
		e.logger.Warn("auto login after signup failed", "error", err, "account_id", id)
		return EnrollmentResult{
			AccountID: id,
			Redirect:  e.signInPath,
			Message:   MessageSignInManually,
			Err:       NewSessionEstablishmentError(id),
		}, nil
	}

	return EnrollmentResult{
		AccountID: id,
		Session:   session,
		Redirect:  e.landingPath,
	}, nil
}
