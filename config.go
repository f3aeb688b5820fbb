package signup

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
)

// ServiceConfig is the signupd configuration, read from SIGNUP_* variables
type ServiceConfig struct {
	SigningKey       string   `env:"SIGNUP_SIGNING_KEY" json:"-"`
	TokenExpiration  int      `env:"SIGNUP_TOKEN_EXPIRATION_HOURS" envDefault:"24" json:"token_expiration"`
	Issuer           string   `env:"SIGNUP_ISSUER" envDefault:"go-signup" json:"issuer"`
	Audience         []string `env:"SIGNUP_AUDIENCE" envDefault:"signup-web" envSeparator:"," json:"audience"`
	CookieName       string   `env:"SIGNUP_COOKIE_NAME" envDefault:"signup_session" json:"cookie_name"`
	CookieSecure     bool     `env:"SIGNUP_COOKIE_SECURE" envDefault:"true" json:"cookie_secure"`
	ProtectedPaths   []string `env:"SIGNUP_PROTECTED_PATHS" envDefault:"/dashboard" envSeparator:"," json:"protected_paths"`
	AuthOnlyPaths    []string `env:"SIGNUP_AUTH_ONLY_PATHS" envDefault:"/login,/signup" envSeparator:"," json:"auth_only_paths"`
	SignInPath       string   `env:"SIGNUP_SIGN_IN_PATH" envDefault:"/login" json:"sign_in_path"`
	LandingPath      string   `env:"SIGNUP_LANDING_PATH" envDefault:"/dashboard" json:"landing_path"`
	RedirectQueryKey string   `env:"SIGNUP_REDIRECT_QUERY_KEY" envDefault:"redirectedFrom" json:"redirect_query_key"`

	HTTPAddr    string `env:"SIGNUP_HTTP_ADDR" envDefault:":8572" json:"http_addr"`
	MetricsAddr string `env:"SIGNUP_METRICS_ADDR" envDefault:":9572" json:"metrics_addr"`

	DBDriver string `env:"SIGNUP_DB_DRIVER" envDefault:"sqlite" json:"db_driver"`
	DBDSN    string `env:"SIGNUP_DB_DSN" envDefault:"file:signup.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" json:"-"`

	IdentityProvider   string `env:"SIGNUP_IDENTITY_PROVIDER" envDefault:"sql" json:"identity_provider"`
	Auth0Domain        string `env:"SIGNUP_AUTH0_DOMAIN" json:"auth0_domain,omitempty"`
	Auth0ClientID      string `env:"SIGNUP_AUTH0_CLIENT_ID" json:"-"`
	Auth0ClientSecret  string `env:"SIGNUP_AUTH0_CLIENT_SECRET" json:"-"`
	Auth0Connection    string `env:"SIGNUP_AUTH0_CONNECTION" envDefault:"Username-Password-Authentication" json:"auth0_connection"`
	AvailabilityPerSec float64 `env:"SIGNUP_AVAILABILITY_RATE" envDefault:"5" json:"availability_rate"`
	AvailabilityBurst  int     `env:"SIGNUP_AVAILABILITY_BURST" envDefault:"10" json:"availability_burst"`
}

// LoadServiceConfig parses the environment and validates the result
func LoadServiceConfig() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate will run validation rules. Secret fields are hidden from JSON so
// they are reported under their own names.
func (c ServiceConfig) Validate() error {
	var auth0Rules []validation.Rule
	if c.IdentityProvider == "auth0" {
		auth0Rules = append(auth0Rules, validation.Required)
	}

	errs := validation.Errors{
		"signing_key":         validation.Validate(c.SigningKey, validation.Required, validation.Length(32, 0)),
		"db_dsn":              validation.Validate(c.DBDSN, validation.Required),
		"auth0_client_id":     validation.Validate(c.Auth0ClientID, auth0Rules...),
		"auth0_client_secret": validation.Validate(c.Auth0ClientSecret, auth0Rules...),
	}

	err := validation.ValidateStruct(&c,
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.SignInPath, validation.Required, validation.By(absolutePath)),
		validation.Field(&c.LandingPath, validation.Required, validation.By(absolutePath)),
		validation.Field(&c.DBDriver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&c.IdentityProvider, validation.In("sql", "auth0")),
		validation.Field(&c.Auth0Domain, auth0Rules...),
	)
	if err != nil {
		fields, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for name, fieldErr := range fields {
			errs[name] = fieldErr
		}
	}

	return errs.Filter()
}

func absolutePath(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must be an absolute path")
	}
	return nil
}

func (c ServiceConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c ServiceConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c ServiceConfig) GetIssuer() string {
	return c.Issuer
}

func (c ServiceConfig) GetAudience() []string {
	return c.Audience
}

func (c ServiceConfig) GetCookieName() string {
	return c.CookieName
}

func (c ServiceConfig) GetCookieSecure() bool {
	return c.CookieSecure
}

func (c ServiceConfig) GetProtectedPaths() []string {
	return c.ProtectedPaths
}

func (c ServiceConfig) GetAuthOnlyPaths() []string {
	return c.AuthOnlyPaths
}

func (c ServiceConfig) GetSignInPath() string {
	return c.SignInPath
}

func (c ServiceConfig) GetLandingPath() string {
	return c.LandingPath
}

func (c ServiceConfig) GetRedirectQueryKey() string {
	return c.RedirectQueryKey
}
