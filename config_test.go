package signup_test

import (
	"testing"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigSigningKey = "0123456789abcdef0123456789abcdef"

func TestLoadServiceConfig_Defaults(t *testing.T) {
	t.Setenv("SIGNUP_SIGNING_KEY", testConfigSigningKey)

	cfg, err := signup.LoadServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.GetTokenExpiration())
	assert.Equal(t, []string{"signup-web"}, cfg.GetAudience())
	assert.Equal(t, []string{"/dashboard"}, cfg.GetProtectedPaths())
	assert.Equal(t, []string{"/login", "/signup"}, cfg.GetAuthOnlyPaths())
	assert.Equal(t, "/login", cfg.GetSignInPath())
	assert.Equal(t, "/dashboard", cfg.GetLandingPath())
	assert.Equal(t, "redirectedFrom", cfg.GetRedirectQueryKey())
	assert.Equal(t, "signup_session", cfg.GetCookieName())
	assert.True(t, cfg.GetCookieSecure())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "sql", cfg.IdentityProvider)
}

func TestLoadServiceConfig_Overrides(t *testing.T) {
	t.Setenv("SIGNUP_SIGNING_KEY", testConfigSigningKey)
	t.Setenv("SIGNUP_AUDIENCE", "web,mobile")
	t.Setenv("SIGNUP_PROTECTED_PATHS", "/dashboard,/contests")
	t.Setenv("SIGNUP_DB_DRIVER", "postgres")
	t.Setenv("SIGNUP_DB_DSN", "postgres://signup@localhost/signup")
	t.Setenv("SIGNUP_COOKIE_SECURE", "false")

	cfg, err := signup.LoadServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	assert.Equal(t, []string{"/dashboard", "/contests"}, cfg.GetProtectedPaths())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.GetCookieSecure())
}

func TestLoadServiceConfig_ParseError(t *testing.T) {
	t.Setenv("SIGNUP_SIGNING_KEY", testConfigSigningKey)
	t.Setenv("SIGNUP_TOKEN_EXPIRATION_HOURS", "a day")

	_, err := signup.LoadServiceConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestServiceConfig_Validate(t *testing.T) {
	valid := func() signup.ServiceConfig {
		return signup.ServiceConfig{
			SigningKey:       testConfigSigningKey,
			TokenExpiration:  24,
			CookieName:       "signup_session",
			SignInPath:       "/login",
			LandingPath:      "/dashboard",
			DBDriver:         "sqlite",
			DBDSN:            "file::memory:",
			IdentityProvider: "sql",
		}
	}

	tests := []struct {
		name   string
		mutate func(*signup.ServiceConfig)
		field  string
	}{
		{name: "short key", mutate: func(c *signup.ServiceConfig) { c.SigningKey = "short" }, field: "signing_key"},
		{name: "relative sign in", mutate: func(c *signup.ServiceConfig) { c.SignInPath = "login" }, field: "sign_in_path"},
		{name: "unknown driver", mutate: func(c *signup.ServiceConfig) { c.DBDriver = "mysql" }, field: "db_driver"},
		{name: "auth0 without domain", mutate: func(c *signup.ServiceConfig) {
			c.IdentityProvider = "auth0"
			c.Auth0ClientID = "id"
			c.Auth0ClientSecret = "secret"
		}, field: "auth0_domain"},
		{name: "auth0 without secret", mutate: func(c *signup.ServiceConfig) {
			c.IdentityProvider = "auth0"
			c.Auth0Domain = "tenant.auth0.com"
			c.Auth0ClientID = "id"
		}, field: "auth0_client_secret"},
		{name: "missing dsn", mutate: func(c *signup.ServiceConfig) { c.DBDSN = "" }, field: "db_dsn"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
			assert.NotContains(t, err.Error(), "-:")
		})
	}
}
