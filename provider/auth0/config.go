package auth0

import (
	"fmt"
	"strings"
)

// DefaultConnection is the Auth0 database connection created tenants ship with.
const DefaultConnection = "Username-Password-Authentication"

// Config holds Auth0 settings for the identity store.
type Config struct {
	// Domain is the Auth0 tenant domain (e.g., "example.us.auth0.com").
	Domain string

	// ClientID is the M2M application client ID. The application needs the
	// create:users, delete:users and read:users scopes and the password grant.
	ClientID string

	// ClientSecret is the M2M application client secret.
	ClientSecret string

	// Connection is the database connection identities are created in.
	// Default: "Username-Password-Authentication".
	Connection string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(domain, clientID, clientSecret string) Config {
	return Config{
		Domain:       domain,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Connection:   DefaultConnection,
	}
}

func (c Config) validate() error {
	if c.domain() == "" {
		return fmt.Errorf("auth0: domain is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("auth0: client id is required")
	}
	return nil
}

func (c Config) connection() string {
	if conn := strings.TrimSpace(c.Connection); conn != "" {
		return conn
	}
	return DefaultConnection
}

// domain strips the scheme and trailing slash, the SDK wants a bare host.
func (c Config) domain() string {
	domain := strings.TrimSpace(c.Domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}
