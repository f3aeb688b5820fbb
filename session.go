package signup

import "time"

// Session is an authenticated session. Token is only set right after login
// and never serialized.
type Session struct {
	AccountID string    `json:"accountId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"-"`
}

// GetUserID returns the account id
func (s *Session) GetUserID() string {
	return s.AccountID
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
