package signup

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and validates HS256 session tokens
type TokenService struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	clock           Clock
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience []string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        jwt.ClaimStrings(audience),
		logger:          logger,
		clock:           time.Now,
	}
}

// NewTokenServiceFromConfig reads key, lifetime and claims from cfg
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenService {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
}

// WithClock overrides the time source, used by tests
func (ts *TokenService) WithClock(clock Clock) *TokenService {
	if clock != nil {
		ts.clock = clock
	}
	return ts
}

// Issue creates a session token for profile
func (ts *TokenService) Issue(profile *Profile) (string, *Session, error) {
	if profile == nil {
		return "", nil, errors.New("profile must not be nil", errors.CategoryInternal)
	}

	now := ts.clock()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   profile.ID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UID:      profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		UserRole: string(profile.Role),
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", nil, err
	}

	session := claims.Session()
	session.Token = token
	return token, session, nil
}

// SignClaims signs arbitrary session claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string
func (ts *TokenService) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := []jwt.ParserOption{jwt.WithTimeFunc(ts.clock)}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token validate could not decode claims")
	return nil, ErrTokenMalformed
}

// SessionFor validates token and returns its session
func (ts *TokenService) SessionFor(token string) (*Session, error) {
	claims, err := ts.Validate(token)
	if err != nil {
		return nil, err
	}
	session := claims.Session()
	session.Token = token
	return session, nil
}
