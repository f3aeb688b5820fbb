package signup

import (
	"context"
	"strings"
)

// UsernameVerdict is the tri-state result of a username check
type UsernameVerdict string

const (
	UsernameUnchecked UsernameVerdict = "unchecked"
	UsernameAvailable UsernameVerdict = "available"
	UsernameTaken     UsernameVerdict = "taken"
)

// ReferrerVerdict is the tri-state result of a referrer check
type ReferrerVerdict string

const (
	ReferrerUnchecked ReferrerVerdict = "unchecked"
	ReferrerVerified  ReferrerVerdict = "verified"
	ReferrerNotFound  ReferrerVerdict = "not-found"
)

// ReferrerResult carries the referrer verdict and, when verified, its id
type ReferrerResult struct {
	Verdict    ReferrerVerdict `json:"verdict"`
	ReferrerID string          `json:"referrerId,omitempty"`
}

// Checker runs the availability checks a signup draft depends on
type Checker interface {
	CheckUsername(ctx context.Context, candidate string) (UsernameVerdict, error)
	CheckReferrer(ctx context.Context, acting UsernameVerdict, candidate string) (ReferrerResult, error)
	VerifyReferrer(ctx context.Context, actingUsername, candidate string) (ReferrerResult, error)
}

// AvailabilityChecker answers availability questions against the profile
// store. Both checks are reads and can be repeated freely.
type AvailabilityChecker struct {
	profiles ProfileStore
	logger   Logger
	metrics  Recorder
}

// AvailabilityOption configures an AvailabilityChecker
type AvailabilityOption func(*AvailabilityChecker)

// WithAvailabilityLogger sets the logger
func WithAvailabilityLogger(logger Logger) AvailabilityOption {
	return func(c *AvailabilityChecker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAvailabilityMetrics sets the metrics recorder
func WithAvailabilityMetrics(metrics Recorder) AvailabilityOption {
	return func(c *AvailabilityChecker) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// NewAvailabilityChecker creates a checker over profiles
func NewAvailabilityChecker(profiles ProfileStore, opts ...AvailabilityOption) *AvailabilityChecker {
	c := &AvailabilityChecker{
		profiles: profiles,
		logger:   defLogger{},
		metrics:  noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CheckUsername reports whether candidate can be claimed. Malformed
// candidates never reach the store.
func (c *AvailabilityChecker) CheckUsername(ctx context.Context, candidate string) (UsernameVerdict, error) {
	candidate = strings.TrimSpace(candidate)
	if err := ValidateUsername(candidate); err != nil {
		c.metrics.AvailabilityChecked("username", "invalid")
		return UsernameUnchecked, NewInvalidInputError(FieldErrors{"username": err.Error()})
	}

	available, err := c.profiles.UsernameAvailable(ctx, candidate)
	if err != nil {
		c.logger.Error("username availability check failed", "error", err, "username", candidate)
		c.metrics.AvailabilityChecked("username", "error")
		return UsernameUnchecked, NewTransportError(err, "username_available")
	}

	if !available {
		c.metrics.AvailabilityChecked("username", string(UsernameTaken))
		return UsernameTaken, nil
	}

	c.metrics.AvailabilityChecked("username", string(UsernameAvailable))
	return UsernameAvailable, nil
}

// CheckReferrer resolves candidate to an existing profile id. It refuses to
// run until the acting username has been confirmed available.
func (c *AvailabilityChecker) CheckReferrer(ctx context.Context, acting UsernameVerdict, candidate string) (ReferrerResult, error) {
	unchecked := ReferrerResult{Verdict: ReferrerUnchecked}

	if acting != UsernameAvailable {
		c.metrics.AvailabilityChecked("referrer", "gated")
		return unchecked, ErrUsernameNotConfirmed
	}

	candidate = strings.TrimSpace(candidate)
	if err := ValidateUsername(candidate); err != nil {
		c.metrics.AvailabilityChecked("referrer", "invalid")
		return unchecked, NewInvalidInputError(FieldErrors{"referrerUsername": err.Error()})
	}

	id, found, err := c.profiles.LookupReferrerID(ctx, candidate)
	if err != nil {
		c.logger.Error("referrer lookup failed", "error", err, "referrer", candidate)
		c.metrics.AvailabilityChecked("referrer", "error")
		return unchecked, NewTransportError(err, "lookup_referrer_id")
	}

	if !found {
		c.metrics.AvailabilityChecked("referrer", string(ReferrerNotFound))
		return ReferrerResult{Verdict: ReferrerNotFound}, nil
	}

	c.metrics.AvailabilityChecked("referrer", string(ReferrerVerified))
	return ReferrerResult{Verdict: ReferrerVerified, ReferrerID: id}, nil
}

// VerifyReferrer is the referrer check for callers that can not be trusted
// with a verdict: the acting username is checked again before the lookup.
func (c *AvailabilityChecker) VerifyReferrer(ctx context.Context, actingUsername, candidate string) (ReferrerResult, error) {
	unchecked := ReferrerResult{Verdict: ReferrerUnchecked}

	acting, err := c.CheckUsername(ctx, actingUsername)
	switch {
	case IsKind(err, KindInvalidInput):
		c.metrics.AvailabilityChecked("referrer", "gated")
		return unchecked, ErrUsernameNotConfirmed
	case err != nil:
		return unchecked, err
	case acting == UsernameTaken:
		c.metrics.AvailabilityChecked("referrer", "gated")
		return unchecked, NewUnavailableError("username", "username already taken")
	}

	return c.CheckReferrer(ctx, acting, candidate)
}
