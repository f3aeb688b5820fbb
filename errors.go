package signup

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies signup failures
type Kind string

const (
	KindUnknown                    Kind = ""
	KindInvalidInput               Kind = "INVALID_INPUT"
	KindUnavailable                Kind = "UNAVAILABLE"
	KindTransportFailure           Kind = "TRANSPORT_FAILURE"
	KindIdentityCreationFailed     Kind = "IDENTITY_CREATION_FAILED"
	KindProfileCreationFailed      Kind = "PROFILE_CREATION_FAILED"
	KindSessionEstablishmentFailed Kind = "SESSION_ESTABLISHMENT_FAILED"
	KindInvalidCredentials         Kind = "INVALID_CREDENTIALS"
)

// Reasons attached to error metadata under the "reason" key.
const (
	ReasonUsernameTaken    = "username_taken"
	ReasonReferrerRequired = "referrer_required"
	ReasonStoreRejected    = "store_rejected"
)

const (
	// MessageUsernameFirst is the guidance shown when a referrer is checked
	// before the username.
	MessageUsernameFirst = "Check your username first."
	// MessageSignInManually is shown when the account exists but login failed.
	MessageSignInManually = "Account created, but auto-login failed. Please log in manually."
)

// ErrInvalidCredentials is returned for unknown accounts and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(string(KindInvalidCredentials)).
	WithCode(goerrors.CodeUnauthorized)

// ErrUsernameNotConfirmed is returned when a referrer check runs before the
// acting username was confirmed available
var ErrUsernameNotConfirmed = goerrors.New(MessageUsernameFirst, goerrors.CategoryConflict).
	WithTextCode(string(KindUnavailable)).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword wraps the bcrypt mismatch
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for expired session tokens
var ErrTokenExpired = goerrors.New("session token expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify
var ErrTokenMalformed = goerrors.New("session token malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// NewInvalidInputError reports field level validation failures.
func NewInvalidInputError(fields FieldErrors) *goerrors.Error {
	return goerrors.New("invalid signup input", goerrors.CategoryValidation).
		WithTextCode(string(KindInvalidInput)).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// NewUnavailableError reports a username or referrer that can not be used.
func NewUnavailableError(field, message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithTextCode(string(KindUnavailable)).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{"field": field})
}

// NewTransportError wraps a failed call to a remote collaborator. It is
// retryable, the same request may succeed once the collaborator is back.
func NewTransportError(err error, operation string) *goerrors.RetryableError {
	return goerrors.WrapRetryable(err, goerrors.CategoryOperation, "remote call failed, please retry").
		WithTextCode(string(KindTransportFailure)).
		WithCode(http.StatusServiceUnavailable).
		WithMetadata(map[string]any{"operation": operation})
}

// NewIdentityCreationError never carries store text so callers can not
// probe which emails exist.
func NewIdentityCreationError() *goerrors.Error {
	return goerrors.New("could not create account", goerrors.CategoryInternal).
		WithTextCode(string(KindIdentityCreationFailed)).
		WithCode(goerrors.CodeBadRequest)
}

// NewProfileCreationError reports a failed profile insert.
func NewProfileCreationError(reason string) *goerrors.Error {
	msg := "could not create account profile"
	code := goerrors.CodeBadRequest
	switch reason {
	case ReasonUsernameTaken:
		msg = "username already taken"
		code = goerrors.CodeConflict
	case ReasonReferrerRequired:
		msg = "a valid referrer is required"
	}

	return goerrors.New(msg, goerrors.CategoryConflict).
		WithTextCode(string(KindProfileCreationFailed)).
		WithCode(code).
		WithMetadata(map[string]any{"reason": reason})
}

// NewSessionEstablishmentError reports a login failure after provisioning.
func NewSessionEstablishmentError(accountID string) *goerrors.Error {
	return goerrors.New(MessageSignInManually, goerrors.CategoryAuth).
		WithTextCode(string(KindSessionEstablishmentFailed)).
		WithCode(goerrors.CodeUnauthorized).
		WithMetadata(map[string]any{"account_id": accountID})
}

// KindOf returns the taxonomy kind carried by err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	richErr, ok := AsRichError(err)
	if !ok {
		return KindUnknown
	}

	switch k := Kind(richErr.TextCode); k {
	case KindInvalidInput, KindUnavailable, KindTransportFailure,
		KindIdentityCreationFailed, KindProfileCreationFailed,
		KindSessionEstablishmentFailed, KindInvalidCredentials:
		return k
	}
	return KindUnknown
}

// IsKind reports whether err carries kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ReasonOf returns the "reason" metadata of a rich error, if any.
func ReasonOf(err error) string {
	richErr, ok := AsRichError(err)
	if !ok || richErr.Metadata == nil {
		return ""
	}
	reason, _ := richErr.Metadata["reason"].(string)
	return reason
}

// FieldErrorsOf returns the field errors carried by an InvalidInput error.
func FieldErrorsOf(err error) FieldErrors {
	richErr, ok := AsRichError(err)
	if !ok || richErr.Metadata == nil {
		return nil
	}
	fields, _ := richErr.Metadata["fields"].(FieldErrors)
	return fields
}

// AsRichError returns the go-errors value behind err, looking through
// retryable wrappers.
func AsRichError(err error) (*goerrors.Error, bool) {
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) && retryable.BaseError != nil {
		return retryable.BaseError, true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is worth retrying unchanged
func IsRetryable(err error) bool {
	var retryable *goerrors.RetryableError
	return goerrors.As(err, &retryable) && retryable.IsRetryable()
}
