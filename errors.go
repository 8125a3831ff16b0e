package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeNoSuchAccount       = "auth_no_such_account"
	TextCodeNoPasswordSet       = "auth_no_password_set"
	TextCodeBadCredentials      = "auth_bad_credentials"
	TextCodeEmailExists         = "auth_email_exists"
	TextCodeTokenMissing        = "auth_token_missing"
	TextCodeTokenMalformed      = "auth_token_malformed"
	TextCodeTokenExpired        = "auth_token_expired"
	TextCodeRoleAlreadyAssigned = "auth_role_already_assigned"
	TextCodeForbidden           = "auth_forbidden"
	TextCodeUpstreamTimeout     = "auth_upstream_timeout"
)

// ErrNoSuchAccount is the internal error for an unknown email. It is never
// surfaced to callers directly; the verifier collapses it into
// ErrBadCredentials so responses cannot be used to enumerate accounts.
var ErrNoSuchAccount = errors.New("no account for that email", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchAccount).
	WithCode(errors.CodeNotFound)

// ErrNoPasswordSet marks an account that was created through federated login
// and has no local password. Internal only, same enumeration rules as above.
var ErrNoPasswordSet = errors.New("account has no password set", errors.CategoryAuth).
	WithTextCode(TextCodeNoPasswordSet).
	WithCode(errors.CodeUnauthorized)

// ErrBadCredentials is the single authentication failure callers see for any
// of: unknown email, federated-only account, wrong password.
var ErrBadCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailExists is returned when a signup collides with an existing email.
var ErrEmailExists = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrTokenMissing is returned when a protected request carries no bearer token.
var ErrTokenMissing = errors.New("missing authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or structural
// validation.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for well-signed tokens past their expiry.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrRoleAlreadyAssigned is returned when a role selection targets an identity
// that already holds a different role. First assignment is terminal.
var ErrRoleAlreadyAssigned = errors.New("role already assigned", errors.CategoryConflict).
	WithTextCode(TextCodeRoleAlreadyAssigned).
	WithCode(errors.CodeConflict)

// ErrForbidden is returned by role guards when the token's role claim does not
// match the required role.
var ErrForbidden = errors.New("insufficient role", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrUpstreamTimeout is returned when a call to the identity provider or the
// backing store exceeds its deadline. Nothing in this package retries; that is
// the caller's decision.
var ErrUpstreamTimeout = errors.New("upstream request timed out", errors.CategoryOperation).
	WithTextCode(TextCodeUpstreamTimeout).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString rejects blank values where content is required.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword mirrors bcrypt's mismatch error as a domain error.
var ErrMismatchedHashAndPassword = errors.New("hashed password mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(errors.CodeUnauthorized)

// IsAuthFailure reports whether err is one of the credential failures that
// must be surfaced generically as ErrBadCredentials.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrBadCredentials) ||
		errors.Is(err, ErrNoSuchAccount) ||
		errors.Is(err, ErrNoPasswordSet) ||
		errors.Is(err, ErrMismatchedHashAndPassword)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
