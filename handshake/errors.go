package handshake

import "github.com/goliatone/go-errors"

const (
	TextCodeHandshakeExpired = "handshake_expired"
	TextCodeStoreUnavailable = "handshake_store_unavailable"
)

// ErrHandshakeExpired is returned for unknown or expired tokens alike, so a
// caller cannot tell whether a guessed token ever existed.
var ErrHandshakeExpired = errors.New("handshake expired or unknown", errors.CategoryBadInput).
	WithTextCode(TextCodeHandshakeExpired).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("handshake store unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)
