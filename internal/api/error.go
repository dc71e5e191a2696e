// Package api defines the closed response/error taxonomy every core
// operation resolves to. Components report the most specific kind they can
// determine; the dispatcher in response.go maps kinds to wire responses.
package api

import "errors"

// Kind enumerates the failure vocabulary crossing the core boundary.
type Kind string

const (
	KindBadToken     Kind = "BadTokenError"
	KindTokenExpired Kind = "TokenExpiredError"
	KindUnauthorized Kind = "AuthFailureError"
	KindAccessToken  Kind = "AccessTokenError"
	KindInternal     Kind = "InternalError"
	KindNotFound     Kind = "NotFoundError"
	KindNoEntry      Kind = "NoEntryError"
	KindNoData       Kind = "NoDataError"
	KindBadRequest   Kind = "BadRequestError"
	KindForbidden    Kind = "ForbiddenError"
)

// Error carries a taxonomy kind, a human message and optional details.
// Raw provider/store errors are re-wrapped into one of these at the core's
// edge; the original cause goes into Details, never into client responses
// in production.
type Error struct {
	Kind    Kind
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return string(e.Kind) + ": " + e.Message + ": " + e.Details
	}
	return string(e.Kind) + ": " + e.Message
}

func newError(kind Kind, message string, details []string) *Error {
	e := &Error{Kind: kind, Message: message}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// BadToken reports a structurally malformed token.
func BadToken(message string, details ...string) *Error {
	return newError(KindBadToken, message, details)
}

// TokenExpired reports a token whose expiry has passed.
func TokenExpired(message string, details ...string) *Error {
	return newError(KindTokenExpired, message, details)
}

// Unauthorized reports an authentication failure (bad credentials, unknown
// refresh token, expired handshake).
func Unauthorized(message string, details ...string) *Error {
	return newError(KindUnauthorized, message, details)
}

// AccessToken reports a token that failed validation for any reason other
// than expiry or structure (wrong signature, wrong audience or issuer).
func AccessToken(message string, details ...string) *Error {
	return newError(KindAccessToken, message, details)
}

// Internal reports a server-side fault; details carry the underlying cause.
func Internal(message string, details ...string) *Error {
	return newError(KindInternal, message, details)
}

// NotFound reports a missing resource.
func NotFound(message string, details ...string) *Error {
	return newError(KindNotFound, message, details)
}

// NoEntry reports a lookup that matched nothing.
func NoEntry(message string, details ...string) *Error {
	return newError(KindNoEntry, message, details)
}

// NoData reports a resource that exists but holds no data.
func NoData(message string, details ...string) *Error {
	return newError(KindNoData, message, details)
}

// BadRequest reports a request the server cannot act on.
func BadRequest(message string, details ...string) *Error {
	return newError(KindBadRequest, message, details)
}

// Forbidden reports a permission failure.
func Forbidden(message string, details ...string) *Error {
	return newError(KindForbidden, message, details)
}

// AsError extracts an *Error from err, or nil when err carries no taxonomy
// kind.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
