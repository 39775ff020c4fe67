package domain

// RejectReason classifies why an authentication attempt was turned away.
// Reasons are for logs and metrics only and must never reach a client
// response, which always collapses to a single generic message.
type RejectReason string

const (
	ReasonUnknownIdentifier RejectReason = "unknown_identifier"
	ReasonNoPasswordSet     RejectReason = "no_password_set"
	ReasonBadCredentials    RejectReason = "bad_credentials"
)

// AuthResult is the outcome of an authentication attempt that completed
// without infrastructure failure. It is either authenticated, carrying the
// user, or rejected, carrying an internal reason. Store or network errors
// are reported through the error return of Authenticate and never encoded
// here.
type AuthResult struct {
	User   *User
	Reason RejectReason
}

// Authenticated builds a successful result.
func Authenticated(u *User) AuthResult {
	return AuthResult{User: u}
}

// Rejected builds a refused result with an internal reason.
func Rejected(reason RejectReason) AuthResult {
	return AuthResult{Reason: reason}
}

// OK reports whether the attempt succeeded.
func (r AuthResult) OK() bool {
	return r.User != nil
}
