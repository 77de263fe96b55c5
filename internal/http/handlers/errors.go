// Error codes for transport-level failures the service layer never sees,
// such as unrouted paths and rejected methods. Codes produced from service
// errors come from the apperr kind table instead; both sets share the same
// lowercase snake_case vocabulary.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)
