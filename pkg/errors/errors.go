package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// 传输层通用错误原因
const (
	ReasonBadRequest      = "BAD_REQUEST"
	ReasonUnauthorized    = "UNAUTHORIZED"
	ReasonNotFound        = "NOT_FOUND"
	ReasonTooManyRequests = "TOO_MANY_REQUESTS"
	ReasonInternal        = "INTERNAL_SERVER_ERROR"
)

// CodeTooManyRequests kratos 没有 429 构造函数
const CodeTooManyRequests = 429

// Common errors
var (
	ErrUnauthorized        = errors.Unauthorized(ReasonUnauthorized, "missing or invalid bearer token")
	ErrNotFound            = errors.NotFound(ReasonNotFound, "resource not found")
	ErrTooManyRequests     = errors.New(CodeTooManyRequests, ReasonTooManyRequests, "too many requests")
	ErrInternalServerError = errors.InternalServer(ReasonInternal, "internal error")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(message string) *errors.Error {
	return errors.BadRequest(ReasonBadRequest, message)
}
