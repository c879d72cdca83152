package errors

import stderrors "errors"

// Common errors shared by every service.
var (
	ErrBadRequest    = Register(New(MakeCode(ServiceCommon, CategoryRequest, 0), 400, "Bad request"))
	ErrRouteNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), 404, "Route not found"))
	ErrInternal      = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0), 500, "Internal Server Error"))
	ErrPanic         = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, "Internal Server Error"))
)

// FromError converts any error to an Errno, wrapping unknown errors as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// GetCode returns the error code carried by err, or -1.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}
