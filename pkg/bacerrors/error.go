package bacerrors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error is a coded error carrying an optional hint for the user, free-form
// details and the stack trace captured where it was created.
type Error interface {
	error
	Unwrap() error

	// ErrorWrapped returns the message including every wrapping layer.
	ErrorWrapped() string

	Code() ErrorCode
	Component() string
	Hint() string
	Details() map[string]string
	StackTrace() string

	WithCode(code ErrorCode) Error
	WithComponent(component string) Error
	WithHint(format string, a ...any) Error
	WithDetails(details map[string]string) Error
	WithDetail(key, value string) Error
}

type errorImpl struct {
	cause     string
	code      ErrorCode
	component string
	hint      string
	details   map[string]string

	wrappedErr  error
	wrappingMsg string

	stack pkgerrors.StackTrace
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// New creates an Error with the formatted message and captures the caller's
// stack.
func New(format string, a ...any) Error {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return &errorImpl{
		cause: msg,
		code:  UnknownError,
		stack: captureStack(),
	}
}

// Wrap adds context to err. When err is already an Error, its message, code,
// hint and stack are preserved and the new context is only visible through
// ErrorWrapped. Wrapping nil returns nil.
func Wrap(err error, format string, a ...any) Error {
	if err == nil {
		return nil
	}
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}

	var bacErr *errorImpl
	if errors.As(err, &bacErr) {
		wrapped := bacErr.clone()
		wrapped.wrappedErr = err
		wrapped.wrappingMsg = msg
		return wrapped
	}

	return &errorImpl{
		cause:       fmt.Sprintf("%s: %s", msg, err.Error()),
		code:        UnknownError,
		wrappedErr:  err,
		wrappingMsg: msg,
		stack:       captureStack(),
	}
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var bacErr Error
		if !errors.As(err, &bacErr) {
			return false
		}
		if bacErr.Code() == code {
			return true
		}
		err = bacErr.Unwrap()
	}
	return false
}

func (e *errorImpl) Error() string {
	return e.cause
}

func (e *errorImpl) Unwrap() error {
	return e.wrappedErr
}

func (e *errorImpl) ErrorWrapped() string {
	if e.wrappingMsg == "" {
		return e.cause
	}
	var inner Error
	if errors.As(e.wrappedErr, &inner) {
		return fmt.Sprintf("%s: %s", e.wrappingMsg, inner.ErrorWrapped())
	}
	return e.cause
}

func (e *errorImpl) Code() ErrorCode {
	return e.code
}

func (e *errorImpl) Component() string {
	return e.component
}

func (e *errorImpl) Hint() string {
	return e.hint
}

func (e *errorImpl) Details() map[string]string {
	return e.details
}

func (e *errorImpl) StackTrace() string {
	return fmt.Sprintf("%+v", e.stack)
}

func (e *errorImpl) WithCode(code ErrorCode) Error {
	e.code = code
	return e
}

func (e *errorImpl) WithComponent(component string) Error {
	e.component = component
	return e
}

func (e *errorImpl) WithHint(format string, a ...any) Error {
	if len(a) > 0 {
		format = fmt.Sprintf(format, a...)
	}
	e.hint = format
	return e
}

func (e *errorImpl) WithDetails(details map[string]string) Error {
	if e.details == nil {
		e.details = make(map[string]string, len(details))
	}
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

func (e *errorImpl) WithDetail(key, value string) Error {
	return e.WithDetails(map[string]string{key: value})
}

func (e *errorImpl) clone() *errorImpl {
	c := *e
	if e.details != nil {
		c.details = make(map[string]string, len(e.details))
		for k, v := range e.details {
			c.details[k] = v
		}
	}
	return &c
}

// captureStack records the stack of the New/Wrap caller.
func captureStack() pkgerrors.StackTrace {
	st := pkgerrors.New("").(stackTracer).StackTrace()
	const skip = 2 // captureStack and New/Wrap
	if len(st) > skip {
		return st[skip:]
	}
	return st
}

// compile-time interface assertion
var _ Error = (*errorImpl)(nil)
