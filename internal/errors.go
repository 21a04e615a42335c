package internal

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is an error carrying an HTTP status code. The error boundary
// renders it with its status; everything else in the pipeline treats it
// as a plain error.
type HTTPError struct {
	// Err is the underlying error, kept for logging and never exposed
	// to clients.
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// WithError attaches the underlying cause.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convenience constructors for common statuses.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// HandlerErrorReason classifies why a handler could not be bound to a
// route. All of these are raised during registration; the server refuses
// to start rather than serve a broken route table.
type HandlerErrorReason string

const (
	ReasonNotAFunction     HandlerErrorReason = "not a function"
	ReasonBadReturnShape   HandlerErrorReason = "bad return shape"
	ReasonMissingType      HandlerErrorReason = "parameter carries no usable type"
	ReasonVariadic         HandlerErrorReason = "variadic parameter"
	ReasonInvalidDep       HandlerErrorReason = "invalid dependency"
	ReasonDependencyCycle  HandlerErrorReason = "dependency cycle"
	ReasonUnboundPathParam HandlerErrorReason = "path parameter never bound"
)

// InvalidHandlerError reports a handler that cannot be bound. Chain is
// populated only for dependency cycles and lists the resolution path
// ending at the repeated dependency.
type InvalidHandlerError struct {
	Handler string
	Reason  HandlerErrorReason
	Detail  string
	Chain   []string
}

func (e *InvalidHandlerError) Error() string {
	msg := fmt.Sprintf("invalid handler %s: %s", e.Handler, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Chain) > 0 {
		msg += " (" + strings.Join(e.Chain, " -> ") + ")"
	}
	return msg
}

// RequestPart identifies the request segment a validation error stems
// from. The boundary includes it in the machine-readable error body.
type RequestPart string

const (
	PartPathParams  RequestPart = "path_params"
	PartQueryParams RequestPart = "query_params"
	PartBody        RequestPart = "body"
	PartCookies     RequestPart = "cookies"
)

// RequestValidationError is a 400-class error tied to a specific request
// segment.
type RequestValidationError struct {
	Err  error
	Part RequestPart
	Name string
}

func (e *RequestValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Part)
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestValidationError) Unwrap() error {
	return e.Err
}

// ExtractorError wraps a failure inside an extractor with the type it
// was producing.
type ExtractorError struct {
	Type string
	Err  error
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("extractor for %s failed: %v", e.Type, e.Err)
}

func (e *ExtractorError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic through the error boundary.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
