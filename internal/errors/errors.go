package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrNotFound     ErrorType = "NOT_FOUND"
	ErrInvalidInput ErrorType = "INVALID_INPUT"
	ErrUpstream     ErrorType = "UPSTREAM"
	ErrUnavailable  ErrorType = "UNAVAILABLE"
	ErrInternal     ErrorType = "INTERNAL"
)

// ErrRateUnavailable is returned when the exchange-rate feed has no EUR row.
// Callers are expected to carry on without a rate.
var ErrRateUnavailable = stderrors.New("exchange rate unavailable")

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// UpstreamError is a non-2xx answer from the partner API or the rate feed.
// StatusCode is zero when no response was received; Err then holds the
// transport failure.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("upstream request to %s failed: %v", e.Endpoint, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("upstream error (status %d) from %s: %s", e.StatusCode, e.Endpoint, e.Body)
	}
	return fmt.Sprintf("upstream error (status %d) from %s", e.StatusCode, e.Endpoint)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new UpstreamError
func NewUpstreamError(statusCode int, endpoint, body string) error {
	return &UpstreamError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Body:       snippet(body, 300),
	}
}

// NewUpstreamTransportError wraps a request that never got a response
func NewUpstreamTransportError(endpoint string, err error) error {
	return &UpstreamError{
		Endpoint: endpoint,
		Err:      err,
	}
}

// MalformedResponseError represents a body that could not be decoded or
// does not have the expected structure.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// NewMalformedResponseError creates a new MalformedResponseError
func NewMalformedResponseError(endpoint, reason string, err error) error {
	return &MalformedResponseError{
		Endpoint: endpoint,
		Reason:   reason,
		Err:      err,
	}
}

// StoreError wraps a failed store operation.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, collection string, err error) error {
	return &StoreError{
		Op:         op,
		Collection: collection,
		Err:        err,
	}
}

// UnknownCollectionError is returned for a collection name the service does not ingest.
type UnknownCollectionError struct {
	Name string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection: %q", e.Name)
}

// NewUnknownCollectionError creates a new UnknownCollectionError
func NewUnknownCollectionError(name string) error {
	return &UnknownCollectionError{Name: name}
}

// IsUpstream checks if the error is an upstream error
func IsUpstream(err error) bool {
	var upErr *UpstreamError
	return stderrors.As(err, &upErr)
}

// IsMalformedResponse checks if the error is a malformed response error
func IsMalformedResponse(err error) bool {
	var mErr *MalformedResponseError
	return stderrors.As(err, &mErr)
}

// IsStore checks if the error is a store error
func IsStore(err error) bool {
	var sErr *StoreError
	return stderrors.As(err, &sErr)
}

// IsUnknownCollection checks if the error is an unknown collection error
func IsUnknownCollection(err error) bool {
	var cErr *UnknownCollectionError
	return stderrors.As(err, &cErr)
}

// IsRateUnavailable checks if the error reports a missing exchange rate
func IsRateUnavailable(err error) bool {
	return stderrors.Is(err, ErrRateUnavailable)
}

// TypeOf classifies an error for the HTTP layer
func TypeOf(err error) ErrorType {
	var appErr *AppError
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &appErr):
		return appErr.Type
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return ErrUnavailable
	case IsUnknownCollection(err):
		return ErrInvalidInput
	case IsUpstream(err), IsMalformedResponse(err):
		return ErrUpstream
	case IsRateUnavailable(err):
		return ErrNotFound
	default:
		return ErrInternal
	}
}

// snippet truncates s to at most max bytes without splitting a rune
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
