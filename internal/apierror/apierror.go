// Package apierror provides the typed error taxonomy shared by every service
// and the standardized error envelopes returned by the HTTP layer.
// Handlers never serialize raw storage errors: they go through Status/Envelope.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Only ConcurrencyConflict is safe to retry.
type Kind string

const (
	KindValidation             Kind = "validation_error"
	KindReferenceNotFound      Kind = "reference_not_found"
	KindInsufficientInventory  Kind = "insufficient_inventory"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindConcurrencyConflict    Kind = "concurrency_conflict"
	KindMissingCommissionRate  Kind = "missing_commission_rate"
	KindNoPayrollRecord        Kind = "no_payroll_record"
	KindIntegrityViolation     Kind = "integrity_violation"
	KindInternal               Kind = "internal_error"
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrReferenceNotFound      = &Error{Kind: KindReferenceNotFound}
	ErrInsufficientInventory  = &Error{Kind: KindInsufficientInventory}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrConcurrencyConflict    = &Error{Kind: KindConcurrencyConflict}
	ErrMissingCommissionRate  = &Error{Kind: KindMissingCommissionRate}
	ErrNoPayrollRecord        = &Error{Kind: KindNoPayrollRecord}
	ErrIntegrityViolation     = &Error{Kind: KindIntegrityViolation}
)

// Error is a domain failure naming the offending entity and field.
type Error struct {
	Kind    Kind
	Entity  string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the failure is a transient contention error.
func (e *Error) Retryable() bool { return e.Kind == KindConcurrencyConflict }

func newf(kind Kind, entity, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Validation(field, format string, args ...any) *Error {
	return newf(KindValidation, "", field, format, args...)
}

func NotFound(entity, field string, id any) *Error {
	return newf(KindReferenceNotFound, entity, field, "%s %v not found", entity, id)
}

func InsufficientInventory(field string, product any, requested, available int) *Error {
	return newf(KindInsufficientInventory, "inventory_record", field,
		"insufficient inventory for product %v: requested %d, available %d", product, requested, available)
}

func InvalidTransition(from, to string) *Error {
	return newf(KindInvalidStateTransition, "order", "status", "cannot move order from %s to %s", from, to)
}

func Conflict(entity string, err error) *Error {
	return &Error{Kind: KindConcurrencyConflict, Entity: entity, Message: entity + " was modified concurrently", Err: err}
}

func MissingCommissionRate(employee any) *Error {
	return newf(KindMissingCommissionRate, "sales_rep", "commission_rate", "sales rep %v has no commission rate", employee)
}

func NoPayrollRecord(employee any, start, end string) *Error {
	return newf(KindNoPayrollRecord, "payroll", "pay_period", "no payroll record for employee %v in period %s..%s", employee, start, end)
}

// KindOf extracts the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is a ConcurrencyConflict anywhere in its chain.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// Status maps a Kind to the HTTP status code returned to clients.
func Status(k Kind) int {
	switch k {
	case KindValidation, KindMissingCommissionRate, KindNoPayrollRecord:
		return http.StatusUnprocessableEntity
	case KindReferenceNotFound:
		return http.StatusNotFound
	case KindInsufficientInventory, KindInvalidStateTransition, KindConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail    string `json:"detail"`
	Kind      Kind   `json:"kind,omitempty"`
	Entity    string `json:"entity,omitempty"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Envelope converts err into a client-safe body. Foreign errors collapse into a
// generic internal error so storage details never leak.
func Envelope(err error) (int, *APIError) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, &APIError{Detail: "internal server error", Kind: KindInternal}
	}
	detail := e.Message
	if e.Field != "" {
		detail = e.Field + ": " + detail
	}
	return Status(e.Kind), &APIError{
		Detail:    detail,
		Kind:      e.Kind,
		Entity:    e.Entity,
		Field:     e.Field,
		Retryable: e.Retryable(),
	}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Kind   Kind              `json:"kind"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Kind: KindValidation, Fields: fields}
}
