// Package domainerrors defines the coded error taxonomy for the ledger.
// Codes are stable machine-readable identifiers; messages are what the API
// surface shows to callers. Transports map codes to status codes, never the
// other way around.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error category.
type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL"

	// Compliance gate.
	CodePaused        Code = "PAUSED"
	CodeNotKYCd       Code = "NOT_KYCD"
	CodeNotAccredited Code = "NOT_ACCREDITED"
	CodeLockupActive  Code = "LOCKUP_ACTIVE"

	// Ledger accounting.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeInvariantViolation  Code = "INVARIANT_VIOLATION"

	// Revenue oracle.
	CodeInvalidPeriod             Code = "INVALID_PERIOD"
	CodeDuplicatePeriod           Code = "DUPLICATE_PERIOD"
	CodeEBITDAExceedsRevenue      Code = "EBITDA_EXCEEDS_REVENUE"
	CodeDistributionExceedsEBITDA Code = "DISTRIBUTION_EXCEEDS_EBITDA"
	CodeMissingEvidence           Code = "MISSING_EVIDENCE"
	CodeNoReports                 Code = "NO_REPORTS"

	// Yield engine.
	CodeAlreadyDistributed Code = "ALREADY_DISTRIBUTED"
	CodeInsufficientPool   Code = "INSUFFICIENT_POOL"
	CodeNoYield            Code = "NO_YIELD"
)

// Error is a coded domain error. The cause, when present, is reachable
// through errors.Unwrap for logging; the code and message are the contract.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. If the cause is
// already coded, its code wins: wrapping never masks a more specific
// classification made closer to the failure.
func Wrap(cause error, code Code, message string) *Error {
	var coded *Error
	if errors.As(cause, &coded) {
		code = coded.Code
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err carries the code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code, or CodeInternal for uncoded errors. Nil maps to
// the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message, falling back to the raw
// error text for uncoded errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
