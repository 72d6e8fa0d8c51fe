// Package domainerrors defines the coded error taxonomy surfaced to callers.
//
// Stores and infrastructure return pkg/sentinel errors (facts about resources);
// services translate those into coded errors here. Transport translates codes
// into HTTP statuses in exactly one place (httputil.WriteError).
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure kind. Codes are part of the API contract: they are
// serialized verbatim in error envelopes, so renaming one is a breaking change.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"

	// Wallet connector failures.
	CodeWalletUnavailable  Code = "wallet_unavailable"
	CodeUserRejected       Code = "user_rejected"
	CodeWalletNotConnected Code = "wallet_not_connected"

	// Notarization failures.
	CodeHashMismatch        Code = "hash_mismatch"
	CodeOperationInProgress Code = "operation_in_progress"
	CodeAlreadyAnchored     Code = "already_anchored"

	// Ledger failures.
	CodeSignerRejected    Code = "signer_rejected"
	CodeTransactionRevert Code = "transaction_revert"
	CodeTimeout           Code = "timeout"
	CodeNetworkError      Code = "network_error"

	// Confirmed on chain but the record patch failed. Distinct from failure:
	// the on-chain proof exists and reconciliation can be retried.
	CodeReconciliationFailed Code = "reconciliation_failed"
)

// Error is a coded domain error. Wrapped causes stay reachable via Unwrap so
// errors.Is/As keep working across layers.
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

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error wrapping an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode at service call sites.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from an error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status used by the JSON error envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyAnchored, CodeOperationInProgress:
		return http.StatusConflict
	case CodeWalletUnavailable, CodeWalletNotConnected:
		return http.StatusPreconditionFailed
	case CodeUserRejected, CodeSignerRejected:
		return http.StatusForbidden
	case CodeHashMismatch:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNetworkError:
		return http.StatusBadGateway
	case CodeTransactionRevert:
		return http.StatusBadGateway
	case CodeReconciliationFailed:
		// The notarization itself succeeded; the envelope carries the warning.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
