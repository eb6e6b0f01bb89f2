package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable reason code surfaced to callers.
type ErrorCode string

const (
	// Authentication failures
	CodeUnknownIdentifier ErrorCode = "AUTH_UNKNOWN_IDENTIFIER"
	CodeWrongPassword     ErrorCode = "AUTH_WRONG_PASSWORD"
	CodeLocked            ErrorCode = "AUTH_LOCKED"
	CodeDisabled          ErrorCode = "AUTH_DISABLED"

	// Authorization failures
	CodeInsufficientRole ErrorCode = "AUTHZ_INSUFFICIENT_ROLE"
	CodeNotOwnDepartment ErrorCode = "AUTHZ_NOT_OWN_DEPARTMENT"
	CodeNoDelegatedGrant ErrorCode = "AUTHZ_NO_DELEGATED_GRANT"

	// Crypto failures
	CodeDecryptionError    ErrorCode = "CRYPTO_DECRYPTION_ERROR"
	CodeInvalidKeyMaterial ErrorCode = "CRYPTO_INVALID_KEY_MATERIAL"

	// Policy violations
	CodeWeakPassword ErrorCode = "POLICY_WEAK_PASSWORD"
	CodeSamePassword ErrorCode = "POLICY_SAME_PASSWORD"

	// Integrity failures
	CodeTagMismatch ErrorCode = "INTEGRITY_TAG_MISMATCH"

	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	CodeInternal   ErrorCode = "INTERNAL"
)

// AppError carries a reason code the handler layer can map to a
// response without parsing message text.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Violations is populated only for CodeWeakPassword.
	Violations []string `json:"violations,omitempty"`
	Err        error    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on the reason code so comparisons with errors.Is work
// across wrapping.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the reason code from any error in the chain,
// defaulting to CodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func UnknownIdentifier() *AppError {
	return New(CodeUnknownIdentifier, "invalid credentials")
}

func WrongPassword() *AppError {
	return New(CodeWrongPassword, "invalid credentials")
}

func Locked() *AppError {
	return New(CodeLocked, "account is locked, try again later")
}

func Disabled() *AppError {
	return New(CodeDisabled, "account is disabled")
}

func InsufficientRole() *AppError {
	return New(CodeInsufficientRole, "insufficient role")
}

func NotOwnDepartment() *AppError {
	return New(CodeNotOwnDepartment, "not authorized for this department")
}

func NoDelegatedGrant() *AppError {
	return New(CodeNoDelegatedGrant, "no delegated grant for this action")
}

func WeakPassword(violations []string) *AppError {
	return &AppError{
		Code:       CodeWeakPassword,
		Message:    "password does not meet policy: " + strings.Join(violations, "; "),
		Violations: violations,
	}
}

func SamePassword() *AppError {
	return New(CodeSamePassword, "new password must differ from the current one")
}

func DecryptionError(err error) *AppError {
	return Wrap(CodeDecryptionError, "decryption failed", err)
}

func InvalidKeyMaterial(err error) *AppError {
	return Wrap(CodeInvalidKeyMaterial, "invalid key material", err)
}

func TagMismatch() *AppError {
	return New(CodeTagMismatch, "integrity tag mismatch")
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func Internal(err error) *AppError {
	return Wrap(CodeInternal, "internal error", err)
}
