package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for the client-side error taxonomy. Every failure that
// crosses a package boundary is translated into one of these.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthorization      = "AUTHORIZATION_ERROR"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeMissingAuthor      = "MISSING_AUTHOR"
	CodeRequestFailed      = "REQUEST_FAILED"
)

// AppError represents a custom application error.
type AppError struct {
	Code    string
	Message string
	// Fields carries field-level validation messages verbatim from the
	// remote API, when present.
	Fields []string
	// Status is the HTTP status of the failing response, 0 when the
	// error never reached the network.
	Status int
	Err    error
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewInvalidCredentialsError(message string) *AppError {
	if message == "" {
		message = "Login failed"
	}
	return &AppError{Code: CodeInvalidCredentials, Message: message}
}

func NewValidationError(message string, fields ...string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Fields: fields}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Code: CodeAuthorization, Message: message}
}

func NewSessionExpiredError() *AppError {
	return &AppError{Code: CodeSessionExpired, Message: "Session expired. Please log in again.", Status: 401}
}

func NewUploadFailedError(kind string, err error) *AppError {
	return &AppError{Code: CodeUploadFailed, Message: fmt.Sprintf("%s upload failed", kind), Err: err}
}

func NewMissingAuthorError() *AppError {
	return &AppError{Code: CodeMissingAuthor, Message: "User ID is missing. Please try logging in again."}
}

func NewRequestFailedError(message string, status int, err error) *AppError {
	if message == "" {
		message = "Request failed"
	}
	return &AppError{Code: CodeRequestFailed, Message: message, Status: status, Err: err}
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsSessionExpired reports whether err represents a detected 401 on an
// authenticated call. Only this kind is allowed to force a
// cross-cutting logout from inside an unrelated operation.
func IsSessionExpired(err error) bool {
	return HasCode(err, CodeSessionExpired)
}

func IsAuthorization(err error) bool {
	return HasCode(err, CodeAuthorization)
}

func IsUploadFailed(err error) bool {
	return HasCode(err, CodeUploadFailed)
}
