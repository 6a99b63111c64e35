package dto

import (
	"net/http"
	"strings"
)

// Domain error codes that cross the HTTP boundary. Application and domain
// services attach these to DomainError values; the handlers translate them
// to status codes here so the mapping lives in one place.

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ACCOUNT_LOCKED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeTransactionImmutable = "TRANSACTION_IMMUTABLE"
	ErrCodeConnectionInactive   = "CONNECTION_INACTIVE"
	ErrCodeConsentExpired       = "CONSENT_EXPIRED"
)

// Input error codes
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeValidation   = "VALIDATION_ERROR"
)

// Upstream provider error codes
const (
	ErrCodeProviderError       = "PROVIDER_ERROR"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
)

// General error codes
const (
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Codes of the
// form INVALID_* default to 400 unless listed here, so validation codes
// introduced by new domain rules need no entry.
var ErrorCodeHTTPStatus = map[string]int{
	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	"INVALID_SIGNATURE":       http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	"USER_NOT_FOUND":           http.StatusNotFound,
	"ACCOUNT_NOT_FOUND":        http.StatusNotFound,
	"CATEGORY_NOT_FOUND":       http.StatusNotFound,
	"TRANSACTION_NOT_FOUND":    http.StatusNotFound,
	"SCHEDULE_NOT_FOUND":       http.StatusNotFound,
	"LIABILITY_NOT_FOUND":      http.StatusNotFound,
	"CONNECTION_NOT_FOUND":     http.StatusNotFound,
	"CUSTOMER_NOT_FOUND":       http.StatusNotFound,
	"UNKNOWN_CUSTOMER":         http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeEmailTaken:          http.StatusConflict,
	"ALREADY_CLOSED":           http.StatusConflict,
	"ALREADY_ARCHIVED":         http.StatusConflict,
	"ALREADY_ACTIVE":           http.StatusConflict,
	"ALREADY_LOCKED":           http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeTransactionImmutable: http.StatusUnprocessableEntity,
	ErrCodeConnectionInactive:   http.StatusUnprocessableEntity,
	ErrCodeConsentExpired:       http.StatusUnprocessableEntity,
	"ATTACHMENT_MISSING":        http.StatusUnprocessableEntity,
	"ATTACHMENTS_DISABLED":      http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	// Upstream provider errors
	ErrCodeProviderError:       http.StatusBadGateway,
	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,

	// Rate limiting
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeInternal: http.StatusInternalServerError,
	"MAIL_FAILED":   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown INVALID_* codes map to 400; everything else unknown maps to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
