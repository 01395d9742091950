package dto

import (
	"errors"
	"net/http"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/domain/shared"
)

// Error code constants returned in the error envelope.
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeUnauthorized  = "ERR_UNAUTHORIZED"
	ErrCodeForbidden     = "ERR_FORBIDDEN"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
	ErrCodeBusinessRule  = "ERR_BUSINESS_RULE"
	ErrCodeUnavailable   = "ERR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodeUnavailable:   http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps shared.DomainError codes to envelope codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"CONFLICT":      ErrCodeConflict,
	"VALIDATION":    ErrCodeValidation,
	"INVALID_STATE": ErrCodeInvalidState,
	"FORBIDDEN":     ErrCodeForbidden,
	"UNAUTHORIZED":  ErrCodeUnauthorized,
}

// MapDomainError resolves a domain error to an envelope code and message.
// Sentinel errors from the connector package take priority; coded domain
// errors come next; anything else is reported as internal without leaking
// the underlying message.
func MapDomainError(err error) (code, message string) {
	switch {
	case errors.Is(err, connector.ErrConnectorNotFound),
		errors.Is(err, connector.ErrConfigurationNotFound),
		errors.Is(err, connector.ErrVaultEntryNotFound):
		return ErrCodeNotFound, err.Error()

	case errors.Is(err, connector.ErrConnectorCodeConflict):
		return ErrCodeAlreadyExists, err.Error()

	case errors.Is(err, connector.ErrConnectorInUse),
		errors.Is(err, connector.ErrConfigurationInUse),
		errors.Is(err, connector.ErrVaultEntryInUse):
		return ErrCodeConflict, err.Error()

	case errors.Is(err, connector.ErrConnectorDisabled),
		errors.Is(err, connector.ErrConfigurationInactive):
		return ErrCodeInvalidState, err.Error()

	case errors.Is(err, connector.ErrCapabilityNotEnabled),
		errors.Is(err, connector.ErrCapabilityNotDeclared),
		errors.Is(err, connector.ErrCapabilityUnknown):
		return ErrCodeBusinessRule, err.Error()

	case errors.Is(err, connector.ErrConfigSchemaViolation),
		errors.Is(err, connector.ErrInvalidCapabilityCode):
		return ErrCodeValidation, err.Error()

	case errors.Is(err, connector.ErrVaultAccessDenied),
		errors.Is(err, connector.ErrVaultTenantMismatch):
		return ErrCodeForbidden, err.Error()

	case errors.Is(err, connector.ErrCircuitOpen):
		return ErrCodeUnavailable, err.Error()
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if mapped, ok := domainErrorCodeMapping[domainErr.Code]; ok {
			return mapped, domainErr.Message
		}
		return ErrCodeInternal, domainErr.Message
	}

	return ErrCodeInternal, "An unexpected error occurred"
}
