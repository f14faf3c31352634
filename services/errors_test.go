package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "job not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: job not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "identifier must be numeric",
			},
			wantMsg: "validation: identifier must be numeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewDomainError(ErrorTypeNotFound, "not found", nil), ErrJobNotFound, true},
		{"different error type", NewDomainError(ErrorTypeValidation, "validation", nil), ErrJobNotFound, false},
		{"not a domain error", NewDomainError(ErrorTypeNotFound, "not found", nil), errors.New("regular error"), false},
		{"wrapped unauthorized", fmt.Errorf("gate: %w", Unauthorized("expired", nil)), Unauthorized("missing token", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := ErrInvalidIdentifier.WithDetail("param", "customer_id").WithDetail("value", "12a")

	assert.Equal(t, "customer_id", err.Details["param"])
	assert.Equal(t, "12a", err.Details["value"])
	assert.Empty(t, ErrInvalidIdentifier.Details, "shared sentinel must not be mutated")
	assert.True(t, IsValidationError(err))
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrCustomerNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrJobNotFound), IsNotFoundError, true},
		{"validation", ErrInvalidIdentifier, IsValidationError, true},
		{"unauthorized", Unauthorized("missing token", nil), IsUnauthorizedError, true},
		{"forbidden", Forbidden("admin required"), IsForbiddenError, true},
		{"internal", WrapInternal("query failed", errors.New("boom")), IsInternalError, true},
		{"regular error", errors.New("regular"), IsInternalError, false},
		{"nil error", nil, IsNotFoundError, false},
		{"forbidden is not unauthorized", Forbidden("admin required"), IsUnauthorizedError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeForbidden, GetErrorType(Forbidden("admin required")))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
	assert.NotNil(t, GetErrorDetails(WrapInternal("query failed", nil)))
}
