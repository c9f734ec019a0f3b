package app

import (
	"errors"
	"fmt"
	"net/http"

	"todo/api/internal/validate"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func storageError(err error) *DomainError {
	return &DomainError{
		Status:  http.StatusInternalServerError,
		Code:    "STORAGE_ERROR",
		Message: "Storage error",
		Err:     err,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *validate.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationErr.Error(), map[string]any{"field": validationErr.Field}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", map[string]any{"limit": tooLarge.Limit}
	}
	var bodyErr *validate.BodyError
	if errors.As(err, &bodyErr) {
		return http.StatusBadRequest, "INVALID_BODY", "Invalid request body", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
