package app

import (
	"errors"
	"fmt"
	"net/http"

	"animalzone/site/internal/docstore"
	"animalzone/site/internal/relay"
	"animalzone/site/internal/section"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *relay.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please check the highlighted fields", validationErr.Fields
	case errors.Is(err, section.ErrNoFile):
		return http.StatusBadRequest, "FILE_REQUIRED", "Please choose a PDF file", nil
	case errors.Is(err, section.ErrNotPDF):
		return http.StatusUnsupportedMediaType, "NOT_PDF", "Please upload a valid PDF file.", nil
	case errors.Is(err, section.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "The file is too large", nil
	case errors.Is(err, section.ErrRead):
		return http.StatusBadRequest, "READ_FAILED", "The file could not be read", nil
	case errors.Is(err, section.ErrBusy):
		return http.StatusConflict, "BUSY", "Another operation is in progress", nil
	case errors.Is(err, docstore.ErrWrite):
		return http.StatusInsufficientStorage, "STORAGE_WRITE_FAILED", "Your PDFs could not be saved", nil
	case errors.Is(err, docstore.ErrRead):
		return http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is unavailable", nil
	case errors.Is(err, relay.ErrNotConfigured):
		return http.StatusServiceUnavailable, "RELAY_UNAVAILABLE", "Messages cannot be sent right now", nil
	case errors.Is(err, relay.ErrRejected), errors.Is(err, relay.ErrUnreachable):
		return http.StatusBadGateway, "RELAY_FAILED", "Your message could not be delivered", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
