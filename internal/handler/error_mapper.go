package handler

import (
	"errors"

	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Services return ProblemDetails directly for request validation
	var pd *model.ProblemDetails
	if errors.As(err, &pd) {
		return pd
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotGroupLeader),
		errors.Is(err, service.ErrNotGroupMember),
		errors.Is(err, service.ErrNotMessageAuthor),
		errors.Is(err, service.ErrAccountBlocked):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrGroupNotFound):
		return model.NewNotFoundError("group")
	case errors.Is(err, service.ErrMessageNotFound):
		return model.NewNotFoundError("chat message")

	// ===== Payment Errors → 402 =====
	case errors.Is(err, service.ErrNotEnoughGems):
		return model.NewPaymentRequiredError(err.Error())

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewValidationError([]model.FieldError{
			{Field: "email", Message: "invalid email format"},
		})
	case errors.Is(err, service.ErrPasswordRequired):
		return model.NewValidationError([]model.FieldError{
			{Field: "password", Message: "password is required"},
		})
	case errors.Is(err, service.ErrPasswordTooShort):
		return model.NewValidationError([]model.FieldError{
			{Field: "password", Message: "password must be at least 8 characters"},
		})
	case errors.Is(err, service.ErrInvalidTier):
		return model.NewValidationError([]model.FieldError{
			{Field: "contributor.level", Message: "contributor tier out of range"},
		})

	// ===== Bad Request Errors → 400 =====
	case errors.Is(err, service.ErrAlreadyInParty),
		errors.Is(err, service.ErrAlreadyInGroup),
		errors.Is(err, service.ErrAlreadyInvited),
		errors.Is(err, service.ErrPartyInvitePending),
		errors.Is(err, service.ErrNotMemberOrInvited),
		errors.Is(err, service.ErrTavernRestricted),
		errors.Is(err, service.ErrCannotRemoveSelf),
		errors.Is(err, service.ErrInvalidItemPath):
		return model.NewBadRequestError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
