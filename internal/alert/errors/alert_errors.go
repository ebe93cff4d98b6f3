package alerterrors

import (
	"net/http"

	"guardpost/internal/shared/apperror"
)

var (
	ErrInvalidAlertID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid alert id",
		http.StatusBadRequest,
	)
	ErrInvalidSiteID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid site id",
		http.StatusBadRequest,
	)
	ErrInvalidAdminID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid admin id",
		http.StatusBadRequest,
	)
	ErrInvalidOutcome = apperror.New(
		apperror.CodeInvalidInput,
		"outcome must be resolve or forgive",
		http.StatusBadRequest,
	)
	ErrAlertNotFound = apperror.New(
		apperror.CodeNotFound,
		"alert not found",
		http.StatusNotFound,
	)
	ErrAlreadyResolved = apperror.New(
		apperror.CodeAlreadyResolved,
		"alert is already resolved",
		http.StatusConflict,
	)
	// ErrUnsupportedReason marks a programming defect: an alert row carrying
	// a reason the resolution engine does not know. Fail loud, never default.
	ErrUnsupportedReason = apperror.New(
		apperror.CodeInternalError,
		"unsupported alert reason",
		http.StatusInternalServerError,
	)
)
