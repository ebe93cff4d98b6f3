package shifterrors

import (
	"net/http"

	"guardpost/internal/shared/apperror"
)

var (
	ErrInvalidSiteID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid site id",
		http.StatusBadRequest,
	)
	ErrInvalidGuardID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid guard id",
		http.StatusBadRequest,
	)
	ErrInvalidShiftTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shift type id",
		http.StatusBadRequest,
	)
	ErrInvalidTimeRange = apperror.New(
		apperror.CodeInvalidInput,
		"ends_at must be after starts_at",
		http.StatusBadRequest,
	)
	ErrInvalidInterval = apperror.New(
		apperror.CodeInvalidInput,
		"required_checkin_interval_mins must be positive",
		http.StatusBadRequest,
	)
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrGuardOverlap = apperror.New(
		apperror.CodeConflict,
		"guard already holds a shift in this period",
		http.StatusConflict,
	)
	ErrShiftTerminal = apperror.New(
		apperror.CodeInvalidState,
		"shift already reached a terminal state",
		http.StatusConflict,
	)
)
