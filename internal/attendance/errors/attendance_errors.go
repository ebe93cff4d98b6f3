package attendanceerrors

import (
	"net/http"

	"guardpost/internal/shared/apperror"
)

var (
	ErrInvalidShiftID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shift id",
		http.StatusBadRequest,
	)
	ErrInvalidGuardID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid guard id",
		http.StatusBadRequest,
	)
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrNotAssignedGuard = apperror.New(
		apperror.CodeForbidden,
		"guard is not assigned to this shift",
		http.StatusForbidden,
	)
	ErrAttendanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance not found",
		http.StatusNotFound,
	)
	ErrAlreadyRecorded = apperror.New(
		apperror.CodeAlreadyRecorded,
		"attendance already recorded for this shift",
		http.StatusConflict,
	)
)
