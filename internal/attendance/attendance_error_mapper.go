package attendance

import (
	"errors"
	"strings"

	attendanceerrors "guardpost/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// mapRepositoryError translates storage-level failures into domain errors.
// The unique index on shift_id is the authoritative guard against two
// concurrent submissions; a 23505 here means the other writer won.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendanceerrors.ErrShiftNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_attendance_shift" {
			return attendanceerrors.ErrAlreadyRecorded
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_attendance_shift") {
		return attendanceerrors.ErrAlreadyRecorded
	}

	return err
}
