package attendance

import (
	"errors"
	"testing"

	attendanceerrors "guardpost/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapRepositoryError(t *testing.T) {
	assert.NoError(t, mapRepositoryError(nil))

	assert.ErrorIs(t,
		mapRepositoryError(gorm.ErrRecordNotFound),
		attendanceerrors.ErrShiftNotFound,
	)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_attendance_shift"}
	assert.ErrorIs(t, mapRepositoryError(pgErr), attendanceerrors.ErrAlreadyRecorded)

	// message-only fallback for drivers that flatten the error
	flat := errors.New(`ERROR: duplicate key value violates unique constraint "uq_attendance_shift"`)
	assert.ErrorIs(t, mapRepositoryError(flat), attendanceerrors.ErrAlreadyRecorded)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapRepositoryError(other))
}
