package checkin

import (
	"context"
	"testing"
	"time"

	"guardpost/internal/shift"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn         func(ctx context.Context, c *Checkin) error
	findAllByShiftFn func(ctx context.Context, shiftID string) ([]Checkin, error)
	existsInWindowFn func(ctx context.Context, shiftID string, from, to time.Time) (bool, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, c *Checkin) error {
	return f.createFn(ctx, c)
}
func (f *fakeRepo) FindAllByShift(ctx context.Context, shiftID string) ([]Checkin, error) {
	return f.findAllByShiftFn(ctx, shiftID)
}
func (f *fakeRepo) ExistsInWindow(ctx context.Context, shiftID string, from, to time.Time) (bool, error) {
	return f.existsInWindowFn(ctx, shiftID, from, to)
}

type fakeShiftRepo struct {
	findByIDForUpdateFn func(ctx context.Context, id string) (*shift.Shift, error)
	updateFn            func(ctx context.Context, s *shift.Shift) error
}

func (f *fakeShiftRepo) WithTx(tx *gorm.DB) shift.Repository { return f }
func (f *fakeShiftRepo) Create(ctx context.Context, s *shift.Shift) error {
	return nil
}
func (f *fakeShiftRepo) FindByID(ctx context.Context, id string) (*shift.Shift, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeShiftRepo) FindByIDForUpdate(ctx context.Context, id string) (*shift.Shift, error) {
	return f.findByIDForUpdateFn(ctx, id)
}
func (f *fakeShiftRepo) FindAllBySite(ctx context.Context, siteID string) ([]shift.Shift, error) {
	return nil, nil
}
func (f *fakeShiftRepo) FindOpen(ctx context.Context, startedBefore time.Time) ([]shift.Shift, error) {
	return nil, nil
}
func (f *fakeShiftRepo) Update(ctx context.Context, s *shift.Shift) error {
	return f.updateFn(ctx, s)
}
func (f *fakeShiftRepo) HasOverlappingAssignment(ctx context.Context, guardID string, startsAt, endsAt time.Time) (bool, error) {
	return false, nil
}

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	assert.NoError(t, err)
	return gdb, mock
}

func hourlyShift(guardID uuid.UUID) *shift.Shift {
	return &shift.Shift{
		ID:                          uuid.New(),
		SiteID:                      uuid.New(),
		GuardID:                     &guardID,
		StartsAt:                    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		EndsAt:                      time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		RequiredCheckinIntervalMins: 60,
		GraceMinutes:                5,
		Status:                      shift.StatusInProgress,
		CheckInStatus:               shift.CheckinStatusOnTime,
	}
}

func TestEvaluate(t *testing.T) {
	sh := hourlyShift(uuid.New())
	ctx := context.Background()

	cases := []struct {
		name          string
		now           time.Time
		prevSatisfied bool
		want          string
	}{
		{"before shift start", time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC), false, shift.CheckinStatusOnTime},
		{"after shift end", time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), false, shift.CheckinStatusLate},
		{"first window", time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC), false, shift.CheckinStatusOnTime},
		{"inside own window past previous deadline", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), false, shift.CheckinStatusOnTime},
		{"grace tail of unsatisfied window", time.Date(2026, 3, 10, 9, 2, 0, 0, time.UTC), false, shift.CheckinStatusLate},
		{"grace tail of satisfied window", time.Date(2026, 3, 10, 9, 2, 0, 0, time.UTC), true, shift.CheckinStatusOnTime},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{
				existsInWindowFn: func(ctx context.Context, shiftID string, from, to time.Time) (bool, error) {
					return tc.prevSatisfied, nil
				},
			}
			s := &service{repo: repo, logger: zap.NewNop()}

			got, err := s.evaluate(ctx, repo, sh, tc.now)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestService_Record(t *testing.T) {
	gdb, mock := newMockGorm(t)
	ctx := context.Background()

	guardID := uuid.New()
	sh := hourlyShift(guardID)
	sh.StartsAt = time.Now().UTC().Add(-30 * time.Minute)
	sh.EndsAt = sh.StartsAt.Add(8 * time.Hour)

	var saved Checkin
	var updatedShift *shift.Shift
	repo := &fakeRepo{
		createFn: func(ctx context.Context, c *Checkin) error { saved = *c; return nil },
		existsInWindowFn: func(ctx context.Context, shiftID string, from, to time.Time) (bool, error) {
			return true, nil
		},
	}
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { updatedShift = s; return nil },
	}

	svc := NewService(gdb, repo, shiftRepo)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Record(ctx, sh.ID.String(), guardID.String(), RecordCheckinRequest{})

	assert.NoError(t, err)
	assert.Equal(t, shift.CheckinStatusOnTime, resp.Status)
	assert.Equal(t, sh.ID, saved.ShiftID)
	assert.NotNil(t, updatedShift)
	assert.NotNil(t, updatedShift.LastHeartbeatAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Record_TerminalShiftStillAppends(t *testing.T) {
	gdb, mock := newMockGorm(t)
	ctx := context.Background()

	guardID := uuid.New()
	sh := hourlyShift(guardID)
	sh.Status = shift.StatusMissed

	created := false
	shiftUpdated := false
	repo := &fakeRepo{
		createFn: func(ctx context.Context, c *Checkin) error { created = true; return nil },
		existsInWindowFn: func(ctx context.Context, shiftID string, from, to time.Time) (bool, error) {
			return false, nil
		},
	}
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { shiftUpdated = true; return nil },
	}

	svc := NewService(gdb, repo, shiftRepo)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Record(ctx, sh.ID.String(), guardID.String(), RecordCheckinRequest{})

	assert.NoError(t, err)
	assert.True(t, created)
	assert.False(t, shiftUpdated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
