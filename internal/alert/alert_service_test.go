package alert

import (
	"context"
	"testing"
	"time"

	alerterrors "guardpost/internal/alert/errors"
	"guardpost/internal/attendance"
	kafka "guardpost/internal/messaging/kafka"
	"guardpost/internal/notify"
	"guardpost/internal/shift"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeAlertRepo struct {
	ensureOccasionFn       func(ctx context.Context, a *Alert) (bool, error)
	findByIDForUpdateFn    func(ctx context.Context, id string) (*Alert, error)
	findDetailByIDFn       func(ctx context.Context, id string) (*Alert, error)
	listUnresolvedBySiteFn func(ctx context.Context, siteID string) ([]Alert, error)
	updateFn               func(ctx context.Context, a *Alert) error
	stampAcknowledgedFn    func(ctx context.Context, id, adminID string, at time.Time) (bool, error)
}

func (f *fakeAlertRepo) WithTx(tx *gorm.DB) Repository { return f }
func (f *fakeAlertRepo) EnsureOccasion(ctx context.Context, a *Alert) (bool, error) {
	return f.ensureOccasionFn(ctx, a)
}
func (f *fakeAlertRepo) FindByIDForUpdate(ctx context.Context, id string) (*Alert, error) {
	return f.findByIDForUpdateFn(ctx, id)
}
func (f *fakeAlertRepo) FindDetailByID(ctx context.Context, id string) (*Alert, error) {
	return f.findDetailByIDFn(ctx, id)
}
func (f *fakeAlertRepo) ListUnresolvedBySite(ctx context.Context, siteID string) ([]Alert, error) {
	return f.listUnresolvedBySiteFn(ctx, siteID)
}
func (f *fakeAlertRepo) Update(ctx context.Context, a *Alert) error {
	return f.updateFn(ctx, a)
}
func (f *fakeAlertRepo) StampAcknowledged(ctx context.Context, id, adminID string, at time.Time) (bool, error) {
	return f.stampAcknowledgedFn(ctx, id, adminID, at)
}
func (f *fakeAlertRepo) Exists(ctx context.Context, id string) (bool, error) {
	return true, nil
}

type fakeShiftRepo struct {
	findByIDForUpdateFn func(ctx context.Context, id string) (*shift.Shift, error)
	findOpenFn          func(ctx context.Context, startedBefore time.Time) ([]shift.Shift, error)
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
	return f.findOpenFn(ctx, startedBefore)
}
func (f *fakeShiftRepo) Update(ctx context.Context, s *shift.Shift) error {
	return f.updateFn(ctx, s)
}
func (f *fakeShiftRepo) HasOverlappingAssignment(ctx context.Context, guardID string, startsAt, endsAt time.Time) (bool, error) {
	return false, nil
}

type fakeAttendanceRepo struct {
	createFn         func(ctx context.Context, a *attendance.Attendance) error
	existsForShiftFn func(ctx context.Context, shiftID string) (bool, error)
}

func (f *fakeAttendanceRepo) WithTx(tx *gorm.DB) attendance.Repository { return f }
func (f *fakeAttendanceRepo) Create(ctx context.Context, a *attendance.Attendance) error {
	return f.createFn(ctx, a)
}
func (f *fakeAttendanceRepo) FindByShift(ctx context.Context, shiftID string) (*attendance.Attendance, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAttendanceRepo) ExistsForShift(ctx context.Context, shiftID string) (bool, error) {
	return f.existsForShiftFn(ctx, shiftID)
}

type fakeOutbox struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *gorm.DB) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error   { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id, r string) error { return nil }

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	assert.NoError(t, err)
	return gdb, mock
}

func hourlyShift() *shift.Shift {
	guardID := uuid.New()
	return &shift.Shift{
		ID:                          uuid.New(),
		SiteID:                      uuid.New(),
		GuardID:                     &guardID,
		StartsAt:                    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		EndsAt:                      time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		RequiredCheckinIntervalMins: 60,
		GraceMinutes:                5,
		Status:                      shift.StatusInProgress,
		MissedCount:                 2,
	}
}

func unresolvedAlert(sh *shift.Shift, reason string, windowStart time.Time) *Alert {
	return &Alert{
		ID:          uuid.New(),
		ShiftID:     sh.ID,
		SiteID:      sh.SiteID,
		Reason:      reason,
		WindowStart: windowStart,
		CreatedAt:   windowStart.Add(time.Hour),
	}
}

func newTestService(
	gdb *gorm.DB,
	repo *fakeAlertRepo,
	shiftRepo *fakeShiftRepo,
	attRepo *fakeAttendanceRepo,
	outbox *fakeOutbox,
	hub *notify.Hub,
) Service {
	return NewService(gdb, repo, shiftRepo, attRepo, outbox, hub)
}

func TestService_Resolve_ForgiveMissedCheckin(t *testing.T) {
	gdb, mock := newMockGorm(t)
	ctx := context.Background()

	sh := hourlyShift()
	lastWindow := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	a := unresolvedAlert(sh, ReasonMissedCheckin, lastWindow)
	adminID := uuid.New().String()

	var stamped Alert
	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
		updateFn:            func(ctx context.Context, x *Alert) error { stamped = *x; return nil },
		findDetailByIDFn:    func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	var updatedShift *shift.Shift
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { updatedShift = s; return nil },
	}
	outbox := &fakeOutbox{}
	hub := notify.NewHub()
	sub := hub.Subscribe(notify.SiteTopic(sh.SiteID.String()), 4)
	defer sub.Close()

	svc := newTestService(gdb, repo, shiftRepo, &fakeAttendanceRepo{}, outbox, hub)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Resolve(ctx, a.ID.String(), adminID, ResolveAlertRequest{Outcome: OutcomeForgive, Note: "radio outage"})

	assert.NoError(t, err)
	assert.Equal(t, ResolutionForgiven, *stamped.ResolutionType)
	assert.NotNil(t, stamped.ResolvedAt)
	assert.Equal(t, "radio outage", *stamped.ResolutionNote)

	// forgiveness credits the miss back and closes out the final window
	assert.NotNil(t, updatedShift)
	assert.Equal(t, 1, updatedShift.MissedCount)
	assert.Equal(t, shift.StatusCompleted, updatedShift.Status)

	assert.Len(t, outbox.created, 1)
	assert.Equal(t, notify.EventAlertUpdated, outbox.created[0].EventType)

	select {
	case e := <-sub.C:
		assert.Equal(t, notify.EventAlertUpdated, e.Type)
	default:
		t.Fatal("expected alert_updated on the site topic")
	}

	assert.Equal(t, a.ID.String(), resp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Resolve_ForgiveMissedCheckin_EarlierWindowKeepsShiftOpen(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	earlyWindow := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a := unresolvedAlert(sh, ReasonMissedCheckin, earlyWindow)

	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
		updateFn:            func(ctx context.Context, x *Alert) error { return nil },
		findDetailByIDFn:    func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	var updatedShift *shift.Shift
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { updatedShift = s; return nil },
	}

	svc := newTestService(gdb, repo, shiftRepo, &fakeAttendanceRepo{}, &fakeOutbox{}, notify.NewHub())

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Resolve(context.Background(), a.ID.String(), uuid.New().String(), ResolveAlertRequest{Outcome: OutcomeForgive})

	assert.NoError(t, err)
	assert.Equal(t, 1, updatedShift.MissedCount)
	assert.Equal(t, shift.StatusInProgress, updatedShift.Status)
}

func TestService_Resolve_StandardMissedCheckin_StampsOnly(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	a := unresolvedAlert(sh, ReasonMissedCheckin, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	var stamped Alert
	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
		updateFn:            func(ctx context.Context, x *Alert) error { stamped = *x; return nil },
		findDetailByIDFn:    func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	shiftUpdated := false
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { shiftUpdated = true; return nil },
	}

	svc := newTestService(gdb, repo, shiftRepo, &fakeAttendanceRepo{}, &fakeOutbox{}, notify.NewHub())

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Resolve(context.Background(), a.ID.String(), uuid.New().String(), ResolveAlertRequest{Outcome: OutcomeResolve})

	assert.NoError(t, err)
	assert.Equal(t, ResolutionStandard, *stamped.ResolutionType)
	assert.False(t, shiftUpdated)
	assert.Equal(t, 2, sh.MissedCount)
}

func TestService_Resolve_StandardMissedAttendance(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	sh.Status = shift.StatusScheduled
	a := unresolvedAlert(sh, ReasonMissedAttendance, sh.StartsAt)

	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
		updateFn:            func(ctx context.Context, x *Alert) error { return nil },
		findDetailByIDFn:    func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	var updatedShift *shift.Shift
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { updatedShift = s; return nil },
	}
	var createdAttendance *attendance.Attendance
	attRepo := &fakeAttendanceRepo{
		createFn:         func(ctx context.Context, x *attendance.Attendance) error { createdAttendance = x; return nil },
		existsForShiftFn: func(ctx context.Context, shiftID string) (bool, error) { return false, nil },
	}

	svc := newTestService(gdb, repo, shiftRepo, attRepo, &fakeOutbox{}, notify.NewHub())

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Resolve(context.Background(), a.ID.String(), uuid.New().String(), ResolveAlertRequest{Outcome: OutcomeResolve})

	assert.NoError(t, err)
	assert.NotNil(t, createdAttendance)
	assert.Equal(t, attendance.StatusAbsent, createdAttendance.Status)
	assert.Equal(t, shift.StatusMissed, updatedShift.Status)
}

func TestService_Resolve_ForgiveMissedAttendance(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	sh.Status = shift.StatusScheduled
	a := unresolvedAlert(sh, ReasonMissedAttendance, sh.StartsAt)

	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
		updateFn:            func(ctx context.Context, x *Alert) error { return nil },
		findDetailByIDFn:    func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	var updatedShift *shift.Shift
	shiftRepo := &fakeShiftRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*shift.Shift, error) { return sh, nil },
		updateFn:            func(ctx context.Context, s *shift.Shift) error { updatedShift = s; return nil },
	}
	var createdAttendance *attendance.Attendance
	attRepo := &fakeAttendanceRepo{
		createFn:         func(ctx context.Context, x *attendance.Attendance) error { createdAttendance = x; return nil },
		existsForShiftFn: func(ctx context.Context, shiftID string) (bool, error) { return false, nil },
	}

	svc := newTestService(gdb, repo, shiftRepo, attRepo, &fakeOutbox{}, notify.NewHub())

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Resolve(context.Background(), a.ID.String(), uuid.New().String(), ResolveAlertRequest{Outcome: OutcomeForgive, Note: "guard called in"})

	assert.NoError(t, err)
	assert.NotNil(t, createdAttendance)
	assert.Equal(t, attendance.StatusLate, createdAttendance.Status)
	assert.Equal(t, "ADMIN_BACKFILL", createdAttendance.Source)
	assert.Equal(t, shift.StatusInProgress, updatedShift.Status)
}

func TestService_Resolve_AlreadyResolved(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	a := unresolvedAlert(sh, ReasonMissedCheckin, sh.StartsAt)
	resolvedAt := time.Now().UTC()
	a.ResolvedAt = &resolvedAt

	repo := &fakeAlertRepo{
		findByIDForUpdateFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}

	svc := newTestService(gdb, repo, &fakeShiftRepo{}, &fakeAttendanceRepo{}, &fakeOutbox{}, notify.NewHub())

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Resolve(context.Background(), a.ID.String(), uuid.New().String(), ResolveAlertRequest{Outcome: OutcomeResolve})

	assert.ErrorIs(t, err, alerterrors.ErrAlreadyResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Acknowledge_Repeatable(t *testing.T) {
	gdb, mock := newMockGorm(t)

	sh := hourlyShift()
	a := unresolvedAlert(sh, ReasonMissedCheckin, sh.StartsAt)

	stampCalls := 0
	repo := &fakeAlertRepo{
		stampAcknowledgedFn: func(ctx context.Context, id, adminID string, at time.Time) (bool, error) {
			stampCalls++
			return stampCalls == 1, nil
		},
		findDetailByIDFn: func(ctx context.Context, id string) (*Alert, error) { return a, nil },
	}
	outbox := &fakeOutbox{}
	hub := notify.NewHub()
	sub := hub.Subscribe(notify.SiteTopic(sh.SiteID.String()), 4)
	defer sub.Close()

	svc := newTestService(gdb, repo, &fakeShiftRepo{}, &fakeAttendanceRepo{}, outbox, hub)

	adminID := uuid.New().String()

	// first acknowledgement stamps and publishes
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Acknowledge(context.Background(), a.ID.String(), adminID)
	assert.NoError(t, err)
	assert.Len(t, outbox.created, 1)

	// second is a no-op that still returns current detail
	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Acknowledge(context.Background(), a.ID.String(), adminID)
	assert.NoError(t, err)
	assert.Equal(t, a.ID.String(), resp.ID)
	assert.Len(t, outbox.created, 1)

	events := 0
	for {
		select {
		case <-sub.C:
			events++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 1, events)
}

func TestService_UnresolvedEvents(t *testing.T) {
	gdb, _ := newMockGorm(t)

	sh := hourlyShift()
	rows := []Alert{
		*unresolvedAlert(sh, ReasonMissedCheckin, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)),
		*unresolvedAlert(sh, ReasonMissedAttendance, sh.StartsAt),
	}
	repo := &fakeAlertRepo{
		listUnresolvedBySiteFn: func(ctx context.Context, siteID string) ([]Alert, error) { return rows, nil },
	}

	svc := newTestService(gdb, repo, &fakeShiftRepo{}, &fakeAttendanceRepo{}, &fakeOutbox{}, notify.NewHub())

	events, err := svc.UnresolvedEvents(context.Background(), sh.SiteID.String())
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, notify.EventAlertCreated, e.Type)
	}
}
