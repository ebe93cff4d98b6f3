package attendance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guardpost/internal/attendance"
	attendanceerrors "guardpost/internal/attendance/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	recordFn     func(ctx context.Context, shiftID, guardID string, req attendance.RecordAttendanceRequest) (attendance.AttendanceResponse, error)
	getByShiftFn func(ctx context.Context, shiftID string) (attendance.AttendanceResponse, error)
}

func (f *fakeService) Record(ctx context.Context, shiftID, guardID string, req attendance.RecordAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.recordFn(ctx, shiftID, guardID, req)
}
func (f *fakeService) GetByShift(ctx context.Context, shiftID string) (attendance.AttendanceResponse, error) {
	return f.getByShiftFn(ctx, shiftID)
}

func TestHandler_Record(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shiftID := uuid.New().String()
	guardID := uuid.New().String()

	svc := &fakeService{
		recordFn: func(ctx context.Context, sid, gid string, req attendance.RecordAttendanceRequest) (attendance.AttendanceResponse, error) {
			assert.Equal(t, shiftID, sid)
			assert.Equal(t, guardID, gid)
			return attendance.AttendanceResponse{ID: uuid.New().String(), ShiftID: sid, Status: attendance.StatusOnTime}, nil
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", guardID)
	c.Params = gin.Params{{Key: "id", Value: shiftID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/shifts/"+shiftID+"/attendance", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Record(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), attendance.StatusOnTime)
}

func TestHandler_Record_Duplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shiftID := uuid.New().String()

	svc := &fakeService{
		recordFn: func(ctx context.Context, sid, gid string, req attendance.RecordAttendanceRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrAlreadyRecorded
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: shiftID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/shifts/"+shiftID+"/attendance", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Record(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_RECORDED")
}

func TestHandler_GetByShift(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shiftID := uuid.New().String()

	svc := &fakeService{
		getByShiftFn: func(ctx context.Context, sid string) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{ID: uuid.New().String(), ShiftID: sid}, nil
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: shiftID}}
	c.Request = httptest.NewRequest(http.MethodGet, "/shifts/"+shiftID+"/attendance", nil)
	h.GetByShift(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), shiftID)
}
