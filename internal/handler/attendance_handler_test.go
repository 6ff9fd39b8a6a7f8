package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	"github.com/navaja-dev/barber-academy-api/internal/service"
	"github.com/navaja-dev/barber-academy-api/pkg/response"
)

type attendanceRepoStub struct {
	records []models.AttendanceRecord
	saved   int
}

func (s *attendanceRepoStub) ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []int64) ([]models.AttendanceRecord, error) {
	return s.records, nil
}

func (s *attendanceRepoStub) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	s.saved += len(records)
	return len(records), nil
}

type enrollmentListerStub struct {
	active []models.EnrollmentDetail
}

func (s *enrollmentListerStub) ListActiveByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	return s.active, nil
}

type courseReaderStub struct {
	courses map[int64]models.Course
}

func (s *courseReaderStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func stubCourse() models.Course {
	return models.Course{
		ID:         5,
		Name:       "Barbería Básica",
		StartDate:  "2025-01-06",
		Schedule:   "Lunes y Miércoles",
		ClassCount: 4,
		Capacity:   8,
	}
}

func newAttendanceTestHandler(repo *attendanceRepoStub, lister *enrollmentListerStub) *AttendanceHandler {
	courses := &courseReaderStub{courses: map[int64]models.Course{5: stubCourse()}}
	svc := service.NewAttendanceService(repo, lister, courses, nil, nil)
	return NewAttendanceHandler(svc, nil)
}

func TestAttendanceHandlerGrid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lister := &enrollmentListerStub{active: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: 1, StudentID: 10, CourseID: 5, Status: models.EnrollmentStatusActive}, StudentName: "Ana Gómez"},
	}}
	handler := newAttendanceTestHandler(&attendanceRepoStub{}, lister)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/5/attendance", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Grid(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)

	var grid models.AttendanceGrid
	require.NoError(t, json.Unmarshal(payload, &grid))
	require.Len(t, grid.ClassDates, 4)
	require.Len(t, grid.Rows, 1)
}

func TestAttendanceHandlerBulkSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &attendanceRepoStub{}
	handler := newAttendanceTestHandler(repo, &enrollmentListerStub{})

	body, _ := json.Marshal(service.BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records:   []service.BulkSaveRecord{{EnrollmentID: 1, Status: "ATTENDED"}},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/courses/5/attendance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.BulkSave(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, repo.saved)
}

func TestAttendanceHandlerBulkSaveEmptyBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &attendanceRepoStub{}
	handler := newAttendanceTestHandler(repo, &enrollmentListerStub{})

	body, _ := json.Marshal(service.BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records:   []service.BulkSaveRecord{{EnrollmentID: 0, Status: "ATTENDED"}},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/courses/5/attendance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.BulkSave(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Zero(t, repo.saved)
}

func TestAttendanceHandlerBadCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceTestHandler(&attendanceRepoStub{}, &enrollmentListerStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/abc/attendance", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Grid(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
