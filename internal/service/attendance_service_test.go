package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records  []models.AttendanceRecord
	upserted [][]models.AttendanceRecord
}

func (m *mockAttendanceRepo) ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []int64) ([]models.AttendanceRecord, error) {
	allowed := make(map[int64]struct{}, len(enrollmentIDs))
	for _, id := range enrollmentIDs {
		allowed[id] = struct{}{}
	}
	var out []models.AttendanceRecord
	for _, rec := range m.records {
		if _, ok := allowed[rec.EnrollmentID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	m.upserted = append(m.upserted, records)
	m.records = append(m.records, records...)
	return len(records), nil
}

type mockActiveLister struct {
	active []models.EnrollmentDetail
}

func (m *mockActiveLister) ListActiveByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	return m.active, nil
}

func activeEnrollment(id, studentID int64, name string) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:  models.Enrollment{ID: id, StudentID: studentID, CourseID: 5, Status: models.EnrollmentStatusActive},
		StudentName: name,
	}
}

func TestAttendanceServiceBuildGrid(t *testing.T) {
	note := "llegó tarde"
	repo := &mockAttendanceRepo{records: []models.AttendanceRecord{
		{EnrollmentID: 1, ClassDate: "2025-01-06", Status: models.AttendanceStatusAttended},
		{EnrollmentID: 2, ClassDate: "2025-01-08", Status: models.AttendanceStatusAbsent, Note: &note},
	}}
	lister := &mockActiveLister{active: []models.EnrollmentDetail{
		activeEnrollment(1, 10, "Ana Gómez"),
		activeEnrollment(2, 11, "Luis Pérez"),
		activeEnrollment(3, 12, "Marta Díaz"),
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, lister, courses, nil, nil)

	grid, err := svc.BuildGrid(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"}, grid.ClassDates)
	require.Len(t, grid.Rows, 3)

	// Every cell of the cross product is present.
	for _, row := range grid.Rows {
		require.Len(t, row.Cells, 4)
	}
	require.Equal(t, models.AttendanceStatusAttended, grid.Rows[0].Cells["2025-01-06"])
	require.Equal(t, models.AttendanceStatusUnmarked, grid.Rows[0].Cells["2025-01-08"])
	require.Equal(t, models.AttendanceStatusAbsent, grid.Rows[1].Cells["2025-01-08"])
	require.Equal(t, "llegó tarde", grid.Rows[1].Notes["2025-01-08"])
	require.Equal(t, models.AttendanceStatusUnmarked, grid.Rows[2].Cells["2025-01-15"])
}

func TestAttendanceServiceBuildGridExcludesInactiveEnrollments(t *testing.T) {
	repo := &mockAttendanceRepo{records: []models.AttendanceRecord{
		{EnrollmentID: 9, ClassDate: "2025-01-06", Status: models.AttendanceStatusAttended},
	}}
	lister := &mockActiveLister{active: []models.EnrollmentDetail{
		activeEnrollment(1, 10, "Ana Gómez"),
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, lister, courses, nil, nil)

	grid, err := svc.BuildGrid(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, grid.Rows, 1)
	require.Equal(t, models.AttendanceStatusUnmarked, grid.Rows[0].Cells["2025-01-06"])
}

func TestAttendanceServiceBulkSave(t *testing.T) {
	repo := &mockAttendanceRepo{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, &mockActiveLister{}, courses, nil, nil)

	result, err := svc.BulkSave(context.Background(), 5, BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records: []BulkSaveRecord{
			{EnrollmentID: 1, Status: "attended"},
			{EnrollmentID: 2, Status: "Absent"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Saved)
	require.Zero(t, result.Dropped)
	require.Len(t, repo.upserted, 1)
	require.Equal(t, models.AttendanceStatusAttended, repo.upserted[0][0].Status)
	require.Equal(t, models.AttendanceStatusAbsent, repo.upserted[0][1].Status)
}

func TestAttendanceServiceBulkSaveDropsInvalidRecords(t *testing.T) {
	repo := &mockAttendanceRepo{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, &mockActiveLister{}, courses, nil, nil)

	result, err := svc.BulkSave(context.Background(), 5, BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records: []BulkSaveRecord{
			{EnrollmentID: 1, Status: "ATTENDED"},
			{EnrollmentID: 0, Status: "ATTENDED"},
			{EnrollmentID: 2, Status: "PRESENT"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Saved)
	require.Equal(t, 2, result.Dropped)
}

func TestAttendanceServiceBulkSaveEmptyBatch(t *testing.T) {
	repo := &mockAttendanceRepo{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, &mockActiveLister{}, courses, nil, nil)

	_, err := svc.BulkSave(context.Background(), 5, BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records: []BulkSaveRecord{
			{EnrollmentID: -1, Status: "ATTENDED"},
			{EnrollmentID: 2, Status: "UNMARKED"},
		},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrEmptyBatch.Code, appErr.Code)
	require.Empty(t, repo.upserted)
}

func TestAttendanceServiceBulkSaveValidation(t *testing.T) {
	repo := &mockAttendanceRepo{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, &mockActiveLister{}, courses, nil, nil)

	_, err := svc.BulkSave(context.Background(), 5, BulkSaveRequest{})
	require.Error(t, err)

	var blankErr *appErrors.Error
	require.True(t, errors.As(err, &blankErr))
	require.Equal(t, appErrors.ErrValidation.Code, blankErr.Code)

	_, err = svc.BulkSave(context.Background(), 5, BulkSaveRequest{ClassDate: "  "})
	require.Error(t, err)

	_, err = svc.BulkSave(context.Background(), 5, BulkSaveRequest{ClassDate: "06/01/2025"})
	require.Error(t, err)

	_, err = svc.BulkSave(context.Background(), 99, BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records:   []BulkSaveRecord{{EnrollmentID: 1, Status: "ATTENDED"}},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Empty(t, repo.upserted)
}

func TestAttendanceServiceBulkSaveIdempotent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewAttendanceService(repo, &mockActiveLister{}, courses, nil, nil)

	req := BulkSaveRequest{
		ClassDate: "2025-01-06",
		Records:   []BulkSaveRecord{{EnrollmentID: 1, Status: "ATTENDED"}},
	}
	first, err := svc.BulkSave(context.Background(), 5, req)
	require.NoError(t, err)
	second, err := svc.BulkSave(context.Background(), 5, req)
	require.NoError(t, err)
	require.Equal(t, first.Saved, second.Saved)
	require.Len(t, repo.upserted, 2)
}
