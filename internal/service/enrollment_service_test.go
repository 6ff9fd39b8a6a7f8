package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[int64]models.Enrollment
	details     map[int64]models.EnrollmentDetail
	createErr   error
	created     *models.Enrollment
	deactivated []int64
	nextID      int64
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var list []models.EnrollmentDetail
	for _, d := range m.details {
		list = append(list, d)
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) CreateWithCapacityCheck(ctx context.Context, enrollment *models.Enrollment, capacity int) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.enrollments == nil {
		m.enrollments = make(map[int64]models.Enrollment)
	}
	m.nextID++
	enrollment.ID = m.nextID
	enrollment.Status = models.EnrollmentStatusActive
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) Deactivate(ctx context.Context, id int64) error {
	if e, ok := m.enrollments[id]; ok {
		e.Status = models.EnrollmentStatusInactive
		m.enrollments[id] = e
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockStudentReader struct {
	students map[int64]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[int64]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockCacheInvalidator struct {
	patterns []string
}

func (m *mockCacheInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func testCourse() models.Course {
	return models.Course{
		ID:         5,
		Name:       "Barbería Básica",
		StartDate:  "2025-01-06",
		Schedule:   "Lunes y Miércoles",
		ClassCount: 4,
		Capacity:   8,
	}
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[int64]models.Student{
		10: {ID: 10, FullName: "Ana Gómez", Active: true},
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	cache := &mockCacheInvalidator{}
	svc := NewEnrollmentService(repo, students, courses, cache, nil, nil)

	detail, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: 10, CourseID: 5})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusActive, detail.Status)
	require.NotNil(t, repo.created)
	require.Equal(t, int64(10), repo.created.StudentID)
	require.Equal(t, []string{"courses:*"}, cache.patterns)
}

func TestEnrollmentServiceEnrollInactiveStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[int64]models.Student{
		10: {ID: 10, FullName: "Ana Gómez", Active: false},
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: 10, CourseID: 5})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Nil(t, repo.created)
}

func TestEnrollmentServiceEnrollStudentNotFound(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: 99, CourseID: 5})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollCapacityExceeded(t *testing.T) {
	repo := &mockEnrollmentRepo{
		createErr: appErrors.Clone(appErrors.ErrCapacityExceeded, "course 5 is full (8/8)"),
	}
	students := &mockStudentReader{students: map[int64]models.Student{
		10: {ID: 10, FullName: "Ana Gómez", Active: true},
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{5: testCourse()}}
	cache := &mockCacheInvalidator{}
	svc := NewEnrollmentService(repo, students, courses, cache, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: 10, CourseID: 5})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	require.Empty(t, cache.patterns)
}

func TestEnrollmentServiceUnenroll(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[int64]models.Enrollment{
			3: {ID: 3, StudentID: 10, CourseID: 5, Status: models.EnrollmentStatusActive},
		},
	}
	cache := &mockCacheInvalidator{}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockCourseReader{}, cache, nil, nil)

	detail, err := svc.Unenroll(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusInactive, detail.Status)
	require.Equal(t, []int64{3}, repo.deactivated)
	require.Equal(t, []string{"courses:*"}, cache.patterns)
}

func TestEnrollmentServiceUnenrollAlreadyInactive(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[int64]models.Enrollment{
			3: {ID: 3, StudentID: 10, CourseID: 5, Status: models.EnrollmentStatusInactive},
		},
	}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockCourseReader{}, nil, nil, nil)

	_, err := svc.Unenroll(context.Background(), 3)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Empty(t, repo.deactivated)
}
