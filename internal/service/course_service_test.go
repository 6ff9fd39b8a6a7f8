package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type mockCourseRepo struct {
	details   []models.CourseDetail
	courses   map[int64]models.Course
	listCalls int
	created   *models.Course
	nextID    int64
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	m.listCalls++
	return m.details, len(m.details), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	for _, d := range m.details {
		if d.ID == id {
			detail := d
			return &detail, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	m.nextID++
	course.ID = m.nextID
	if m.courses == nil {
		m.courses = make(map[int64]models.Course)
	}
	m.courses[course.ID] = *course
	m.details = append(m.details, models.CourseDetail{Course: *course})
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	for i := range m.details {
		if m.details[i].ID == course.ID {
			m.details[i].Course = *course
		}
	}
	return nil
}

type mockInstructorReader struct {
	instructors map[int64]models.Instructor
}

func (m *mockInstructorReader) FindByID(ctx context.Context, id int64) (*models.Instructor, error) {
	if i, ok := m.instructors[id]; ok {
		return &i, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseCache struct {
	store    map[string][]byte
	gets     int
	sets     int
	patterns []string
}

func (m *mockCourseCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	data, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *mockCourseCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = data
	return nil
}

func (m *mockCourseCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func courseDetail(id int64, name, startDate string, classCount, activeCount int) models.CourseDetail {
	return models.CourseDetail{
		Course: models.Course{
			ID:         id,
			Name:       name,
			StartDate:  startDate,
			Schedule:   "Lunes y Miércoles",
			ClassCount: classCount,
			Capacity:   8,
		},
		ActiveCount: activeCount,
	}
}

func fixedCourseService(repo *mockCourseRepo, cache *mockCourseCache, today string) *CourseService {
	var c courseCache
	if cache != nil {
		c = cache
	}
	svc := NewCourseService(repo, &mockInstructorReader{}, c, nil, time.Minute, nil, nil)
	svc.now = func() time.Time {
		ts, _ := time.Parse("2006-01-02", today)
		return ts
	}
	return svc
}

func TestCourseServiceListDerivesStatus(t *testing.T) {
	repo := &mockCourseRepo{details: []models.CourseDetail{
		courseDetail(1, "Futuro", "2025-02-03", 4, 2),
		courseDetail(2, "En curso", "2025-01-06", 4, 3),
		courseDetail(3, "Vacío", "2025-01-06", 4, 0),
		courseDetail(4, "Terminado", "2024-11-04", 4, 5),
	}}
	svc := fixedCourseService(repo, nil, "2025-01-10")

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, pagination.TotalCount)

	byName := make(map[string]models.CourseStatus, len(courses))
	for _, c := range courses {
		byName[c.Name] = c.Status
	}
	require.Equal(t, models.CourseStatusScheduled, byName["Futuro"])
	require.Equal(t, models.CourseStatusInProgress, byName["En curso"])
	require.Equal(t, models.CourseStatusCancelled, byName["Vacío"])
	require.Equal(t, models.CourseStatusCompleted, byName["Terminado"])
}

func TestCourseServiceListStatusFilter(t *testing.T) {
	repo := &mockCourseRepo{details: []models.CourseDetail{
		courseDetail(1, "Futuro", "2025-02-03", 4, 2),
		courseDetail(2, "En curso", "2025-01-06", 4, 3),
	}}
	svc := fixedCourseService(repo, nil, "2025-01-10")

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Status: models.CourseStatusInProgress})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "En curso", courses[0].Name)
	require.Equal(t, 1, pagination.TotalCount)
}

func TestCourseServiceListCachePopulatedOnMiss(t *testing.T) {
	repo := &mockCourseRepo{details: []models.CourseDetail{
		courseDetail(2, "En curso", "2025-01-06", 4, 3),
	}}
	cache := &mockCourseCache{}
	svc := fixedCourseService(repo, cache, "2025-01-10")

	_, _, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, cache.gets)
	require.Equal(t, 1, cache.sets)
	require.Equal(t, 1, repo.listCalls)
}

func TestCourseServiceListRecordsCacheMetrics(t *testing.T) {
	repo := &mockCourseRepo{details: []models.CourseDetail{
		courseDetail(2, "En curso", "2025-01-06", 4, 3),
	}}
	cache := &mockCourseCache{}
	metrics := NewMetricsService()
	svc := NewCourseService(repo, &mockInstructorReader{}, cache, metrics, time.Minute, nil, nil)
	svc.now = func() time.Time {
		ts, _ := time.Parse("2006-01-02", "2025-01-10")
		return ts
	}

	_, _, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.cacheHits))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.dbQueryDuration))

	_, _, err = svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	require.Equal(t, 1, repo.listCalls)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	svc := fixedCourseService(&mockCourseRepo{}, nil, "2025-01-10")

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := fixedCourseService(repo, nil, "2025-01-10")

	_, err := svc.Create(context.Background(), CourseRequest{
		Name: "Sin fecha", StartDate: "06/01/2025", Schedule: "Lunes", ClassCount: 4, Capacity: 8,
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CourseRequest{
		Name: "Sin días", StartDate: "2025-01-06", Schedule: "cuando se pueda", ClassCount: 4, Capacity: 8,
	})
	require.Error(t, err)
	require.Nil(t, repo.created)
}

func TestCourseServiceCreateInvalidatesCache(t *testing.T) {
	repo := &mockCourseRepo{}
	cache := &mockCourseCache{}
	svc := fixedCourseService(repo, cache, "2025-01-10")

	_, err := svc.Create(context.Background(), CourseRequest{
		Name: "Colorimetría", StartDate: "2025-02-03", Schedule: "Martes y Jueves", ClassCount: 6, Capacity: 10,
	})
	require.NoError(t, err)
	require.Contains(t, cache.patterns, "courses:*")
}

func TestCourseServiceClassDates(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{5: testCourse()}}
	svc := fixedCourseService(repo, nil, "2025-01-10")

	dates, err := svc.ClassDates(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"}, dates)
}
