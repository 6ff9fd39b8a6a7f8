package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	"github.com/navaja-dev/barber-academy-api/internal/schedule"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

type instructorReader interface {
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
}

type courseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CourseRequest describes create/update payloads.
type CourseRequest struct {
	Name         string  `json:"name" validate:"required"`
	Level        string  `json:"level"`
	StartDate    string  `json:"start_date" validate:"required"`
	Schedule     string  `json:"schedule" validate:"required"`
	ClassCount   int     `json:"class_count" validate:"required,gte=1"`
	Capacity     int     `json:"capacity" validate:"required,gte=1"`
	Price        float64 `json:"price" validate:"gte=0"`
	InstructorID *int64  `json:"instructor_id,omitempty"`
}

// CourseService manages courses and attaches derived lifecycle state to
// every read.
type CourseService struct {
	repo        courseRepository
	instructors instructorReader
	cache       courseCache
	metrics     *MetricsService
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, instructors instructorReader, cache courseCache, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:        repo,
		instructors: instructors,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

type cachedCourseList struct {
	Courses []models.CourseDetail `json:"courses"`
	Total   int                   `json:"total"`
}

// List returns courses with the derived status attached to every row.
// Status filtering happens after derivation, never against a stored
// column. The unfiltered page is served through a read-through cache;
// derivation always re-runs so the status reflects today's date even on
// a cache hit.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	statusFilter := filter.Status
	repoFilter := filter
	repoFilter.Status = ""
	if statusFilter != "" {
		// Derived-state filters cannot be pushed into SQL; pull a wide
		// window and page in memory after classification.
		repoFilter.Page = 1
		repoFilter.PageSize = 500
	}

	courses, total, err := s.listThroughCache(ctx, repoFilter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	today := s.now()
	for i := range courses {
		courses[i].Status = s.deriveStatus(today, &courses[i])
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	if statusFilter != "" {
		filtered := make([]models.CourseDetail, 0, len(courses))
		for _, course := range courses {
			if course.Status == statusFilter {
				filtered = append(filtered, course)
			}
		}
		total = len(filtered)
		start := (page - 1) * size
		if start > len(filtered) {
			start = len(filtered)
		}
		end := start + size
		if end > len(filtered) {
			end = len(filtered)
		}
		courses = filtered[start:end]
	}

	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

func (s *CourseService) listThroughCache(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	if s.cache == nil {
		return s.listFromDB(ctx, filter)
	}
	key := fmt.Sprintf("courses:list:%s:%s:%d:%s:%s:%d:%d",
		filter.Search, filter.Level, filter.InstructorID, filter.SortBy, filter.SortOrder, filter.Page, filter.PageSize)

	var cached cachedCourseList
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.ObserveCacheHit()
		return cached.Courses, cached.Total, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("course cache read failed", zap.Error(err))
	}
	s.metrics.ObserveCacheMiss()

	courses, total, err := s.listFromDB(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.cache.Set(ctx, key, cachedCourseList{Courses: courses, Total: total}, s.cacheTTL); err != nil {
		s.logger.Warn("course cache write failed", zap.Error(err))
	}
	return courses, total, nil
}

func (s *CourseService) listFromDB(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	start := time.Now()
	courses, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("course_list", time.Since(start))
	return courses, total, err
}

// Get returns a course with instructor info, active count and status.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	detail.Status = s.deriveStatus(s.now(), detail)
	return detail, nil
}

// ClassDates exposes the computed class-date sequence for a course.
func (s *CourseService) ClassDates(ctx context.Context, id int64) ([]string, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return schedule.ClassDates(course.StartDate, course.Schedule, course.ClassCount), nil
}

// Create validates and persists a new course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	course, err := s.courseFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return s.Get(ctx, course.ID)
}

// Update validates and rewrites an existing course.
func (s *CourseService) Update(ctx context.Context, id int64, req CourseRequest) (*models.CourseDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course, err := s.courseFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	course.ID = id
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *CourseService) courseFromRequest(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := time.Parse(schedule.DateLayout, req.StartDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	if len(schedule.ParsePattern(req.Schedule)) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule does not name any weekday")
	}
	if req.InstructorID != nil {
		if _, err := s.instructors.FindByID(ctx, *req.InstructorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}
	return &models.Course{
		Name:         req.Name,
		Level:        req.Level,
		StartDate:    req.StartDate,
		Schedule:     req.Schedule,
		ClassCount:   req.ClassCount,
		Capacity:     req.Capacity,
		Price:        req.Price,
		InstructorID: req.InstructorID,
	}, nil
}

func (s *CourseService) deriveStatus(today time.Time, detail *models.CourseDetail) models.CourseStatus {
	dates := schedule.ClassDates(detail.StartDate, detail.Schedule, detail.ClassCount)
	return schedule.DeriveStatus(today, detail.StartDate, dates, detail.ActiveCount)
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "courses:*"); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}
