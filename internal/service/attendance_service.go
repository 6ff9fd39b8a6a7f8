package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	"github.com/navaja-dev/barber-academy-api/internal/schedule"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type attendanceRepository interface {
	ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []int64) ([]models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (int, error)
}

type activeEnrollmentLister interface {
	ListActiveByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
}

// BulkSaveRecord is one attendance mark inside a batch.
type BulkSaveRecord struct {
	EnrollmentID int64   `json:"enrollment_id"`
	Status       string  `json:"status"`
	Note         *string `json:"note,omitempty"`
}

// BulkSaveRequest saves attendance for one course and one class date.
type BulkSaveRequest struct {
	ClassDate string           `json:"class_date" validate:"required"`
	Records   []BulkSaveRecord `json:"records"`
}

// BulkSaveResult reports how many records were applied.
type BulkSaveResult struct {
	Saved   int `json:"saved"`
	Dropped int `json:"dropped"`
}

// AttendanceService reconciles stored attendance rows against the
// derived class-date grid of a course.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments activeEnrollmentLister
	courses     courseReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments activeEnrollmentLister, courses courseReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, courses: courses, validator: validate, logger: logger}
}

// BuildGrid assembles the full (active enrollment x class date) grid for
// a course. Every cell of the cross product is present: the stored
// status where a row exists, UNMARKED otherwise. Attendance rows of
// deactivated enrollments never enter the grid because only active
// enrollment IDs are fetched.
func (s *AttendanceService) BuildGrid(ctx context.Context, courseID int64) (*models.AttendanceGrid, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	classDates := schedule.ClassDates(course.StartDate, course.Schedule, course.ClassCount)

	enrollments, err := s.enrollments.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	enrollmentIDs := make([]int64, len(enrollments))
	for i, e := range enrollments {
		enrollmentIDs[i] = e.ID
	}
	records, err := s.repo.ListByEnrollmentIDs(ctx, enrollmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	type cellKey struct {
		enrollmentID int64
		classDate    string
	}
	stored := make(map[cellKey]models.AttendanceRecord, len(records))
	for _, rec := range records {
		stored[cellKey{rec.EnrollmentID, rec.ClassDate}] = rec
	}

	grid := &models.AttendanceGrid{
		CourseID:   course.ID,
		CourseName: course.Name,
		ClassDates: classDates,
		Rows:       make([]models.AttendanceGridRow, 0, len(enrollments)),
	}
	for _, e := range enrollments {
		row := models.AttendanceGridRow{
			EnrollmentID:    e.ID,
			StudentID:       e.StudentID,
			StudentName:     e.StudentName,
			StudentDocument: e.StudentDocument,
			Cells:           make(map[string]models.AttendanceStatus, len(classDates)),
		}
		for _, date := range classDates {
			if rec, ok := stored[cellKey{e.ID, date}]; ok {
				row.Cells[date] = rec.Status
				if rec.Note != nil && *rec.Note != "" {
					if row.Notes == nil {
						row.Notes = make(map[string]string)
					}
					row.Notes[date] = *rec.Note
				}
			} else {
				row.Cells[date] = models.AttendanceStatusUnmarked
			}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// BulkSave upserts the attendance batch for one course and class date.
// Records with a non-positive enrollment id or a blank status are
// dropped from the batch rather than failing the request; a batch with
// nothing left fails with EMPTY_BATCH and writes nothing. The surviving
// rows are applied in one transaction, so a storage fault rolls the
// whole batch back. Re-sending a batch is idempotent.
func (s *AttendanceService) BulkSave(ctx context.Context, courseID int64, req BulkSaveRequest) (*BulkSaveResult, error) {
	if courseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid course id")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := time.Parse(schedule.DateLayout, req.ClassDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_date must be YYYY-MM-DD")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	cleaned := make([]models.AttendanceRecord, 0, len(req.Records))
	dropped := 0
	for _, rec := range req.Records {
		status := models.AttendanceStatus(strings.ToUpper(strings.TrimSpace(rec.Status)))
		if rec.EnrollmentID <= 0 || !status.Valid() {
			dropped++
			continue
		}
		cleaned = append(cleaned, models.AttendanceRecord{
			EnrollmentID: rec.EnrollmentID,
			ClassDate:    req.ClassDate,
			Status:       status,
			Note:         rec.Note,
		})
	}
	if len(cleaned) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyBatch, "no valid attendance records in batch")
	}

	saved, err := s.repo.BulkUpsert(ctx, cleaned)
	if err != nil {
		s.logger.Error("attendance bulk save failed", zap.Int64("course_id", courseID), zap.String("class_date", req.ClassDate), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	return &BulkSaveResult{Saved: saved, Dropped: dropped}, nil
}
