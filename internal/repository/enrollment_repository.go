package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID > 0 {
		conditions = append(conditions, "e.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, "e.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "e.status = ?")
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"student_name": "s.full_name",
		"course_name":  "c.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.status, e.created_at, e.updated_at,
        s.full_name AS student_name, COALESCE(s.document, '') AS student_document, c.name AS course_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, created_at, updated_at FROM enrollments WHERE id = ?`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and course info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.status, e.created_at, e.updated_at,
        s.full_name AS student_name, COALESCE(s.document, '') AS student_document, c.name AS course_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.id = ?`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountActiveByCourse returns the number of active enrollments for a course.
func (r *EnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status = ?`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// ListActiveByCourse returns active enrollments for a course with
// student info, ordered by student name for stable grid rows.
func (r *EnrollmentRepository) ListActiveByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.status, e.created_at, e.updated_at,
        s.full_name AS student_name, COALESCE(s.document, '') AS student_document, c.name AS course_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.course_id = ? AND e.status = ?
        ORDER BY s.full_name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// CreateWithCapacityCheck inserts an Active enrollment only if the
// course still has room. The count and the insert run inside one
// transaction so concurrent requests cannot push the active count past
// capacity; SQLite's single-writer lock serialises the pair.
func (r *EnrollmentRepository) CreateWithCapacityCheck(ctx context.Context, enrollment *models.Enrollment, capacity int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var active int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status = ?`
	if err := tx.GetContext(ctx, &active, countQuery, enrollment.CourseID, models.EnrollmentStatusActive); err != nil {
		return fmt.Errorf("count active enrollments: %w", err)
	}
	if active >= capacity {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("course %d is full (%d/%d)", enrollment.CourseID, active, capacity))
	}

	now := time.Now().UTC()
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const insertQuery = `INSERT INTO enrollments (student_id, course_id, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insertQuery,
		enrollment.StudentID, enrollment.CourseID, enrollment.Status, enrollment.CreatedAt, enrollment.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment in this course")
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("enrollment insert id: %w", err)
	}
	enrollment.ID = id

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	committed = true
	return nil
}

// Deactivate soft-removes an enrollment. History is preserved; rows are
// never deleted.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE enrollments SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusInactive, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}
