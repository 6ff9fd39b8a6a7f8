package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

// CourseRepository handles persistence of courses. Lifecycle status is
// not a column; rows carry the active-enrollment count and the service
// derives status from it.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseDetailColumns = `c.id, c.name, COALESCE(c.level, '') AS level, c.start_date, c.schedule, c.class_count, c.capacity, c.price,
        c.instructor_id, c.created_at, c.updated_at,
        i.full_name AS instructor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status = 'ACTIVE') AS active_count`

// List returns course details filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c LEFT JOIN instructors i ON i.id = c.instructor_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, "c.name LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Level != "" {
		conditions = append(conditions, "c.level = ?")
		args = append(args, filter.Level)
	}
	if filter.InstructorID > 0 {
		conditions = append(conditions, "c.instructor_id = ?")
		args = append(args, filter.InstructorID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "c.name",
		"start_date": "c.start_date",
		"created_at": "c.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.start_date"
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
	if size <= 0 || size > 500 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		courseDetailColumns, base+clause, orderBy, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, name, COALESCE(level, '') AS level, start_date, schedule, class_count, capacity, price, instructor_id, created_at, updated_at
        FROM courses WHERE id = ?`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with instructor info and active count.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c LEFT JOIN instructors i ON i.id = c.instructor_id WHERE c.id = ?`,
		courseDetailColumns)
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new course and assigns its generated ID.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (name, level, start_date, schedule, class_count, capacity, price, instructor_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		course.Name, course.Level, course.StartDate, course.Schedule, course.ClassCount, course.Capacity,
		course.Price, course.InstructorID, course.CreatedAt, course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("course insert id: %w", err)
	}
	course.ID = id
	return nil
}

// Update rewrites a course's mutable fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = ?, level = ?, start_date = ?, schedule = ?, class_count = ?, capacity = ?, price = ?, instructor_id = ?, updated_at = ?
        WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		course.Name, course.Level, course.StartDate, course.Schedule, course.ClassCount, course.Capacity,
		course.Price, course.InstructorID, course.UpdatedAt, course.ID); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}
