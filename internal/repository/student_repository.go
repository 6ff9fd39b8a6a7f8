package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, "(full_name LIKE ? OR document LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT id, full_name, COALESCE(document, '') AS document, COALESCE(phone, '') AS phone,
        COALESCE(email, '') AS email, COALESCE(address, '') AS address, active, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, full_name, COALESCE(document, '') AS document, COALESCE(phone, '') AS phone,
        COALESCE(email, '') AS email, COALESCE(address, '') AS address, active, created_at, updated_at
        FROM students WHERE id = ?`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student and assigns its generated ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (full_name, document, phone, email, address, active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		student.FullName, student.Document, student.Phone, student.Email, student.Address, student.Active,
		student.CreatedAt, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("student insert id: %w", err)
	}
	student.ID = id
	return nil
}

// Update rewrites a student's mutable fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = ?, document = ?, phone = ?, email = ?, address = ?, active = ?, updated_at = ?
        WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		student.FullName, student.Document, student.Phone, student.Email, student.Address, student.Active,
		student.UpdatedAt, student.ID); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetActive toggles the student's active flag.
func (r *StudentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE students SET active = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	return nil
}
