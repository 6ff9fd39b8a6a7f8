package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

// InstructorRepository handles persistence of instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors, optionally narrowed by a name search.
func (r *InstructorRepository) List(ctx context.Context, search string, activeOnly bool) ([]models.Instructor, error) {
	base := `SELECT id, full_name, COALESCE(document, '') AS document, COALESCE(phone, '') AS phone,
        COALESCE(email, '') AS email, COALESCE(specialty, '') AS specialty, active, created_at, updated_at FROM instructors`
	var conditions []string
	var args []interface{}
	if search != "" {
		conditions = append(conditions, "full_name LIKE ?")
		args = append(args, "%"+search+"%")
	}
	if activeOnly {
		conditions = append(conditions, "active = 1")
	}
	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY full_name ASC"

	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID returns an instructor by its ID.
func (r *InstructorRepository) FindByID(ctx context.Context, id int64) (*models.Instructor, error) {
	const query = `SELECT id, full_name, COALESCE(document, '') AS document, COALESCE(phone, '') AS phone,
        COALESCE(email, '') AS email, COALESCE(specialty, '') AS specialty, active, created_at, updated_at
        FROM instructors WHERE id = ?`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Create persists a new instructor and assigns its generated ID.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	now := time.Now().UTC()
	instructor.CreatedAt = now
	instructor.UpdatedAt = now
	const query = `INSERT INTO instructors (full_name, document, phone, email, specialty, active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		instructor.FullName, instructor.Document, instructor.Phone, instructor.Email, instructor.Specialty,
		instructor.Active, instructor.CreatedAt, instructor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("instructor insert id: %w", err)
	}
	instructor.ID = id
	return nil
}

// Update rewrites an instructor's mutable fields.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET full_name = ?, document = ?, phone = ?, email = ?, specialty = ?, active = ?, updated_at = ?
        WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		instructor.FullName, instructor.Document, instructor.Phone, instructor.Email, instructor.Specialty,
		instructor.Active, instructor.UpdatedAt, instructor.ID); err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	return nil
}

// SetActive toggles the instructor's active flag.
func (r *InstructorRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE instructors SET active = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set instructor active: %w", err)
	}
	return nil
}
