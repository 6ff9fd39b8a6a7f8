package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByEnrollmentIDs returns every stored attendance row for the given
// enrollments. Rows belonging to other enrollments (e.g. deactivated
// ones) are naturally excluded by the caller passing only active IDs.
func (r *AttendanceRepository) ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []int64) ([]models.AttendanceRecord, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, len(enrollmentIDs))
	for i, id := range enrollmentIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, enrollment_id, class_date, status, note, created_at, updated_at
        FROM attendance WHERE enrollment_id IN (%s)`, strings.Join(placeholders, ","))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// BulkUpsert applies every record of one class date in a single
// transaction, keyed on (enrollment_id, class_date): insert when absent,
// overwrite status and note when present. All rows land or none do.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attendance tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (enrollment_id, class_date, status, note, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (enrollment_id, class_date)
        DO UPDATE SET status = excluded.status, note = excluded.note, updated_at = excluded.updated_at`

	now := time.Now().UTC()
	saved := 0
	for i := range records {
		rec := &records[i]
		if _, err := tx.ExecContext(ctx, query,
			rec.EnrollmentID, rec.ClassDate, rec.Status, rec.Note, now, now); err != nil {
			return 0, fmt.Errorf("upsert attendance for enrollment %d on %s: %w", rec.EnrollmentID, rec.ClassDate, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attendance batch: %w", err)
	}
	committed = true
	return saved, nil
}
