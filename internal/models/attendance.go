package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusAttended AttendanceStatus = "ATTENDED"
	AttendanceStatusAbsent   AttendanceStatus = "ABSENT"
	AttendanceStatusExcused  AttendanceStatus = "EXCUSED"
	// AttendanceStatusUnmarked is the implicit default for a grid cell
	// with no stored row. It is never persisted.
	AttendanceStatusUnmarked AttendanceStatus = "UNMARKED"
)

// Valid returns true when the status may be persisted.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusAttended, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a stored attendance row, keyed by
// (enrollment_id, class_date). ClassDate is an ISO YYYY-MM-DD string.
type AttendanceRecord struct {
	ID           int64            `db:"id" json:"id"`
	EnrollmentID int64            `db:"enrollment_id" json:"enrollment_id"`
	ClassDate    string           `db:"class_date" json:"class_date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Note         *string          `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceGridRow is one student line in the reconciled grid: a cell
// for every class date, stored status or UNMARKED.
type AttendanceGridRow struct {
	EnrollmentID    int64                       `json:"enrollment_id"`
	StudentID       int64                       `json:"student_id"`
	StudentName     string                      `json:"student_name"`
	StudentDocument string                      `json:"student_document"`
	Cells           map[string]AttendanceStatus `json:"cells"`
	Notes           map[string]string           `json:"notes,omitempty"`
}

// AttendanceGrid is the full (enrollment x class date) reconciliation
// for one course.
type AttendanceGrid struct {
	CourseID   int64               `json:"course_id"`
	CourseName string              `json:"course_name"`
	ClassDates []string            `json:"class_dates"`
	Rows       []AttendanceGridRow `json:"rows"`
}
