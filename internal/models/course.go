package models

import "time"

// CourseStatus is the derived lifecycle state of a course. It is never
// stored; every read recomputes it from the current date, the class-date
// sequence and the active-enrollment count.
type CourseStatus string

const (
	CourseStatusScheduled  CourseStatus = "SCHEDULED"
	CourseStatusInProgress CourseStatus = "IN_PROGRESS"
	CourseStatusCompleted  CourseStatus = "COMPLETED"
	CourseStatusCancelled  CourseStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusScheduled, CourseStatusInProgress, CourseStatusCompleted, CourseStatusCancelled:
		return true
	default:
		return false
	}
}

// Course represents a course occurrence offered by the academy.
// StartDate is an ISO YYYY-MM-DD string and Schedule a free-text weekday
// pattern such as "Lunes y Miércoles".
type Course struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Level        string    `db:"level" json:"level"`
	StartDate    string    `db:"start_date" json:"start_date"`
	Schedule     string    `db:"schedule" json:"schedule"`
	ClassCount   int       `db:"class_count" json:"class_count"`
	Capacity     int       `db:"capacity" json:"capacity"`
	Price        float64   `db:"price" json:"price"`
	InstructorID *int64    `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the instructor name, the current
// active-enrollment count and the derived lifecycle status.
type CourseDetail struct {
	Course
	InstructorName *string      `db:"instructor_name" json:"instructor_name,omitempty"`
	ActiveCount    int          `db:"active_count" json:"active_count"`
	Status         CourseStatus `db:"-" json:"status"`
}

// CourseFilter defines filter criteria for listing courses. Status is
// applied in memory after derivation, not as a stored column.
type CourseFilter struct {
	Search       string
	Level        string
	InstructorID int64
	Status       CourseStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
