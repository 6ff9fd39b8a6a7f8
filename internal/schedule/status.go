package schedule

import (
	"time"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

// DeriveStatus classifies a course's lifecycle state from the current
// date, its start date, the computed class-date sequence and the number
// of active enrollments. The rules are evaluated in order; the first
// match wins. The function never fails: malformed input degrades to
// SCHEDULED, this sits on the list-view hot path.
func DeriveStatus(today time.Time, startDate string, classDates []string, activeCount int) models.CourseStatus {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return models.CourseStatusScheduled
	}

	day := truncateToDay(today)

	if !day.Before(start) && activeCount == 0 {
		return models.CourseStatusCancelled
	}
	if day.Before(start) {
		return models.CourseStatusScheduled
	}
	if len(classDates) == 0 {
		// Pattern unresolvable: the course has started but completion
		// cannot be determined.
		return models.CourseStatusInProgress
	}
	last, err := time.Parse(DateLayout, classDates[len(classDates)-1])
	if err != nil {
		return models.CourseStatusInProgress
	}
	if day.After(last) {
		return models.CourseStatusCompleted
	}
	return models.CourseStatusInProgress
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
