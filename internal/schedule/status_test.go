package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navaja-dev/barber-academy-api/internal/models"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.Parse(DateLayout, raw)
	require.NoError(t, err)
	return parsed
}

func TestDeriveStatusScheduledBeforeStart(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	status := DeriveStatus(day(t, "2025-01-01"), "2025-01-06", dates, 5)
	assert.Equal(t, models.CourseStatusScheduled, status)
}

func TestDeriveStatusCancelledNoActiveEnrollments(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	status := DeriveStatus(day(t, "2025-01-10"), "2025-01-06", dates, 0)
	assert.Equal(t, models.CourseStatusCancelled, status)
}

func TestDeriveStatusNotCancelledBeforeStart(t *testing.T) {
	// Zero enrollments before the start date is still a scheduled course.
	status := DeriveStatus(day(t, "2025-01-01"), "2025-01-06", nil, 0)
	assert.Equal(t, models.CourseStatusScheduled, status)
}

func TestDeriveStatusInProgress(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	status := DeriveStatus(day(t, "2025-01-10"), "2025-01-06", dates, 3)
	assert.Equal(t, models.CourseStatusInProgress, status)
}

func TestDeriveStatusCompletedAfterLastClass(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	require.Equal(t, "2025-01-15", dates[len(dates)-1])
	status := DeriveStatus(day(t, "2025-01-20"), "2025-01-06", dates, 3)
	assert.Equal(t, models.CourseStatusCompleted, status)
}

func TestDeriveStatusLastClassDayStillInProgress(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	status := DeriveStatus(day(t, "2025-01-15"), "2025-01-06", dates, 3)
	assert.Equal(t, models.CourseStatusInProgress, status)
}

func TestDeriveStatusInvalidStartDateFailsSafe(t *testing.T) {
	status := DeriveStatus(day(t, "2025-01-10"), "not-a-date", nil, 0)
	assert.Equal(t, models.CourseStatusScheduled, status)
}

func TestDeriveStatusUnresolvablePatternBestEffort(t *testing.T) {
	// Started but without a class-date sequence completion is unknowable.
	status := DeriveStatus(day(t, "2025-06-01"), "2025-01-06", nil, 2)
	assert.Equal(t, models.CourseStatusInProgress, status)
}

func TestDeriveStatusDeterministic(t *testing.T) {
	dates := ClassDates("2025-01-06", "lunes y miércoles", 4)
	first := DeriveStatus(day(t, "2025-01-10"), "2025-01-06", dates, 2)
	second := DeriveStatus(day(t, "2025-01-10"), "2025-01-06", dates, 2)
	assert.Equal(t, first, second)
}
