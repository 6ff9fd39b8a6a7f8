package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassDatesMondayWednesday(t *testing.T) {
	dates := ClassDates("2025-01-06", "Lunes y Miércoles", 4)
	require.Equal(t, []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"}, dates)
}

func TestClassDatesStartNotOnPatternDay(t *testing.T) {
	// 2025-01-07 is a Tuesday; the first Monday after it is the 13th.
	dates := ClassDates("2025-01-07", "lunes", 2)
	require.Equal(t, []string{"2025-01-13", "2025-01-20"}, dates)
}

func TestClassDatesProperties(t *testing.T) {
	dates := ClassDates("2025-03-01", "sábado", 10)
	require.Len(t, dates, 10)
	prev := ""
	for _, raw := range dates {
		parsed, err := time.Parse(DateLayout, raw)
		require.NoError(t, err)
		assert.Equal(t, time.Saturday, parsed.Weekday())
		assert.Greater(t, raw, prev, "dates must be strictly increasing")
		prev = raw
	}
	assert.GreaterOrEqual(t, dates[0], "2025-03-01")
}

func TestClassDatesUnresolvablePattern(t *testing.T) {
	assert.Nil(t, ClassDates("2025-01-06", "quincenal", 4))
}

func TestClassDatesInvalidInputs(t *testing.T) {
	assert.Nil(t, ClassDates("06/01/2025", "lunes", 4))
	assert.Nil(t, ClassDates("", "lunes", 4))
	assert.Nil(t, ClassDates("2025-01-06", "lunes", 0))
	assert.Nil(t, ClassDates("2025-01-06", "lunes", -3))
}

func TestClassDatesDeterministic(t *testing.T) {
	first := ClassDates("2025-01-06", "Lunes y Miércoles", 12)
	second := ClassDates("2025-01-06", "Lunes y Miércoles", 12)
	assert.Equal(t, first, second)
}
