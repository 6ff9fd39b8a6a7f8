package schedule

import "time"

// DateLayout is the wire format for calendar dates throughout the API.
const DateLayout = "2006-01-02"

// maxScanDays bounds the forward walk so a pattern that matches no
// weekday cannot loop forever.
const maxScanDays = 1000

// ClassDates computes the ordered class-date sequence for a course:
// starting at startDate, every day whose weekday is in the pattern is a
// class, until count dates are collected. Returns nil when the inputs
// cannot produce a sequence (bad date, empty pattern, count <= 0, or the
// scan guard-rail trips). Pure function; same inputs always yield the
// same output.
func ClassDates(startDate, pattern string, count int) []string {
	if count <= 0 {
		return nil
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return nil
	}
	days := ParsePattern(pattern)
	if len(days) == 0 {
		return nil
	}

	dates := make([]string, 0, count)
	current := start
	for scanned := 0; scanned < maxScanDays; scanned++ {
		if days[current.Weekday()] {
			dates = append(dates, current.Format(DateLayout))
			if len(dates) == count {
				return dates
			}
		}
		current = current.AddDate(0, 0, 1)
	}
	return nil
}
