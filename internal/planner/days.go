package planner

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// NormalizeDate truncates t to midnight UTC of its calendar day. The
// calendar day is taken in t's own location, so a local "2024-01-01 00:00
// +02:00" stays on the 1st.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateNumberOfDays returns the inclusive number of days between start
// and end. The difference is absolute: an end before start still yields a
// positive count.
func CalculateNumberOfDays(start, end time.Time) int {
	diff := math.Abs(float64(end.Sub(start)) / float64(day))
	return int(math.Round(diff)) + 1
}

// GenerateEmptyDays builds numberOfDays empty records starting at start.
// A non-positive count yields an empty slice.
func GenerateEmptyDays(start time.Time, numberOfDays int) []DayRecord {
	if numberOfDays <= 0 {
		return []DayRecord{}
	}

	first := NormalizeDate(start)
	days := make([]DayRecord, 0, numberOfDays)
	for i := 0; i < numberOfDays; i++ {
		days = append(days, emptyDay(first.AddDate(0, 0, i)))
	}
	return days
}

// UpdateDaysArray rebuilds a day schedule for a new range. Records from
// existing whose date falls in the new range are reused as-is, the others
// are dropped, and dates with no record get an empty one. existing is not
// modified.
func UpdateDaysArray(existing []DayRecord, start time.Time, numberOfDays int) []DayRecord {
	if numberOfDays <= 0 {
		return []DayRecord{}
	}

	byDate := make(map[time.Time]DayRecord, len(existing))
	for _, d := range existing {
		key := NormalizeDate(d.Date)
		if _, seen := byDate[key]; seen {
			// first record wins, like a linear search would
			continue
		}
		byDate[key] = d
	}

	first := NormalizeDate(start)
	updated := make([]DayRecord, 0, numberOfDays)
	for i := 0; i < numberOfDays; i++ {
		current := first.AddDate(0, 0, i)
		if d, ok := byDate[current]; ok {
			d.Date = current
			updated = append(updated, d)
			continue
		}
		updated = append(updated, emptyDay(current))
	}
	return updated
}

func emptyDay(date time.Time) DayRecord {
	return DayRecord{
		Date:      date,
		Meals:     []MealEntry{},
		MiscItems: []MiscItem{},
	}
}
