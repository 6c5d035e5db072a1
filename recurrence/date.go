package recurrence

import "time"

// The engine computes on floating wall-clock time: the year, month, day and
// clock fields of a time copied into UTC. Arithmetic on floating values never
// crosses a DST transition, and results are moved back to the anchor's
// location when occurrences are built.

func floating(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.UTC)
}

func floatingDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateIn returns the start of t's calendar date in loc
func dateIn(t time.Time, loc *time.Location) time.Time {
	return inLocation(floatingDate(t), loc)
}

// inLocation places the floating wall-clock reading wall in loc. A reading
// that falls in a DST gap does not exist there and resolves to the first
// instant after the gap.
func inLocation(wall time.Time, loc *time.Location) time.Time {
	y, m, d := wall.Date()
	h, mi, s := wall.Clock()
	t := time.Date(y, m, d, h, mi, s, wall.Nanosecond(), loc)
	if floating(t).Equal(wall) {
		return t
	}
	start, end := t.ZoneBounds()
	if floating(t).Before(wall) {
		// normalized back into the zone period before the gap
		if end.IsZero() {
			return t
		}
		return end
	}
	return start
}

// withClock returns day's date with the clock of clock
func withClock(day, clock time.Time) time.Time {
	y, m, d := day.Date()
	h, mi, s := clock.Clock()
	return time.Date(y, m, d, h, mi, s, clock.Nanosecond(), day.Location())
}

// addHours moves the floating time t by hours in whole days plus a remainder,
// which never overflows time.Duration
func addHours(t time.Time, hours int) time.Time {
	return t.AddDate(0, 0, hours/24).Add(time.Duration(hours%24) * time.Hour)
}

// daysBetween counts calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int((floatingDate(b).Unix() - floatingDate(a).Unix()) / 86400)
}

// weekStart returns the Sunday that begins the week containing t
func weekStart(t time.Time) time.Time {
	return floatingDate(t).AddDate(0, 0, -int(t.Weekday()))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonthsClamped moves t by months and sets the day-of-month to day,
// clamped to the last day of the target month
func addMonthsClamped(t time.Time, months, day int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	day = min(day, daysIn(year, month))
	h, mi, s := t.Clock()
	return time.Date(year, month, day, h, mi, s, t.Nanosecond(), t.Location())
}

// monthsBetween counts whole calendar months from a's month to b's month
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
