package recurrence

import (
	"time"
)

// Calculator computes the occurrence that follows current. current and
// anchor share one location, and the result must be strictly later than
// current for every valid rule.
type Calculator interface {
	Next(current time.Time, rule Rule, anchor time.Time) time.Time
}

// CalculatorFunc adapts a function to the Calculator interface
type CalculatorFunc func(current time.Time, rule Rule, anchor time.Time) time.Time

func (f CalculatorFunc) Next(current time.Time, rule Rule, anchor time.Time) time.Time {
	return f(current, rule, anchor)
}

// DefaultCalculator is the calculator used by engines without WithCalculator
var DefaultCalculator Calculator = CalculatorFunc(NextOccurrence)

// NextOccurrence returns the first occurrence of rule strictly after current.
//
// The anchor is the first instant of the series. Weekly rules with explicit
// days count their active weeks from the anchor's week, and monthly and yearly
// rules land on the anchor's day-of-month, clamped to the target month. The
// rule is assumed valid.
func NextOccurrence(current time.Time, rule Rule, anchor time.Time) time.Time {
	n := rule.step()
	switch rule.Pattern {
	case Hourly:
		return addHours(current, n)
	case Daily:
		return current.AddDate(0, 0, n)
	case Weekly:
		if rule.Days.Empty() {
			return current.AddDate(0, 0, 7*n)
		}
		return nextListedWeekday(current, rule.Days, n, anchor)
	case Monthly:
		return addMonthsClamped(current, n, anchor.Day())
	case Yearly:
		return addMonthsClamped(current, 12*n, anchor.Day())
	case Weekdays:
		next := current.AddDate(0, 0, 1)
		for isWeekend(next.Weekday()) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case Weekends:
		next := current.AddDate(0, 0, 1)
		for !isWeekend(next.Weekday()) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
	// Unreachable for validated rules; moving forward keeps the engine's
	// monotonic check meaningful.
	return current.AddDate(0, 0, 1)
}

// nextListedWeekday scans the rest of current's week, then jumps to the first
// listed day of the next week whose distance from the anchor's week is a
// multiple of interval
func nextListedWeekday(current time.Time, days WeekdaySet, interval int, anchor time.Time) time.Time {
	for d := current.Weekday() + 1; d <= time.Saturday; d++ {
		if days.Has(d) {
			return current.AddDate(0, 0, int(d-current.Weekday()))
		}
	}

	anchorWeek := weekStart(anchor)
	week := floorDiv(daysBetween(anchorWeek, current), 7)
	target := (floorDiv(week, interval) + 1) * interval

	day := anchorWeek.AddDate(0, 0, 7*target+int(days.first()))
	return withClock(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, current.Location()), current)
}

// needsAlignment reports whether an anchor falls outside the rule's day
// filter, in which case the series starts at the next matching day
func needsAlignment(anchor time.Time, rule Rule) bool {
	switch rule.Pattern {
	case Weekly:
		return !rule.Days.Empty() && !rule.Days.Has(anchor.Weekday())
	case Weekdays:
		return isWeekend(anchor.Weekday())
	case Weekends:
		return !isWeekend(anchor.Weekday())
	}
	return false
}

// fixedCadence reports whether the n-th occurrence of rule can be computed
// directly from the anchor
func fixedCadence(rule Rule) bool {
	switch rule.Pattern {
	case Hourly, Daily, Monthly, Yearly:
		return true
	case Weekly:
		return rule.Days.Empty()
	}
	return false
}

var (
	weekdaySet = NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	weekendSet = NewWeekdaySet(time.Saturday, time.Sunday)
)

// dayFilter returns the weekday filter and week interval of rules that fire
// on listed days of every interval-th week counted from the anchor's week.
// Weekdays and Weekends are the weekly case with a fixed set.
func dayFilter(rule Rule) (WeekdaySet, int, bool) {
	switch rule.Pattern {
	case Weekly:
		if !rule.Days.Empty() {
			return rule.Days, rule.Interval, true
		}
	case Weekdays:
		return weekdaySet, 1, true
	case Weekends:
		return weekendSet, 1, true
	}
	return 0, 0, false
}

// listedBefore counts the listed days of active weeks dated from anchorWeek
// up to, but excluding, the date of d. d must not be before anchorWeek.
func listedBefore(anchorWeek, d time.Time, days WeekdaySet, interval int) int {
	week := floorDiv(daysBetween(anchorWeek, d), 7)
	n := floorDiv(week+interval-1, interval) * days.Len()
	if week%interval == 0 {
		for wd := time.Sunday; wd < d.Weekday(); wd++ {
			if days.Has(wd) {
				n++
			}
		}
	}
	return n
}

// firstListedFrom returns the first listed day of an active week on or after
// the date of d, carrying the clock of clock
func firstListedFrom(anchorWeek, d time.Time, days WeekdaySet, interval int, clock time.Time) time.Time {
	date := floatingDate(d)
	week := floorDiv(daysBetween(anchorWeek, date), 7)
	if week%interval == 0 {
		for wd := date.Weekday(); wd <= time.Saturday; wd++ {
			if days.Has(wd) {
				return withClock(date.AddDate(0, 0, int(wd-date.Weekday())), clock)
			}
		}
	}
	target := (floorDiv(week, interval) + 1) * interval
	return withClock(anchorWeek.AddDate(0, 0, 7*target+int(days.first())), clock)
}

// occurrenceAt returns the n-th occurrence (zero based) of a fixed cadence
// rule. Stepping NextOccurrence n times from anchor yields the same value.
func occurrenceAt(anchor time.Time, rule Rule, n int) time.Time {
	k := n * rule.step()
	switch rule.Pattern {
	case Hourly:
		return addHours(anchor, k)
	case Daily:
		return anchor.AddDate(0, 0, k)
	case Weekly:
		return anchor.AddDate(0, 0, 7*k)
	case Monthly:
		return addMonthsClamped(anchor, k, anchor.Day())
	case Yearly:
		return addMonthsClamped(anchor, 12*k, anchor.Day())
	}
	return anchor
}

// estimateIndex guesses the index of the last occurrence before from
func estimateIndex(anchor time.Time, rule Rule, from time.Time) int {
	step := rule.step()
	switch rule.Pattern {
	case Hourly:
		return (daysBetween(anchor, from)*24 + from.Hour() - anchor.Hour()) / step
	case Daily:
		return daysBetween(anchor, from) / step
	case Weekly:
		return daysBetween(anchor, from) / (7 * step)
	case Monthly:
		return monthsBetween(anchor, from) / step
	case Yearly:
		return (from.Year() - anchor.Year()) / step
	}
	return 0
}
