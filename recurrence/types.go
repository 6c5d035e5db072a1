package recurrence

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Pattern is the cadence of a recurrence rule
type Pattern int

const (
	Hourly Pattern = iota + 1
	Daily
	Weekly
	Monthly
	Yearly
	Weekdays // Monday through Friday
	Weekends // Saturday and Sunday
)

var patternNames = map[Pattern]string{
	Hourly:   "hourly",
	Daily:    "daily",
	Weekly:   "weekly",
	Monthly:  "monthly",
	Yearly:   "yearly",
	Weekdays: "weekdays",
	Weekends: "weekends",
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// Valid reports whether p is one of the known patterns
func (p Pattern) Valid() bool {
	_, ok := patternNames[p]
	return ok
}

// ParsePattern converts a stored pattern name into a Pattern.
// Unknown names are rejected rather than mapped to a default.
func ParsePattern(s string) (Pattern, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range patternNames {
		if n == name {
			return p, nil
		}
	}
	return 0, &Error{Type: ErrInvalidRule, Field: "pattern", Message: fmt.Sprintf("unknown pattern %q", s)}
}

// WeekdaySet is a set of weekdays, bit i set means time.Weekday(i) is a member
type WeekdaySet uint8

const allWeekdays WeekdaySet = 1<<7 - 1

// NewWeekdaySet builds a set from the given weekdays
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether d is in the set
func (s WeekdaySet) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

// Empty reports whether the set has no members
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Len returns the number of members
func (s WeekdaySet) Len() int {
	return bits.OnesCount8(uint8(s & allWeekdays))
}

// Days returns the members in week order, Sunday first
func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// first returns the earliest member of the week. The set must not be empty.
func (s WeekdaySet) first() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			return d
		}
	}
	return time.Sunday
}

// EndKind tells which end condition a rule carries
type EndKind int

const (
	EndKindNever EndKind = iota
	EndKindDate
	EndKindCount
)

// EndCondition is the rule-intrinsic stop. Build it with EndNever, EndOn or EndAfter.
type EndCondition struct {
	kind  EndKind
	date  time.Time
	count int
}

// EndNever returns an end condition that never stops the series
func EndNever() EndCondition {
	return EndCondition{kind: EndKindNever}
}

// EndOn stops the series after the given calendar date (inclusive)
func EndOn(date time.Time) EndCondition {
	return EndCondition{kind: EndKindDate, date: date}
}

// EndAfter stops the series after n occurrences counted from the anchor
func EndAfter(n int) EndCondition {
	return EndCondition{kind: EndKindCount, count: n}
}

func (c EndCondition) Kind() EndKind { return c.kind }

// Date returns the end date when the condition is EndOn
func (c EndCondition) Date() mo.Option[time.Time] {
	if c.kind != EndKindDate {
		return mo.None[time.Time]()
	}
	return mo.Some(c.date)
}

// Count returns the occurrence limit when the condition is EndAfter
func (c EndCondition) Count() mo.Option[int] {
	if c.kind != EndKindCount {
		return mo.None[int]()
	}
	return mo.Some(c.count)
}

// Rule describes how a reminder repeats
type Rule struct {
	Pattern  Pattern
	Interval int        // every N units, treated as 1 for Weekdays and Weekends
	Days     WeekdaySet // Weekly only; empty means the anchor's weekday
	End      EndCondition
}

// step returns the interval the calculator should use
func (r Rule) step() int {
	if r.Pattern == Weekdays || r.Pattern == Weekends {
		return 1
	}
	return r.Interval
}

// Validate checks the rule invariants and reports the first offending field
func (r Rule) Validate() error {
	if !r.Pattern.Valid() {
		return &Error{Type: ErrInvalidRule, Field: "pattern", Message: fmt.Sprintf("unknown pattern %d", int(r.Pattern))}
	}
	if r.Interval < 1 {
		return &Error{Type: ErrInvalidRule, Field: "interval", Message: fmt.Sprintf("interval must be >= 1, got %d", r.Interval)}
	}
	if r.Days&^allWeekdays != 0 {
		return &Error{Type: ErrInvalidRule, Field: "days", Message: "weekday index out of range 0..6"}
	}
	if !r.Days.Empty() && r.Pattern != Weekly {
		return &Error{Type: ErrInvalidRule, Field: "days", Message: fmt.Sprintf("days of week are only allowed for weekly rules, got %s", r.Pattern)}
	}
	switch r.End.kind {
	case EndKindNever:
	case EndKindDate:
		if r.End.date.IsZero() {
			return &Error{Type: ErrInvalidRule, Field: "end.date", Message: "end date is zero"}
		}
	case EndKindCount:
		if r.End.count < 1 {
			return &Error{Type: ErrInvalidRule, Field: "end.count", Message: fmt.Sprintf("occurrence count must be >= 1, got %d", r.End.count)}
		}
	default:
		return &Error{Type: ErrInvalidRule, Field: "end", Message: fmt.Sprintf("unknown end condition %d", int(r.End.kind))}
	}
	return nil
}

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Clock returns the time-of-day of t
func Clock(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay{Hour: h, Minute: m, Second: s}
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60 && t.Second >= 0 && t.Second < 60
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On places the time-of-day on the calendar date of day. A wall time that
// is skipped by a DST transition resolves to the first instant after the gap.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return inLocation(time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, time.UTC), day.Location())
}

// Anchor is the date, and optionally the time, a rule is defined relative to.
// The location of Date is the calendar every occurrence is reported in.
type Anchor struct {
	Date time.Time
	Time mo.Option[TimeOfDay]
}

// NewAnchor creates an anchor without a time-of-day
func NewAnchor(date time.Time) Anchor {
	return Anchor{Date: date, Time: mo.None[TimeOfDay]()}
}

// NewTimedAnchor creates an anchor with a time-of-day
func NewTimedAnchor(date time.Time, tod TimeOfDay) Anchor {
	return Anchor{Date: date, Time: mo.Some(tod)}
}

func (a Anchor) validate() error {
	if a.Date.IsZero() {
		return &Error{Type: ErrInvalidAnchor, Field: "anchor.date", Message: "anchor date is zero"}
	}
	if tod, ok := a.Time.Get(); ok && !tod.valid() {
		return &Error{Type: ErrInvalidAnchor, Field: "anchor.time", Message: fmt.Sprintf("time-of-day %s out of range", tod)}
	}
	return nil
}

// start returns the anchor as floating wall-clock time, midnight when untimed
func (a Anchor) start() time.Time {
	day := floatingDate(a.Date)
	if tod, ok := a.Time.Get(); ok {
		return tod.On(day)
	}
	return day
}

// Kind is the category of a reminder, ordered by display priority
type Kind int

const (
	Note Kind = iota + 1
	Task
	Event
	Medication
	Bill
)

var kindNames = map[Kind]string{
	Note:       "note",
	Task:       "task",
	Event:      "event",
	Medication: "medication",
	Bill:       "bill",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a stored kind name into a Kind
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown reminder kind %q", s)
}

// Occurrence is one projected instance of a reminder
type Occurrence struct {
	SourceID  string    // opaque back-reference to the owning reminder
	Date      time.Time // start of the occurrence date in the anchor's location
	Time      mo.Option[TimeOfDay]
	Kind      Kind
	Completed bool
	Index     int // position in the series, zero for the anchor instance
}

// Instant returns the occurrence's date and time; untimed occurrences
// are placed at start-of-day
func (o Occurrence) Instant() time.Time {
	if tod, ok := o.Time.Get(); ok {
		return tod.On(o.Date)
	}
	return o.Date
}

// Day returns the calendar date of the occurrence
func (o Occurrence) Day() time.Time {
	return dateIn(o.Date, o.Date.Location())
}

// Window bounds an expansion independently from the rule's own end condition.
// From and To are calendar dates and both are inclusive.
type Window struct {
	From     time.Time
	To       time.Time
	MaxCount int
}

func (w Window) validate() error {
	if w.MaxCount < 0 {
		return &Error{Type: ErrInvalidWindow, Field: "window.max_count", Message: fmt.Sprintf("max count must be >= 0, got %d", w.MaxCount)}
	}
	if w.From.IsZero() || w.To.IsZero() {
		return &Error{Type: ErrInvalidWindow, Field: "window", Message: "window bounds must be set"}
	}
	return nil
}

// Reminder is the slice of a stored reminder record the engine reads
type Reminder struct {
	ID        string
	Anchor    Anchor
	Rule      mo.Option[Rule] // absent for one-off reminders
	Kind      Kind
	Completed bool
}
