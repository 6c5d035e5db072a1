package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/libremind/recurrence"
)

var dueTimeLayouts = []string{"15:04:05", "15:04"}

// Reminder converts a stored record into the engine's input. Malformed rule
// fields are reported as *recurrence.Error naming the field, and are never
// coerced into a default.
func (r *Record) Reminder() (recurrence.Reminder, error) {
	kind, err := recurrence.ParseKind(r.Kind)
	if err != nil {
		return recurrence.Reminder{}, &Error{Type: ErrInvalidInput, Message: fmt.Sprintf("reminder %s", r.ID), Err: err}
	}

	anchor, err := r.anchor()
	if err != nil {
		return recurrence.Reminder{}, err
	}

	out := recurrence.Reminder{
		ID:        r.ID,
		Anchor:    anchor,
		Rule:      mo.None[recurrence.Rule](),
		Kind:      kind,
		Completed: r.Completed,
	}
	if r.Recurrence != nil {
		rule, err := r.Recurrence.Rule()
		if err != nil {
			return recurrence.Reminder{}, err
		}
		out.Rule = mo.Some(rule)
	}
	return out, nil
}

func (r *Record) anchor() (recurrence.Anchor, error) {
	if strings.TrimSpace(r.DueTime) == "" {
		return recurrence.NewAnchor(r.DueDate), nil
	}
	for _, layout := range dueTimeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(r.DueTime)); err == nil {
			return recurrence.NewTimedAnchor(r.DueDate, recurrence.Clock(t)), nil
		}
	}
	return recurrence.Anchor{}, &recurrence.Error{
		Type:    recurrence.ErrInvalidAnchor,
		Field:   "anchor.time",
		Message: fmt.Sprintf("cannot parse due time %q", r.DueTime),
	}
}

// Rule converts stored rule fields into a validated rule
func (f *RecurrenceFields) Rule() (recurrence.Rule, error) {
	pattern, err := recurrence.ParsePattern(f.Pattern)
	if err != nil {
		return recurrence.Rule{}, err
	}

	var days []time.Weekday
	for _, d := range f.DaysOfWeek {
		if d < 0 || d > 6 {
			return recurrence.Rule{}, &recurrence.Error{
				Type:    recurrence.ErrInvalidRule,
				Field:   "days",
				Message: fmt.Sprintf("weekday index %d out of range 0..6", d),
			}
		}
		days = append(days, time.Weekday(d))
	}

	rule := recurrence.Rule{
		Pattern:  pattern,
		Interval: f.Interval,
		Days:     recurrence.NewWeekdaySet(days...),
		End:      recurrence.EndNever(),
	}
	switch {
	case f.EndDate != nil && f.OccurrenceCount != nil:
		return recurrence.Rule{}, &recurrence.Error{
			Type:    recurrence.ErrInvalidRule,
			Field:   "end",
			Message: "end date and occurrence count are mutually exclusive",
		}
	case f.EndDate != nil:
		rule.End = recurrence.EndOn(*f.EndDate)
	case f.OccurrenceCount != nil:
		rule.End = recurrence.EndAfter(*f.OccurrenceCount)
	}

	if err := rule.Validate(); err != nil {
		return recurrence.Rule{}, err
	}
	return rule, nil
}
