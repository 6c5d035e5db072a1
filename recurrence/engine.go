package recurrence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/mo"
)

// Engine expands recurrence rules into bounded, ascending occurrence
// sequences. An Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	config      EngineConfig
	calc        Calculator
	fastForward bool
	cache       *ExpansionCache
	logger      *slog.Logger
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithLogger sets the logger used for debug traces and invariant violations
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCalculator replaces the next-occurrence calculator. Catch-up then
// always steps through the calculator instead of jumping ahead.
func WithCalculator(calc Calculator) EngineOption {
	return func(e *Engine) {
		if calc != nil {
			e.calc = calc
			e.fastForward = false
		}
	}
}

// NewEngine creates a new recurrence engine with DefaultEngineConfig
func NewEngine(opts ...EngineOption) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// Expand returns the occurrences of rule from anchor that fall inside window.
//
// Invalid input is rejected with a validation *Error. A calculator that fails
// to move forward, or an expansion that needs more than the configured
// iteration ceiling, yields an internal *Error instead of a truncated result.
// An empty slice with a nil error means there is nothing to generate.
func (e *Engine) Expand(anchor Anchor, rule Rule, window Window) ([]Occurrence, error) {
	if err := anchor.validate(); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := window.validate(); err != nil {
		return nil, err
	}

	if e.cache != nil {
		if occurrences, ok := e.cache.Get(anchor, rule, window); ok {
			return occurrences, nil
		}
	}

	occurrences, err := e.expand(anchor, rule, window)
	if err != nil {
		e.logger.Error("recurrence expansion failed",
			"pattern", rule.Pattern.String(),
			"interval", rule.Interval,
			"anchor", anchor.Date.Format(time.DateOnly),
			"error", err)
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(anchor, rule, window, occurrences)
	}
	return occurrences, nil
}

// ExpandReminder expands a stored reminder. One-off reminders produce their
// single occurrence when it lies in the window. Occurrences carry the
// reminder's id and kind; only the anchor instance inherits its completion.
func (e *Engine) ExpandReminder(r Reminder, window Window) ([]Occurrence, error) {
	var (
		occurrences []Occurrence
		err         error
	)
	if rule, ok := r.Rule.Get(); ok {
		occurrences, err = e.Expand(r.Anchor, rule, window)
	} else {
		occurrences, err = e.Single(r.Anchor, window)
	}
	if err != nil {
		return nil, fmt.Errorf("expand reminder %s: %w", r.ID, err)
	}

	for i := range occurrences {
		occurrences[i].SourceID = r.ID
		occurrences[i].Kind = r.Kind
		occurrences[i].Completed = r.Completed && occurrences[i].Index == 0
	}
	return occurrences, nil
}

// Single handles the non-recurring case: the anchor itself, if it falls
// inside window
func (e *Engine) Single(anchor Anchor, window Window) ([]Occurrence, error) {
	if err := anchor.validate(); err != nil {
		return nil, err
	}
	if err := window.validate(); err != nil {
		return nil, err
	}

	day := floatingDate(anchor.Date)
	if window.MaxCount == 0 || day.Before(floatingDate(window.From)) || day.After(floatingDate(window.To)) {
		return []Occurrence{}, nil
	}
	o := Occurrence{
		Date:  dateIn(anchor.Date, anchor.Date.Location()),
		Time:  anchor.Time,
		Index: 0,
	}
	if tod, ok := anchor.Time.Get(); ok {
		o.Time = mo.Some(Clock(tod.On(o.Date)))
	}
	return []Occurrence{o}, nil
}

func (e *Engine) expand(anchor Anchor, rule Rule, window Window) ([]Occurrence, error) {
	from := floatingDate(window.From)
	to := floatingDate(window.To)
	if window.MaxCount == 0 || from.After(to) {
		return []Occurrence{}, nil
	}

	x := &expansion{
		engine: e,
		rule:   rule,
		start:  anchor.start(),
		loc:    anchor.Date.Location(),
		timed:  anchor.Time.IsPresent() || rule.Pattern == Hourly,
	}
	if end, ok := rule.End.Date().Get(); ok {
		x.endDate = mo.Some(floatingDate(end))
	}

	cur := x.start
	if needsAlignment(cur, rule) {
		next, err := x.next(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	index := 0
	if floatingDate(cur).Before(from) {
		if jumped, n, ok := e.jump(x.start, cur, rule, from); ok {
			cur, index = jumped, n
			e.logger.Debug("fast-forwarded recurrence to window start",
				"pattern", rule.Pattern.String(),
				"index", index,
				"from", from.Format(time.DateOnly))
		} else {
			for floatingDate(cur).Before(from) {
				if x.exhausted(cur, index) {
					return []Occurrence{}, nil
				}
				next, err := x.next(cur)
				if err != nil {
					return nil, err
				}
				cur = next
				index++
			}
		}
	}

	occurrences := make([]Occurrence, 0, min(window.MaxCount, 64))
	for {
		if floatingDate(cur).After(to) || x.exhausted(cur, index) {
			break
		}
		o := x.occurrence(cur, index)
		// a wall time shifted out of a DST gap can land on the instant of
		// the occurrence before it
		if n := len(occurrences); n == 0 || o.Instant().After(occurrences[n-1].Instant()) {
			occurrences = append(occurrences, o)
			if len(occurrences) >= window.MaxCount {
				break
			}
		}

		next, err := x.next(cur)
		if err != nil {
			return nil, err
		}
		cur = next
		index++
	}
	return occurrences, nil
}

// jump computes the first occurrence on or after from, and its series
// index, without calling the calculator. first is the series' index zero
// occurrence, which lies before from. Custom calculators are never skipped.
func (e *Engine) jump(start, first time.Time, rule Rule, from time.Time) (time.Time, int, bool) {
	if !e.fastForward {
		return time.Time{}, 0, false
	}
	if fixedCadence(rule) {
		index := lastIndexBefore(start, rule, from) + 1
		return occurrenceAt(start, rule, index), index, true
	}
	if days, interval, ok := dayFilter(rule); ok {
		anchorWeek := weekStart(start)
		index := listedBefore(anchorWeek, from, days, interval) - listedBefore(anchorWeek, first, days, interval)
		return firstListedFrom(anchorWeek, from, days, interval, start), index, true
	}
	return time.Time{}, 0, false
}

// lastIndexBefore returns the index of the last occurrence dated before from.
// The anchor must itself be before from.
func lastIndexBefore(anchor time.Time, rule Rule, from time.Time) int {
	n := max(estimateIndex(anchor, rule, from), 0)
	for n > 0 && !occurrenceAt(anchor, rule, n).Before(from) {
		n--
	}
	for occurrenceAt(anchor, rule, n+1).Before(from) {
		n++
	}
	return n
}

// expansion is the state of one Expand call
type expansion struct {
	engine     *Engine
	rule       Rule
	start      time.Time
	loc        *time.Location
	timed      bool
	endDate    mo.Option[time.Time]
	iterations int
}

// next advances through the calculator and enforces the safety invariants
func (x *expansion) next(cur time.Time) (time.Time, error) {
	ceiling := x.engine.config.IterationCeiling
	if x.iterations >= ceiling {
		return time.Time{}, &Error{
			Type:    ErrIterationCeiling,
			Message: fmt.Sprintf("expansion needed more than %d iterations", ceiling),
		}
	}
	x.iterations++

	next := x.engine.calc.Next(cur, x.rule, x.start)
	if !next.After(cur) {
		return time.Time{}, &Error{
			Type:    ErrNonMonotonic,
			Message: fmt.Sprintf("next occurrence %s is not after %s", next.Format(time.RFC3339), cur.Format(time.RFC3339)),
		}
	}
	return next, nil
}

// exhausted reports whether the rule's own end condition stops the series at
// the candidate cur with the given series index
func (x *expansion) exhausted(cur time.Time, index int) bool {
	if n, ok := x.rule.End.Count().Get(); ok && index >= n {
		return true
	}
	if end, ok := x.endDate.Get(); ok && floatingDate(cur).After(end) {
		return true
	}
	return false
}

// occurrence moves the floating candidate cur into the anchor's location
func (x *expansion) occurrence(cur time.Time, index int) Occurrence {
	if !x.timed {
		return Occurrence{
			Date:  dateIn(cur, x.loc),
			Time:  mo.None[TimeOfDay](),
			Index: index,
		}
	}
	instant := inLocation(cur, x.loc)
	return Occurrence{
		Date:  dateIn(instant, x.loc),
		Time:  mo.Some(Clock(instant)),
		Index: index,
	}
}
