// Package schedule expands every reminder in a store into an agenda that a
// notification scheduler or calendar view can consume.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/cyp0633/libremind/classify"
	"github.com/cyp0633/libremind/recurrence"
	"github.com/cyp0633/libremind/reminder"
)

// DefaultMaxPerReminder caps the occurrences one reminder contributes to a plan
const DefaultMaxPerReminder = 500

// Planner batch-expands reminders. Expansion of each reminder is
// independent, so the planner fans out over a bounded worker pool.
type Planner struct {
	Engine         *recurrence.Engine
	Store          reminder.Store
	Clock          Clock
	Workers        int // defaults to GOMAXPROCS
	MaxPerReminder int // defaults to DefaultMaxPerReminder
	Lookback       int // days before today to include, so recent overdue items show up
	Logger         *slog.Logger
}

// Entry is one agenda line
type Entry struct {
	recurrence.Occurrence
	Title   string
	Overdue bool
}

// Failure records a reminder that could not be expanded
type Failure struct {
	ReminderID string
	Err        error
	Internal   bool // the engine broke an invariant, as opposed to bad input
}

// Agenda is the outcome of one planning pass
type Agenda struct {
	Now      time.Time
	Window   recurrence.Window
	Entries  []Entry                      // ordered by instant, then priority
	Markers  map[time.Time]recurrence.Kind // dominant kind per calendar day
	Results  map[string]mo.Result[[]recurrence.Occurrence]
	Failures []Failure // ordered by reminder id
}

// Plan expands every stored reminder over [today-Lookback, today+days].
// Per-reminder failures are reported in the agenda; the returned error is
// reserved for store failures and cancellation.
func (p *Planner) Plan(ctx context.Context, days int) (*Agenda, error) {
	now, window := p.window(days)

	records, err := p.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return p.build(ctx, now, window, records)
}

// PlanReminder builds the agenda of a single stored reminder, for hosts that
// re-arm one reminder after it was edited
func (p *Planner) PlanReminder(ctx context.Context, id string, days int) (*Agenda, error) {
	now, window := p.window(days)

	record, err := p.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	return p.build(ctx, now, window, []*reminder.Record{record})
}

func (p *Planner) window(days int) (time.Time, recurrence.Window) {
	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}
	now := clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	window := recurrence.Window{
		From:     today.AddDate(0, 0, -p.Lookback),
		To:       today.AddDate(0, 0, days),
		MaxCount: p.MaxPerReminder,
	}
	if window.MaxCount <= 0 {
		window.MaxCount = DefaultMaxPerReminder
	}
	return now, window
}

// build expands records in parallel and assembles the agenda
func (p *Planner) build(ctx context.Context, now time.Time, window recurrence.Window, records []*reminder.Record) (*Agenda, error) {
	log := p.logger()
	log.Debug("planning agenda",
		"reminders", len(records),
		"from", window.From.Format(time.DateOnly),
		"to", window.To.Format(time.DateOnly))

	results := make([]mo.Result[[]recurrence.Occurrence], len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.expand(rec, window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agenda := &Agenda{
		Now:     now,
		Window:  window,
		Results: make(map[string]mo.Result[[]recurrence.Occurrence], len(records)),
	}
	var all []recurrence.Occurrence
	for i, rec := range records {
		result := results[i]
		agenda.Results[rec.ID] = result

		occurrences, err := result.Get()
		if err != nil {
			agenda.Failures = append(agenda.Failures, Failure{
				ReminderID: rec.ID,
				Err:        err,
				Internal:   recurrence.IsInternal(err),
			})
			continue
		}
		for _, o := range occurrences {
			agenda.Entries = append(agenda.Entries, Entry{
				Occurrence: o,
				Title:      rec.Title,
				Overdue:    classify.IsOverdue(o, now),
			})
		}
		all = append(all, occurrences...)
	}

	sort.SliceStable(agenda.Entries, func(i, j int) bool {
		a, b := agenda.Entries[i], agenda.Entries[j]
		if !a.Instant().Equal(b.Instant()) {
			return a.Instant().Before(b.Instant())
		}
		if ra, rb := classify.Rank(a.Kind), classify.Rank(b.Kind); ra != rb {
			return ra > rb
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.Index < b.Index
	})
	sort.Slice(agenda.Failures, func(i, j int) bool {
		return agenda.Failures[i].ReminderID < agenda.Failures[j].ReminderID
	})
	agenda.Markers = classify.DominantByDay(all)

	log.Info("agenda planned",
		"entries", len(agenda.Entries),
		"failures", len(agenda.Failures))
	return agenda, nil
}

// expand converts and expands one record, logging failures by severity
func (p *Planner) expand(rec *reminder.Record, window recurrence.Window) mo.Result[[]recurrence.Occurrence] {
	log := p.logger()

	r, err := rec.Reminder()
	if err != nil {
		log.Warn("skipping malformed reminder",
			"reminder_id", rec.ID,
			"error", err)
		return mo.Err[[]recurrence.Occurrence](err)
	}

	occurrences, err := p.Engine.ExpandReminder(r, window)
	if err != nil {
		if recurrence.IsInternal(err) {
			log.Error("recurrence engine invariant violated",
				"reminder_id", rec.ID,
				"error", err)
		} else {
			log.Warn("reminder rejected by engine",
				"reminder_id", rec.ID,
				"error", err)
		}
		return mo.Err[[]recurrence.Occurrence](err)
	}
	return mo.Ok(occurrences)
}

func (p *Planner) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Day returns the entries placed on the calendar date of d
func (a *Agenda) Day(d time.Time) []Entry {
	var out []Entry
	y, m, dd := d.Date()
	for _, e := range a.Entries {
		ey, em, ed := e.Date.Date()
		if ey == y && em == m && ed == dd {
			out = append(out, e)
		}
	}
	return out
}

// Overdue returns the entries that were due before the agenda's now
func (a *Agenda) Overdue() []Entry {
	var out []Entry
	for _, e := range a.Entries {
		if e.Overdue {
			out = append(out, e)
		}
	}
	return out
}

// Days returns the calendar dates that have at least one marker, ascending
func (a *Agenda) Days() []time.Time {
	days := make([]time.Time, 0, len(a.Markers))
	for d := range a.Markers {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
