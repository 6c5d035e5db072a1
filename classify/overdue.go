package classify

import (
	"time"

	"github.com/cyp0633/libremind/recurrence"
)

// DueInstant returns when o becomes due. Untimed occurrences are due at the
// end of their day, 23:59:59.999 local.
func DueInstant(o recurrence.Occurrence) time.Time {
	if tod, ok := o.Time.Get(); ok {
		return tod.On(o.Date)
	}
	y, m, d := o.Date.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), o.Date.Location())
}

// IsOverdue reports whether o was due before now. Completed occurrences are
// never overdue.
func IsOverdue(o recurrence.Occurrence, now time.Time) bool {
	if o.Completed {
		return false
	}
	return DueInstant(o).Before(now)
}
