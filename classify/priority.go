// Package classify ranks occurrence kinds and decides whether an occurrence
// is overdue. Every function is pure; "now" is always a parameter.
package classify

import (
	"fmt"
	"time"

	"github.com/cyp0633/libremind/recurrence"
)

// Rank returns the display priority of kind, higher wins
func Rank(kind recurrence.Kind) int {
	switch kind {
	case recurrence.Note:
		return 1
	case recurrence.Task:
		return 2
	case recurrence.Event:
		return 3
	case recurrence.Medication:
		return 4
	case recurrence.Bill:
		return 5
	}
	return 0
}

// PickDominant returns the highest ranked kind. Calling it without kinds is a
// programming error and panics.
func PickDominant(kinds ...recurrence.Kind) recurrence.Kind {
	if len(kinds) == 0 {
		panic("classify.PickDominant: no kinds")
	}
	dominant := kinds[0]
	for _, k := range kinds[1:] {
		if Rank(k) > Rank(dominant) {
			dominant = k
		}
	}
	if Rank(dominant) == 0 {
		panic(fmt.Sprintf("classify.PickDominant: unknown kind %s", dominant))
	}
	return dominant
}

// DominantByDay groups occurrences by calendar date and picks the marker kind
// for each day
func DominantByDay(occurrences []recurrence.Occurrence) map[time.Time]recurrence.Kind {
	markers := make(map[time.Time]recurrence.Kind)
	for _, o := range occurrences {
		d := o.Day()
		if current, ok := markers[d]; ok {
			markers[d] = PickDominant(current, o.Kind)
		} else {
			markers[d] = PickDominant(o.Kind)
		}
	}
	return markers
}
