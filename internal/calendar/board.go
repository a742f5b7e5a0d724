package calendar

import (
	"cmp"
	"time"

	"github.com/teemow/szymon/internal/week"
)

// BucketByStart groups events by the day they start on, observed in loc, over the
// days of w. Events starting outside the week end up in Rest. Within a day all-day
// events come first, then events ordered by start.
func BucketByStart(events []Event, w week.Week, loc *time.Location) week.Buckets[Event] {
	if loc == nil {
		loc = time.UTC
	}

	b := week.Bucket(events, w.Days(), func(e Event) (week.Date, bool) {
		return e.Start.Day(loc)
	})
	b.SortDays(func(a, c Event) int {
		return compareEvents(a, c, loc)
	})
	return b
}

func compareEvents(a, b Event, loc *time.Location) int {
	if a.Start.AllDay() != b.Start.AllDay() {
		if a.Start.AllDay() {
			return -1
		}
		return 1
	}
	return cmp.Or(
		a.Start.Instant(loc).Compare(b.Start.Instant(loc)),
		cmp.Compare(a.Summary, b.Summary),
		cmp.Compare(a.ID, b.ID),
	)
}
