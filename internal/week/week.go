package week

import "time"

// Week is a seven-day span starting on a Monday.
type Week struct {
	Start Date
}

// WeekOf returns the Monday-start week containing d.
func WeekOf(d Date) Week {
	// time.Weekday counts from Sunday=0; shift so Monday=0.
	offset := (int(Weekday(d)) + 6) % 7
	return Week{Start: d.AddDays(-offset)}
}

// Current returns the week containing now as observed in loc.
func Current(now time.Time, loc *time.Location) Week {
	return WeekOf(DateIn(now, loc))
}

// Days returns the seven dates of the week, Monday first.
func (w Week) Days() []Date {
	days := make([]Date, 7)
	for i := range days {
		days[i] = w.Start.AddDays(i)
	}
	return days
}

// End returns the Sunday closing the week.
func (w Week) End() Date {
	return w.Start.AddDays(6)
}

// Contains reports whether d falls within the week.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End())
}

// Next returns the following week.
func (w Week) Next() Week {
	return Week{Start: w.Start.AddDays(7)}
}

// Prev returns the preceding week.
func (w Week) Prev() Week {
	return Week{Start: w.Start.AddDays(-7)}
}

// Range returns the half-open interval [Monday 00:00, next Monday 00:00) in loc.
func (w Week) Range(loc *time.Location) (time.Time, time.Time) {
	return Midnight(w.Start, loc), Midnight(w.Next().Start, loc)
}

func (w Week) String() string {
	return w.Start.String()
}
