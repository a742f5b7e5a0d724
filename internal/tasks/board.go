package tasks

import (
	"cmp"

	"github.com/teemow/szymon/internal/week"
)

// BucketByDue groups tasks by due date over the days of w. Tasks without a due date
// or due outside the week end up in Rest. Within a day open tasks come first.
func BucketByDue(items []Task, w week.Week) week.Buckets[Task] {
	b := week.Bucket(items, w.Days(), Task.DueDate)
	b.SortDays(compareTasks)
	return b
}

func compareTasks(a, b Task) int {
	if a.IsCompleted() != b.IsCompleted() {
		if a.IsCompleted() {
			return 1
		}
		return -1
	}
	return cmp.Or(
		cmp.Compare(a.Position, b.Position),
		cmp.Compare(a.Title, b.Title),
		cmp.Compare(a.ID, b.ID),
	)
}
