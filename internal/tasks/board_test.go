package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/szymon/internal/week"
)

func due(s string) *week.Date {
	d := week.MustParseDate(s)
	return &d
}

func TestBucketByDue(t *testing.T) {
	w := week.WeekOf(week.MustParseDate("2025-03-05"))

	items := []Task{
		{ID: "done", Title: "B", Status: StatusCompleted, Due: due("2025-03-04")},
		{ID: "open", Title: "A", Status: StatusNeedsAction, Due: due("2025-03-04")},
		{ID: "nodue", Title: "C", Status: StatusNeedsAction},
		{ID: "later", Title: "D", Status: StatusNeedsAction, Due: due("2025-03-10")},
		{ID: "sunday", Title: "E", Status: StatusNeedsAction, Due: due("2025-03-09")},
	}

	b := BucketByDue(items, w)
	require.Len(t, b.Days, 7)
	assert.Equal(t, len(items), b.Len())

	tuesday := b.Day(week.MustParseDate("2025-03-04"))
	require.Len(t, tuesday, 2)
	assert.Equal(t, "open", tuesday[0].ID)
	assert.Equal(t, "done", tuesday[1].ID)

	assert.Len(t, b.Day(week.MustParseDate("2025-03-09")), 1)
	assert.Empty(t, b.Day(week.MustParseDate("2025-03-03")))

	require.Len(t, b.Rest, 2)
	assert.Equal(t, "nodue", b.Rest[0].ID)
	assert.Equal(t, "later", b.Rest[1].ID)
}
