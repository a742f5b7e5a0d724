package week

import "slices"

// Buckets groups items by day. Every day of Days has an entry in ByDay, possibly
// empty. Items without a key, or whose key falls outside Days, are collected in Rest.
type Buckets[T any] struct {
	Days  []Date       `json:"days"`
	ByDay map[Date][]T `json:"by_day"`
	Rest  []T          `json:"rest"`
}

// Bucket places each item into exactly one bucket. The input order is preserved
// within each bucket.
func Bucket[T any](items []T, days []Date, key func(T) (Date, bool)) Buckets[T] {
	b := Buckets[T]{
		Days:  slices.Clone(days),
		ByDay: make(map[Date][]T, len(days)),
		Rest:  []T{},
	}
	for _, d := range days {
		b.ByDay[d] = []T{}
	}

	for _, item := range items {
		d, ok := key(item)
		if !ok {
			b.Rest = append(b.Rest, item)
			continue
		}
		bucket, inRange := b.ByDay[d]
		if !inRange {
			b.Rest = append(b.Rest, item)
			continue
		}
		b.ByDay[d] = append(bucket, item)
	}

	return b
}

// SortDays stably orders the items of every day bucket using compare.
// Rest is left untouched.
func (b Buckets[T]) SortDays(compare func(a, c T) int) {
	for _, items := range b.ByDay {
		slices.SortStableFunc(items, compare)
	}
}

// Len returns the total number of bucketed items.
func (b Buckets[T]) Len() int {
	n := len(b.Rest)
	for _, items := range b.ByDay {
		n += len(items)
	}
	return n
}

// Day returns the items for d. The result is nil when d is not one of Days.
func (b Buckets[T]) Day(d Date) []T {
	return b.ByDay[d]
}
