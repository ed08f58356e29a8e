// Package calendar computes the layout of a day column of the timetable:
// which horizontal slot each event takes so that overlapping events render
// side by side, and where their boxes go on the rendering surface.
package calendar

import "sort"

// MinDuration is the duration, in minutes, given to zero-length or malformed events.
const MinDuration = 15

// Event is a scheduled occurrence within one calendar day.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start Clock  `json:"start"`
	End   Clock  `json:"end"`
}

// Span returns the [start, end) interval used for the layout.
// Missing bounds are derived from the other one (or the day origin),
// and the duration is floored to MinDuration.
func (e Event) Span() (start, end Clock) {
	start, end = e.Start, e.End
	if !start.Valid() {
		if end.Valid() {
			start = end - MinDuration
			if start < 0 {
				start = 0
			}
		} else {
			start = 0
		}
	}
	if !end.Valid() || end-start < MinDuration {
		end = start + MinDuration
	}
	return start, end
}

// Overlaps reports whether the spans of e and o intersect.
func (e Event) Overlaps(o Event) bool {
	s1, e1 := e.Span()
	s2, e2 := o.Span()
	return s1 < e2 && s2 < e1
}

// PositionedEvent is an Event with its slot in the day column.
type PositionedEvent struct {
	Event
	Column       int `json:"column"`
	TotalColumns int `json:"total_columns"`
}

type span struct {
	start, end Clock
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Layout assigns a column to every event of one day so that overlapping events never share a column,
// and gives every member of an overlap cluster the same TotalColumns: the number of columns the cluster needs.
// The result holds one PositionedEvent per event, in input order.
func Layout(events []Event) []PositionedEvent {
	n := len(events)
	out := make([]PositionedEvent, n)
	if n == 0 {
		return out
	}

	spans := make([]span, n)
	order := make([]int, n)
	for i, e := range events {
		start, end := e.Span()
		spans[i] = span{start: start, end: end}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return spans[order[a]].start < spans[order[b]].start })

	columns := make([]int, n)
	totals := make([]int, n)
	for pos, i := range order {
		used := make(map[int]bool)
		neighbours := make([]int, 0)
		for _, j := range order[:pos] {
			if spans[i].overlaps(spans[j]) {
				used[columns[j]] = true
				neighbours = append(neighbours, j)
			}
		}

		// first fit
		col := 0
		for used[col] {
			col++
		}
		columns[i] = col

		need := col + 1
		for _, j := range neighbours {
			if totals[j] > need {
				need = totals[j]
			}
		}
		totals[i] = need
		for _, j := range neighbours {
			if totals[j] < need {
				totals[j] = need
			}
		}
	}

	// reconcile overlapping pairs until no pair disagrees, so that chains converge to their cluster maximum
	for changed := true; changed; {
		changed = false
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				if totals[a] == totals[b] || !spans[a].overlaps(spans[b]) {
					continue
				}
				if totals[a] > totals[b] {
					totals[b] = totals[a]
				} else {
					totals[a] = totals[b]
				}
				changed = true
			}
		}
	}

	for i, e := range events {
		out[i] = PositionedEvent{Event: e, Column: columns[i], TotalColumns: totals[i]}
	}
	return out
}

// Clusters groups the indexes of `events` by overlap cluster, each group sorted by start.
func Clusters(events []Event) [][]int {
	order := make([]int, len(events))
	spans := make([]span, len(events))
	for i, e := range events {
		start, end := e.Span()
		spans[i] = span{start: start, end: end}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return spans[order[a]].start < spans[order[b]].start })

	var (
		clusters [][]int
		current  []int
		reach    Clock
	)
	for _, i := range order {
		if len(current) > 0 && spans[i].start >= reach {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, i)
		if spans[i].end > reach || len(current) == 1 {
			reach = spans[i].end
		}
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}
