package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings keeps the orderings whose Field is a key of `columns`, replacing it by the mapped column.
// Unknown fields are dropped so that orderings can be interpolated into queries.
func AllowedOrderings(ordering []DBOrdering, columns map[string]string) []DBOrdering {
	if len(ordering) == 0 {
		return nil
	}
	allowed := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := columns[strings.ToLower(ord.Field)]; ok {
			allowed = append(allowed, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return allowed
}

// OrderByClause joins orderings into an `ORDER BY` clause, or returns `fallback` when none is given.
func OrderByClause(ordering []DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
