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

// ParseOrdering parses a comma separated list of fields ("-" prefix for descending),
// keeping only the fields present in `allowed`.
func ParseOrdering(raw string, allowed ...string) []DBOrdering {
	if raw == "" {
		return nil
	}
	var orderings []DBOrdering
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		for _, a := range allowed {
			if a == field {
				orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
				break
			}
		}
	}
	return orderings
}
