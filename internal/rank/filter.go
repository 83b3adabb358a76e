package rank

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps the rows whose key name contains term, ignoring case. Positions
// are those of the unfiltered ranking. An empty term keeps every row.
func Filter(rows []Row, term string) []Row {
	term = strings.TrimSpace(term)
	if term == "" {
		return rows
	}
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(fold.String(r.Key.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}
