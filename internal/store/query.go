package store

import "strings"

// RunFilter narrows ListRuns to matching rows. Zero-value fields do not
// constrain; the zero filter matches every run.
type RunFilter struct {
	Status string
	Tag    string
	User   string
}

// IsZero reports whether the filter constrains nothing.
func (f RunFilter) IsZero() bool {
	return f == RunFilter{}
}

// Listings always come back in start order with the id as tiebreaker.
// COLLATE BINARY pins text ordering so it cannot drift with connection
// settings.
const runOrder = ` ORDER BY start_time_ns ASC, id COLLATE BINARY ASC`

// where compiles the filter to a parameterized clause. Fields are emitted in
// a fixed order and values never appear in the SQL text, so equal filters
// always compile to the identical statement.
func (f RunFilter) where() (string, []any) {
	var (
		clauses []string
		params  []any
	)
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		params = append(params, f.Status)
	}
	if f.Tag != "" {
		clauses = append(clauses, "tag = ?")
		params = append(params, f.Tag)
	}
	if f.User != "" {
		clauses = append(clauses, "user = ?")
		params = append(params, f.User)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}
