package shared

import (
	"strconv"
	"strings"
)

// Clause accumulates WHERE conditions with numbered placeholders. Every list
// query starts from the lifecycle condition selected by ListFilters.Trashed.
type Clause struct {
	conds []string
	args  []any
}

// NewClause starts a clause for alias (e.g. "p." or "") and adds an ILIKE
// search over searchCols when filters carry a search term.
func NewClause(filters ListFilters, alias string, searchCols ...string) *Clause {
	c := &Clause{}
	if filters.Trashed {
		c.conds = append(c.conds, alias+"deleted_at IS NOT NULL")
	} else {
		c.conds = append(c.conds, alias+"deleted_at IS NULL")
	}
	if term := strings.TrimSpace(filters.Search); term != "" && len(searchCols) > 0 {
		ph := c.bind("%" + term + "%")
		parts := make([]string, len(searchCols))
		for i, col := range searchCols {
			parts[i] = col + " ILIKE " + ph
		}
		c.conds = append(c.conds, "("+strings.Join(parts, " OR ")+")")
	}
	return c
}

// Add appends cond, replacing each "?" with the placeholder bound to arg.
func (c *Clause) Add(cond string, arg any) {
	c.conds = append(c.conds, strings.ReplaceAll(cond, "?", c.bind(arg)))
}

// SQL renders " WHERE ..." for the accumulated conditions.
func (c *Clause) SQL() string {
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// Args returns the bound arguments.
func (c *Clause) Args() []any {
	return c.args
}

// Page returns a LIMIT/OFFSET suffix and the arguments including it. The
// clause itself is left untouched so it can still serve the count query.
func (c *Clause) Page(filters ListFilters) (string, []any) {
	if filters.Limit <= 0 {
		return "", c.args
	}
	args := append(append([]any{}, c.args...), filters.Limit, filters.Offset())
	n := len(c.args)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}

func (c *Clause) bind(arg any) string {
	c.args = append(c.args, arg)
	return "$" + strconv.Itoa(len(c.args))
}

// OrderBy maps a requested sort column onto an allow-list, defaulting to fallback.
func OrderBy(allowed map[string]string, sortBy, sortDir, fallback string) string {
	dir := "ASC"
	if sortDir == SortDesc {
		dir = "DESC"
	}
	col, ok := allowed[sortBy]
	if !ok {
		col = fallback
	}
	return " ORDER BY " + col + " " + dir
}
