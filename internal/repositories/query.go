package repositories

import (
	"fmt"
	"strings"
)

// queryBuilder collects positional WHERE clauses for list queries.
type queryBuilder struct {
	base    string
	clauses []string
	args    []any
	argIdx  int
}

func newQueryBuilder(base string) *queryBuilder {
	return &queryBuilder{base: base, argIdx: 1}
}

// where adds a clause with a single %d placeholder for the next argument.
func (q *queryBuilder) where(clause string, arg any) {
	q.clauses = append(q.clauses, fmt.Sprintf(clause, q.argIdx))
	q.args = append(q.args, arg)
	q.argIdx++
}

func (q *queryBuilder) page(orderBy string, limit, offset int) (string, []any) {
	query := q.base
	if len(q.clauses) > 0 {
		query += " WHERE " + strings.Join(q.clauses, " AND ")
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" %s LIMIT $%d OFFSET $%d", orderBy, q.argIdx, q.argIdx+1)
	return query, append(q.args, limit, offset)
}
