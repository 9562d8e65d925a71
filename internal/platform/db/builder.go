package db

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// SQL builds PostgreSQL statements with $n placeholders.
var SQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Paginate applies limit/offset when limit is positive.
func Paginate(b sq.SelectBuilder, limit, offset uint64) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(limit)
	}
	if offset > 0 {
		b = b.Offset(offset)
	}
	return b
}

// Search adds a case-insensitive substring match across columns.
func Search(b sq.SelectBuilder, term string, columns ...string) sq.SelectBuilder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: "%" + term + "%"})
	}
	return b.Where(or)
}

// NullString maps the empty string to SQL NULL.
func NullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
