package database

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Builder produces '?' placeholders, which GORM rewrites for the active
// dialect when the fragment is passed to Where or Exec.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a search term into a LIKE pattern that matches it as
// a literal substring.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// LowerLike matches column case-insensitively against a pattern built by
// ContainsPattern. Both sides are folded by the database's LOWER.
func LowerLike(column, pattern string) sq.Sqlizer {
	return sq.Expr("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", pattern)
}

// ContainsAny matches when the term is a case-insensitive substring of any of
// the columns.
func ContainsAny(term string, columns ...string) sq.Or {
	pattern := ContainsPattern(term)
	or := make(sq.Or, 0, len(columns))
	for _, c := range columns {
		or = append(or, LowerLike(c, pattern))
	}
	return or
}

// inSubquery renders "column IN (subquery)".
type inSubquery struct {
	column string
	query  sq.SelectBuilder
}

// InSubquery restricts column to the values produced by query.
func InSubquery(column string, query sq.SelectBuilder) sq.Sqlizer {
	return inSubquery{column: column, query: query}
}

func (s inSubquery) ToSql() (string, []interface{}, error) {
	sql, args, err := s.query.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build subquery for %s: %w", s.column, err)
	}
	return s.column + " IN (" + sql + ")", args, nil
}

// Predicate renders a squirrel condition into a SQL fragment and its
// arguments, ready for gorm's Where.
func Predicate(cond sq.Sqlizer) (string, []interface{}, error) {
	sql, args, err := cond.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build SQL predicate: %w", err)
	}
	return sql, args, nil
}
