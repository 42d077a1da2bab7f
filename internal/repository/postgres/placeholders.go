package postgres

import (
	"strconv"
	"strings"
)

// InClause renders a parameterized placeholder list for a variable-length
// IN (...) predicate, numbering placeholders from start, and returns the
// matching argument slice. It is pure and independent of any call site.
//
// InClause(2, []string{"a", "b"}) -> "$2,$3", []any{"a", "b"}
func InClause(start int, vals []string) (string, []any) {
	if len(vals) == 0 {
		return "", nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(vals))
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(start + i))
		args = append(args, v)
	}
	return sb.String(), args
}
