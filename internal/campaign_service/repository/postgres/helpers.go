package postgres

import "strings"

// prefixColumns qualifies a comma-separated column list with a table alias,
// for use in UPDATE ... RETURNING clauses.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
