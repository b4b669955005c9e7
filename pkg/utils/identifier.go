package utils

import "strings"

// identifierQuotes are the characters that may delimit an identifier in DDL.
const identifierQuotes = "`\"'"

// IsQuoted checks if a string is wrapped in identifier quotes (backticks,
// double quotes or single quotes). Either quote may open or close the name.
//
// Examples:
//   - "`table`" -> true
//   - "\"table\"" -> true
//   - "'table'" -> true
//   - "`table\"" -> true (mixed)
//   - "table" -> false
//   - "``" -> false (empty)
func IsQuoted(s string) bool {
	if len(s) < 3 {
		return false
	}

	return strings.IndexByte(identifierQuotes, s[0]) >= 0 &&
		strings.IndexByte(identifierQuotes, s[len(s)-1]) >= 0
}

// StripQuotes removes the surrounding identifier quotes if present.
//
// Examples:
//   - "`Players`" -> "Players"
//   - "'scores'" -> "scores"
//   - "plain" -> "plain"
func StripQuotes(s string) string {
	if !IsQuoted(s) {
		return s
	}

	return s[1 : len(s)-1]
}
