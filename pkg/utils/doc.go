// Package utils provides small helpers shared across txkeeper packages.
//
// # Identifier Utilities (identifier.go)
//
// Schema statements may delimit table names with backticks, double quotes or
// single quotes. The identifier helpers recognise and remove a matching pair:
//
//	if utils.IsQuoted(tok) {
//		name := utils.StripQuotes(tok)
//		// "`Players`" -> "Players"
//	}
//
// Mismatched or empty pairs are left untouched.
package utils
