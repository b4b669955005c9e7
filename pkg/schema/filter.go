package schema

import "strings"

// Filter returns the statements whose target table is not in existing,
// preserving their order. Table names are compared case-insensitively.
func Filter(stmts []Statement, existing []string) []Statement {
	present := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		present[strings.ToLower(t)] = struct{}{}
	}

	var pending []Statement
	for _, s := range stmts {
		if _, ok := present[s.Table]; !ok {
			pending = append(pending, s)
		}
	}

	return pending
}

// Tables returns the distinct target tables of stmts in first-seen order.
func Tables(stmts []Statement) []string {
	seen := make(map[string]struct{}, len(stmts))

	var tables []string
	for _, s := range stmts {
		if _, ok := seen[s.Table]; ok {
			continue
		}

		seen[s.Table] = struct{}{}
		tables = append(tables, s.Table)
	}

	return tables
}
