package schema

import (
	"io"
	"sort"
	"strings"

	"github.com/pseudomuto/txkeeper/pkg/consts"
)

// Processor rewrites statement text before it is classified.
type Processor func(string) string

// TablePrefix replaces every {prefix} placeholder with prefix.
func TablePrefix(prefix string) Processor {
	return func(s string) string {
		return strings.ReplaceAll(s, consts.TablePrefixPlaceholder, prefix)
	}
}

// CharsetFallback replaces each charset token in fallbacks with its
// replacement. Tokens are matched in their lower and upper case spellings,
// longest token first so overlapping names rewrite predictably.
func CharsetFallback(fallbacks map[string]string) Processor {
	from := make([]string, 0, len(fallbacks))
	for k := range fallbacks {
		from = append(from, k)
	}

	sort.Slice(from, func(i, j int) bool {
		if len(from[i]) != len(from[j]) {
			return len(from[i]) > len(from[j])
		}
		return from[i] < from[j]
	})

	pairs := make([]string, 0, len(from)*4)
	for _, k := range from {
		v := fallbacks[k]
		pairs = append(pairs, strings.ToLower(k), strings.ToLower(v), strings.ToUpper(k), strings.ToUpper(v))
	}

	r := strings.NewReplacer(pairs...)
	return r.Replace
}

// Load reads, rewrites and classifies the statements in r.
//
// Example:
//
//	stmts, err := schema.Load(f, schema.TablePrefix("dc_"))
//	if err != nil {
//		return err // a *fault.Error of kind fault.KindSchema
//	}
func Load(r io.Reader, processors ...Processor) ([]Statement, error) {
	texts, err := ReadStatements(r)
	if err != nil {
		return nil, err
	}

	for i := range texts {
		for _, p := range processors {
			texts[i] = p(texts[i])
		}
	}

	return ParseStatements(texts)
}

func rewrite(stmts []Statement, p Processor) []Statement {
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		s.Text = p(s.Text)
		out[i] = s
	}

	return out
}
