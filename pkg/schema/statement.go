package schema

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/fault"
	"github.com/pseudomuto/txkeeper/pkg/utils"
)

type (
	// Kind is the shape of a recognised schema statement.
	Kind string

	// Statement is a single DDL statement together with the table it affects.
	Statement struct {
		// Text is the statement as it will be executed
		Text string

		// Kind is the matched statement shape
		Kind Kind

		// Table is the lower-cased target table name
		Table string
	}

	statementGrammar struct {
		AlterTable  *tableTarget `parser:"  'ALTER' 'TABLE' @@"`
		CreateIndex *tableTarget `parser:"| 'CREATE' 'UNIQUE'? 'INDEX' (~'ON')* 'ON' @@"`
		CreateTable *tableTarget `parser:"| 'CREATE' 'TABLE' ('IF' 'NOT' 'EXISTS')? @@"`
	}

	tableTarget struct {
		Name string   `parser:"@Quoted"`
		Rest []string `parser:"@(Quoted | Quote | Word)*"`
	}
)

const (
	AlterTable  Kind = "ALTER TABLE"
	CreateIndex Kind = "CREATE INDEX"
	CreateTable Kind = "CREATE TABLE"
)

// ErrUnknownStatement is returned for statements that match none of the
// supported shapes.
var ErrUnknownStatement = errors.New("unknown statement type")

var (
	statementLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Quoted", Pattern: "[`\"'][^`\"']+[`\"']"},
		{Name: "Quote", Pattern: "[`\"']"},
		{Name: "Word", Pattern: "[^\\s`\"']+"},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	statementParser = participle.MustBuild[statementGrammar](
		participle.Lexer(statementLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
)

// Classify determines which table a statement targets.
//
// The statement must have one of these shapes, checked in order, where the
// name is delimited by backticks, double quotes or single quotes. The opening
// and closing delimiters need not match:
//
//	ALTER TABLE `name` ...
//	CREATE [UNIQUE] INDEX ... ON `name` ...
//	CREATE TABLE [IF NOT EXISTS] `name` ...
//
// Keywords are matched case-sensitively. Anything else fails with
// ErrUnknownStatement.
func Classify(text string) (Statement, error) {
	g, err := statementParser.ParseString("", text)
	if err != nil {
		return Statement{}, errors.Wrapf(ErrUnknownStatement, "%s", text)
	}

	stmt := Statement{Text: text}
	switch {
	case g.AlterTable != nil:
		stmt.Kind, stmt.Table = AlterTable, g.AlterTable.table()
	case g.CreateIndex != nil:
		stmt.Kind, stmt.Table = CreateIndex, g.CreateIndex.table()
	case g.CreateTable != nil:
		stmt.Kind, stmt.Table = CreateTable, g.CreateTable.table()
	default:
		return Statement{}, errors.Wrapf(ErrUnknownStatement, "%s", text)
	}

	return stmt, nil
}

// ParseStatements classifies every statement, failing on the first one that
// cannot be recognised.
func ParseStatements(texts []string) ([]Statement, error) {
	stmts := make([]Statement, 0, len(texts))
	for _, text := range texts {
		stmt, err := Classify(text)
		if err != nil {
			return nil, fault.New(fault.KindSchema, "classify", 0, err)
		}

		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

func (t *tableTarget) table() string {
	return strings.ToLower(utils.StripQuotes(t.Name))
}
