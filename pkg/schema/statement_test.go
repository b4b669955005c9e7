package schema_test

import (
	"strings"
	"testing"

	"github.com/pseudomuto/txkeeper/pkg/fault"
	. "github.com/pseudomuto/txkeeper/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		kind  Kind
		table string
	}{
		{name: "create table double quotes", text: `CREATE TABLE "Foo" (id INT)`, kind: CreateTable, table: "foo"},
		{name: "alter table backticks", text: "ALTER TABLE `Foo` ADD COLUMN x", kind: AlterTable, table: "foo"},
		{name: "create index single quotes", text: "CREATE INDEX ix ON 'Foo'(x)", kind: CreateIndex, table: "foo"},
		{name: "create unique index", text: "CREATE UNIQUE INDEX `ix_name` ON `players` (`name`)", kind: CreateIndex, table: "players"},
		{name: "create table if not exists", text: "CREATE TABLE IF NOT EXISTS `Players` (id INT)", kind: CreateTable, table: "players"},
		{name: "quoted index name", text: "CREATE INDEX `ix` ON \"scores\" (player_id)", kind: CreateIndex, table: "scores"},
		{name: "mixed quotes in body", text: "CREATE TABLE `notes` (body TEXT DEFAULT 'it''s', tag VARCHAR(8) DEFAULT \"\")", kind: CreateTable, table: "notes"},
		{name: "table name only", text: "CREATE TABLE `bare`", kind: CreateTable, table: "bare"},
		{name: "mixed name delimiters", text: "CREATE TABLE `Foo\" (id INT)", kind: CreateTable, table: "foo"},
		{name: "mixed delimiters on index target", text: "CREATE INDEX ix ON 'scores` (x)", kind: CreateIndex, table: "scores"},
		{name: "dotted name", text: "ALTER TABLE `App.Players` ADD COLUMN age INT", kind: AlterTable, table: "app.players"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Classify(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.text, stmt.Text)
			require.Equal(t, tt.kind, stmt.Kind)
			require.Equal(t, tt.table, stmt.Table)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "insert", text: "INSERT INTO `players` VALUES (1)"},
		{name: "unquoted table", text: "CREATE TABLE players (id INT)"},
		{name: "lower case keywords", text: "create table `players` (id INT)"},
		{name: "drop table", text: "DROP TABLE `players`"},
		{name: "create view", text: "CREATE VIEW `v` AS SELECT 1"},
		{name: "index without target", text: "CREATE INDEX ix ON players (x)"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.text)
			require.ErrorIs(t, err, ErrUnknownStatement)
		})
	}
}

func TestParseStatements(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stmts, err := ParseStatements([]string{
			"CREATE TABLE `a` (id INT)",
			"CREATE INDEX ix ON `a` (id)",
		})
		require.NoError(t, err)
		require.Len(t, stmts, 2)
		require.Equal(t, []string{"a"}, Tables(stmts))
	})

	t.Run("unknown statements fail the whole file", func(t *testing.T) {
		stmts, err := ParseStatements([]string{
			"CREATE TABLE `a` (id INT)",
			"GRANT ALL ON `a` TO app",
		})
		require.Nil(t, stmts)
		require.True(t, fault.IsKind(err, fault.KindSchema))
		require.ErrorIs(t, err, ErrUnknownStatement)
		require.True(t, strings.Contains(err.Error(), "GRANT ALL"))
	})
}
