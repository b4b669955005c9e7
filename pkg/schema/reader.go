package schema

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/fault"
)

// maxLineSize bounds a single schema line.
const maxLineSize = 1024 * 1024

// ReadStatements splits a DDL stream into statements.
//
// Lines starting with "--" or "#" are skipped. Every other line is added to
// the current statement, which ends at the first line whose last character is
// ";". The terminator is dropped and runs of whitespace collapse to a single
// space. Empty statements are discarded and text after the last terminator is
// ignored.
//
// Example:
//
//	f, err := os.Open("schema.sql")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	stmts, err := schema.ReadStatements(f)
func ReadStatements(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		statements []string
		buf        strings.Builder
	)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !strings.HasSuffix(line, ";") {
			continue
		}

		stmt := strings.TrimSuffix(buf.String(), ";")
		if stmt = strings.Join(strings.Fields(stmt), " "); stmt != "" {
			statements = append(statements, stmt)
		}
		buf.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fault.New(fault.KindSchema, "read", 0, errors.Wrap(err, "failed to read schema"))
	}

	return statements, nil
}
