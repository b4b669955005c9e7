// Package schema applies DDL files to a live database idempotently.
//
// A schema file is a plain list of statements, each ending with a ";" at the
// end of a line. Lines starting with "--" or "#" are comments:
//
//	-- players
//	CREATE TABLE `{prefix}players` (
//	  id INT PRIMARY KEY,
//	  name VARCHAR(64) NOT NULL
//	) DEFAULT CHARSET = utf8mb4;
//
//	CREATE INDEX `{prefix}players_name` ON `{prefix}players` (name);
//
// # Pipeline
//
//   - ReadStatements splits the file into normalized statements
//   - Processors such as TablePrefix rewrite each statement
//   - Classify maps each statement to the table it affects
//   - Filter drops statements whose table already exists
//   - Applier executes what is left in a single transaction
//
// Every statement belongs to exactly one table, so a table that exists is
// assumed to be complete. Running Apply twice is a no-op the second time.
//
// # Usage
//
//	stmts, err := schema.Load(f, schema.TablePrefix(cfg.Schema.TablePrefix))
//	if err != nil {
//		return err
//	}
//
//	applier := schema.NewApplier(schema.ApplierConfig{
//		Executor:         exec,
//		Tables:           d,
//		CharsetFallbacks: cfg.Schema.CharsetFallbacks,
//	})
//
//	applied, err := applier.Apply(ctx, stmts)
//
// # Charset Fallback
//
// Older servers reject utf8mb4. When the batch fails with an "unknown
// character set" error the applier rewrites the charset tokens using
// CharsetFallbacks (utf8mb4 -> utf8 by default) and tries exactly once more.
package schema
