package sqlstore

import (
	"fmt"
	"strings"
)

// DefaultTable is the default name of the ledger table.
const DefaultTable = "seeders"

// TableConfig configures the ledger table.
type TableConfig struct {
	// Table is the name of the table storing ledger entries.
	Table string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Table: DefaultTable,
	}
}

// CreateStatements returns the statements that provision the ledger table,
// one statement per element so that drivers without multi-statement support
// can execute them. The table has columns seed, env and batch, a unique index
// on (env, seed) and an index on (env, batch).
func CreateStatements(dialect Dialect, config TableConfig) []string {
	table := config.Table
	switch dialect {
	case MySQL:
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    seed VARCHAR(255) NOT NULL,
    env VARCHAR(255) NOT NULL,
    batch INT NOT NULL,
    UNIQUE KEY idx_%s_env_seed (env, seed),
    KEY idx_%s_env_batch (env, batch)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table, table, table)}
	case SQLite:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    seed TEXT NOT NULL,
    env TEXT NOT NULL,
    batch INTEGER NOT NULL
)`, table),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_env_seed ON %s (env, seed)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_env_batch ON %s (env, batch)`, table, table),
		}
	default:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    seed VARCHAR(255) NOT NULL,
    env VARCHAR(255) NOT NULL,
    batch INTEGER NOT NULL
)`, table),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_env_seed ON %s (env, seed)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_env_batch ON %s (env, batch)`, table, table),
		}
	}
}

// MigrationUp returns the SQL script that creates the ledger table.
func MigrationUp(dialect Dialect, config TableConfig) string {
	return joinStatements(CreateStatements(dialect, config))
}

// MigrationDown returns the SQL script that drops the ledger table.
// Indexes are dropped along with the table.
func MigrationDown(dialect Dialect, config TableConfig) string {
	return joinStatements([]string{fmt.Sprintf("DROP TABLE IF EXISTS %s", config.Table)})
}

func joinStatements(statements []string) string {
	return strings.Join(statements, ";\n\n") + ";\n"
}
