package migrations

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/getpup/seeder/store/sqlstore"
	"github.com/spf13/afero"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures an identifier contains only safe characters for SQL.
// Returns an error if the identifier contains characters that could be used for SQL injection.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// validateConfig validates all configuration values to prevent SQL injection.
func validateConfig(config *Config) error {
	if err := validateIdentifier(config.Table, "Table"); err != nil {
		return err
	}
	if config.OutputFilename == "" {
		return fmt.Errorf("OutputFilename cannot be empty")
	}
	return nil
}

// Config configures migration generation for the seed ledger table.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// Table is the name of the ledger table
	Table string

	// Fs is the filesystem the file is written to (default: the OS filesystem)
	Fs afero.Fs
}

// DefaultConfig returns the default configuration for ledger migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_create_seeders_table.sql", timestamp),
		Table:          sqlstore.DefaultTable,
	}
}

var dialectNames = map[sqlstore.Dialect]string{
	sqlstore.Postgres: "PostgreSQL",
	sqlstore.MySQL:    "MySQL/MariaDB",
	sqlstore.SQLite:   "SQLite",
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	return Generate(sqlstore.Postgres, config)
}

// GenerateMySQL generates a MySQL/MariaDB migration file.
func GenerateMySQL(config *Config) error {
	return Generate(sqlstore.MySQL, config)
}

// GenerateSQLite generates a SQLite migration file.
func GenerateSQLite(config *Config) error {
	return Generate(sqlstore.SQLite, config)
}

// Generate writes the ledger migration for dialect to
// OutputFolder/OutputFilename, creating the folder if needed.
func Generate(dialect sqlstore.Dialect, config *Config) error {
	// Validate configuration to prevent SQL injection
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sql, err := GenerateSQL(dialect, config.Table)
	if err != nil {
		return err
	}

	fs := config.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	// Ensure output folder exists
	if err := fs.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := afero.WriteFile(fs, outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

// GenerateSQL returns the ledger migration script for dialect.
func GenerateSQL(dialect sqlstore.Dialect, table string) (string, error) {
	if err := validateIdentifier(table, "Table"); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	name, ok := dialectNames[dialect]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}

	return fmt.Sprintf(`-- Seed Ledger Migration
-- Generated: %s
-- Database: %s

-- Ledger of applied seed units
-- One row per (env, seed); rows applied by the same run share a batch number
-- Rollback reverses the highest batch of an environment in descending seed order
%s`,
		time.Now().Format(time.RFC3339),
		name,
		sqlstore.MigrationUp(dialect, sqlstore.TableConfig{Table: table}),
	), nil
}
