// Package migrations generates SQL migrations that provision the seed ledger table.
// Use it when schema changes are applied by an external migration tool instead
// of letting the seeder create its ledger on first use. PostgreSQL,
// MySQL/MariaDB, and SQLite are supported.
package migrations
