// Package cli implements the seeder command line interface.
//
// The root command runs pending seeds; subcommands install the ledger,
// scaffold new units, reverse batches, report status and print the ledger DDL.
// Configuration is read from seeder.yaml, SEEDER_* environment variables and
// flags, in increasing order of precedence.
package cli
