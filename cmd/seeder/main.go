// Command seeder applies and reverses environment-scoped seed data.
//
// Usage:
//
//	seeder --env staging                 # run pending seeds
//	seeder rollback --env staging        # reverse the last batch
//	seeder status --env production --format json
//	seeder make demo_users --env staging --kind sql
//	seeder ddl --driver postgres --output migrations
//
// SQL seed units are read from disk at run time. Go seed units must be
// compiled in: build your own binary that imports your seed packages and
// calls cli.Execute.
package main

import (
	"fmt"
	"os"

	"github.com/getpup/seeder/internal/cli"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := cli.Execute(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
