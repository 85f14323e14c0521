package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// Recorder is a seeder.Execer that records statements instead of executing them.
type Recorder struct {
	mu         sync.Mutex
	statements []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		statements: make([]string, 0),
	}
}

// ExecContext records the query and its arguments and reports zero affected rows.
func (r *Recorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, formatStatement(query, args))
	return recordedResult{}, nil
}

// Statements returns a copy of the recorded statements in execution order.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statements))
	copy(out, r.statements)
	return out
}

func formatStatement(query string, args []any) string {
	query = strings.TrimSpace(query)
	if len(args) == 0 {
		return query
	}

	formatted := make([]string, len(args))
	for i, arg := range args {
		formatted[i] = fmt.Sprintf("%#v", arg)
	}
	return fmt.Sprintf("%s [%s]", query, strings.Join(formatted, ", "))
}

type recordedResult struct{}

func (recordedResult) LastInsertId() (int64, error) { return 0, nil }

func (recordedResult) RowsAffected() (int64, error) { return 0, nil }
