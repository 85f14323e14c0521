package discovery

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/getpup/seeder"
)

// Annotations recognised in SQL seed files.
const (
	annotationPrefix = "-- +seed "
	annotationUp     = "Up"
	annotationDown   = "Down"
	annotationBegin  = "StatementBegin"
	annotationEnd    = "StatementEnd"
)

// ErrMissingUpSection indicates a SQL seed file without a "-- +seed Up" section.
var ErrMissingUpSection = errors.New("missing -- +seed Up section")

// SQLUnit is a seed unit defined by a SQL file:
//
//	-- +seed Up
//	INSERT INTO roles (name) VALUES ('admin');
//
//	-- +seed Down
//	DELETE FROM roles WHERE name = 'admin';
//
// Statements end with a semicolon at the end of a line, optionally followed by
// a "--" comment, which is dropped. Bodies containing
// semicolons, such as functions, are wrapped in "-- +seed StatementBegin"
// and "-- +seed StatementEnd".
type SQLUnit struct {
	Up   []string
	Down []string
}

var (
	_ seeder.Unit      = (*SQLUnit)(nil)
	_ seeder.Describer = (*SQLUnit)(nil)
)

// Apply executes the Up statements in order.
func (u *SQLUnit) Apply(ctx context.Context, db seeder.Execer) error {
	return execAll(ctx, db, u.Up)
}

// Reverse executes the Down statements in order.
func (u *SQLUnit) Reverse(ctx context.Context, db seeder.Execer) error {
	return execAll(ctx, db, u.Down)
}

// Describe returns the statements for direction without executing them.
func (u *SQLUnit) Describe(direction seeder.Direction) []string {
	if direction == seeder.DirectionDown {
		return append([]string(nil), u.Down...)
	}
	return append([]string(nil), u.Up...)
}

func execAll(ctx context.Context, db seeder.Execer, statements []string) error {
	for i, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}
	return nil
}

// ParseSQL reads a SQL seed file.
func ParseSQL(r io.Reader) (*SQLUnit, error) {
	unit := &SQLUnit{}

	var (
		section *[]string
		buf     strings.Builder
		inBlock bool
		hasUp   bool
		lineNo  int
	)

	flush := func() {
		statement := strings.TrimSpace(buf.String())
		buf.Reset()
		if statement != "" && section != nil {
			*section = append(*section, statement)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, annotationPrefix) {
			switch strings.TrimSpace(strings.TrimPrefix(trimmed, annotationPrefix)) {
			case annotationUp:
				if inBlock {
					return nil, fmt.Errorf("line %d: section started inside StatementBegin block", lineNo)
				}
				flush()
				section = &unit.Up
				hasUp = true
			case annotationDown:
				if inBlock {
					return nil, fmt.Errorf("line %d: section started inside StatementBegin block", lineNo)
				}
				flush()
				section = &unit.Down
			case annotationBegin:
				if section == nil {
					return nil, fmt.Errorf("line %d: StatementBegin outside of a section", lineNo)
				}
				if inBlock {
					return nil, fmt.Errorf("line %d: nested StatementBegin", lineNo)
				}
				flush()
				inBlock = true
			case annotationEnd:
				if !inBlock {
					return nil, fmt.Errorf("line %d: StatementEnd without StatementBegin", lineNo)
				}
				flush()
				inBlock = false
			default:
				return nil, fmt.Errorf("line %d: unknown annotation %q", lineNo, trimmed)
			}
			continue
		}

		if inBlock {
			buf.WriteString(line)
			buf.WriteByte('\n')
			continue
		}

		if trimmed == "" || (buf.Len() == 0 && strings.HasPrefix(trimmed, "--")) {
			continue
		}
		if section == nil {
			return nil, fmt.Errorf("line %d: statement outside of a -- +seed Up or Down section", lineNo)
		}

		code := stripLineComment(line)
		terminated := strings.HasSuffix(strings.TrimSpace(code), ";")
		if terminated {
			line = code
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		if terminated {
			flush()
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	if inBlock {
		return nil, fmt.Errorf("unterminated StatementBegin block")
	}
	if !hasUp {
		return nil, ErrMissingUpSection
	}

	flush()
	return unit, nil
}

// stripLineComment returns line up to a "--" comment that is not inside a
// quoted literal or identifier.
func stripLineComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '-' && i+1 < len(line) && line[i+1] == '-':
			return line[:i]
		}
	}
	return line
}
