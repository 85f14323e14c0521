// Package scaffold creates new seed unit files.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/discovery"
	"github.com/spf13/afero"
)

// Kind selects the language of a new seed unit.
type Kind string

const (
	// KindSQL creates a SQL file with Up and Down sections.
	KindSQL Kind = "sql"

	// KindGo creates a Go file that registers its unit from init.
	KindGo Kind = "go"
)

// TimestampLayout is the layout of the identifier prefix. Its lexical order
// is its chronological order.
const TimestampLayout = "20060102150405"

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ErrInvalidName indicates a seed name that is not lowercase snake_case.
var ErrInvalidName = errors.New("seed name must start with a lowercase letter and contain only lowercase letters, numbers, and underscores")

// ParseKind maps a file extension or kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "sql", "":
		return KindSQL, nil
	case "go":
		return KindGo, nil
	default:
		return "", fmt.Errorf("unsupported seed kind %q: supported kinds are sql, go", s)
	}
}

// Creator writes new seed unit files.
type Creator struct {
	// Fs is the filesystem files are written to (default: the OS filesystem).
	Fs afero.Fs

	// Now returns the creation time used for the identifier (default: time.Now).
	Now func() time.Time
}

type stub struct {
	ID          string
	Name        string
	Environment string
	Package     string
	Type        string
}

// Create writes a new unit named name into dir and returns its path. The file
// is named <timestamp>_<name> with the extension of kind. The last element of
// dir is taken as the environment the unit belongs to.
func (c *Creator) Create(name, dir string, kind Kind) (string, error) {
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("%w (got: %s)", ErrInvalidName, name)
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	var (
		tmpl *template.Template
		ext  string
	)
	switch kind {
	case KindSQL:
		tmpl, ext = sqlTemplate, discovery.ExtSQL
	case KindGo:
		tmpl, ext = goTemplate, discovery.ExtGo
	default:
		return "", fmt.Errorf("unsupported seed kind %q", kind)
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create seed directory: %w", err)
	}
	if err := ensureUnique(fs, dir, name); err != nil {
		return "", err
	}

	id := now().UTC().Format(TimestampLayout) + "_" + name
	env := filepath.Base(filepath.Clean(dir))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, stub{
		ID:          id,
		Name:        strings.ReplaceAll(name, "_", " "),
		Environment: env,
		Package:     packageName(env),
		Type:        typeName(name),
	}); err != nil {
		return "", fmt.Errorf("failed to render seed stub: %w", err)
	}

	path := filepath.Join(dir, id+ext)
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write seed file: %w", err)
	}
	return path, nil
}

// ensureUnique rejects a name already used by a unit in dir.
func ensureUnique(fs afero.Fs, dir, name string) error {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory: %w", err)
	}

	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		id := discovery.NameOf(info.Name())
		if i := strings.IndexByte(id, '_'); i >= 0 && id[i+1:] == name {
			return fmt.Errorf("%w: %s already exists as %s", seeder.ErrDuplicateSeed, name, info.Name())
		}
	}
	return nil
}

// packageName turns a directory name into a Go package name.
func packageName(dir string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(dir) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	pkg := b.String()
	if pkg == "" || unicode.IsDigit(rune(pkg[0])) {
		pkg = "seeders" + pkg
	}
	return pkg
}

// typeName turns a snake_case name into an unexported camelCase type name.
func typeName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String() + "Seed"
}
