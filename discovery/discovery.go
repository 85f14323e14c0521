// Package discovery locates seed units on disk and in the compiled registry.
//
// A seed directory holds one file per unit. The identifier of a unit is its
// file name without extension, conventionally a sortable timestamp prefix
// followed by a snake_case name:
//
//	seeders/
//	  all/20240101000000_roles.sql
//	  staging/20240102000000_demo_users.go
//
// SQL files are parsed into SQLUnit values. Go files register their unit with
// Register from an init function and must be compiled into the binary.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getpup/seeder"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
)

// Extensions recognised as seed unit files.
const (
	ExtSQL = ".sql"
	ExtGo  = ".go"
)

// Config configures a Discovery.
type Config struct {
	// Fs is the filesystem seed directories are read from (default: the OS filesystem).
	Fs afero.Fs

	// Registry holds compiled Go units (default: DefaultRegistry).
	Registry *Registry

	// Logger is an optional logger for observability.
	Logger seeder.Logger
}

// Discovery scans seed directories. It holds no per-scan state, so one
// Discovery may serve concurrent scans of different environments.
type Discovery struct {
	fs       afero.Fs
	registry *Registry
	logger   seeder.Logger
}

// Catalog is the outcome of one Scan.
type Catalog struct {
	d       *Discovery
	ids     []string
	located map[string]string
}

var _ seeder.Catalog = (*Catalog)(nil)

// New creates a Discovery, applying defaults for unset fields.
func New(cfg Config) *Discovery {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry
	}

	return &Discovery{
		fs:       cfg.Fs,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
}

// EnvironmentPaths returns the directories searched for env under root:
// the shared "all" directory first, then the environment's own directory.
func EnvironmentPaths(root, env string) []string {
	return []string{
		filepath.Join(root, seeder.AllEnvironments),
		filepath.Join(root, env),
	}
}

// NameOf returns the seed identifier for a unit file: its base name without
// extension, in Unicode NFC so identifiers match across filesystems that
// store names decomposed.
func NameOf(path string) string {
	base := filepath.Base(path)
	return norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Scan lists the seed identifiers found in paths, sorted ascending and
// deduplicated. A path that does not exist contributes nothing. When an
// identifier appears in more than one path, the first path wins resolution.
func (d *Discovery) Scan(paths []string) (seeder.Catalog, error) {
	located := make(map[string]string)
	seen := make(map[string]struct{})
	ids := make([]string, 0)

	add := func(id, path string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if path != "" {
			located[id] = path
		}
	}

	for _, dir := range paths {
		files, err := d.list(dir)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			add(NameOf(file), file)
		}
		for _, id := range d.registry.Group(filepath.Base(dir)) {
			add(id, "")
		}

		if d.logger != nil {
			d.logger.Debug(context.Background(), "scanned seed directory", "path", dir, "files", len(files))
		}
	}

	sort.Strings(ids)

	return &Catalog{d: d, ids: ids, located: located}, nil
}

// IDs returns a copy of the scanned identifiers.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Resolve returns the unit for id. Compiled units take precedence over SQL
// files found by this scan. Returns seeder.ErrUnitNotFound otherwise.
func (c *Catalog) Resolve(id string) (seeder.Unit, error) {
	if unit, ok := c.d.registry.Lookup(id); ok {
		return unit, nil
	}

	path, ok := c.located[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", seeder.ErrUnitNotFound, id)
	}

	switch filepath.Ext(path) {
	case ExtSQL:
		return c.d.loadSQL(path)
	default:
		return nil, fmt.Errorf("%w: %s is not registered in this binary (%s)", seeder.ErrUnitNotFound, id, path)
	}
}

// list returns the unit files directly inside dir in name order.
func (d *Discovery) list(dir string) ([]string, error) {
	exists, err := afero.DirExists(d.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat seed directory %s: %w", dir, err)
	}
	if !exists {
		return nil, nil
	}

	infos, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(infos))
	for _, info := range infos {
		if !isUnitFile(info) {
			continue
		}
		files = append(files, filepath.Join(dir, info.Name()))
	}
	return files, nil
}

func isUnitFile(info os.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}

	name := info.Name()
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "_test.go") {
		return false
	}

	switch filepath.Ext(name) {
	case ExtSQL, ExtGo:
		return true
	default:
		return false
	}
}

func (d *Discovery) loadSQL(path string) (*SQLUnit, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer f.Close()

	unit, err := ParseSQL(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return unit, nil
}
