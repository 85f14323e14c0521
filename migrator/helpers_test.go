package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/lock"
	"github.com/getpup/seeder/store/memory"
	"github.com/stretchr/testify/require"
)

// tableDB is a data store holding a set of row keys. INSERT adds args[0] and
// DELETE removes it.
type tableDB struct {
	mu   sync.Mutex
	rows map[string]bool
}

func newTableDB() *tableDB {
	return &tableDB{rows: make(map[string]bool)}
}

func (db *tableDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := fmt.Sprint(args[0])
	switch query {
	case "INSERT":
		db.rows[key] = true
	case "DELETE":
		delete(db.rows, key)
	default:
		return nil, fmt.Errorf("unsupported query %q", query)
	}
	return nil, nil
}

func (db *tableDB) snapshot() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	keys := make([]string, 0, len(db.rows))
	for key := range db.rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// rowUnit inserts a row named after the seed on apply and deletes it on reverse.
type rowUnit struct {
	id       string
	applyErr error
	calls    *[]string
}

func (u *rowUnit) Apply(ctx context.Context, db seeder.Execer) error {
	if u.calls != nil {
		*u.calls = append(*u.calls, "up:"+u.id)
	}
	if u.applyErr != nil {
		return u.applyErr
	}
	_, err := db.ExecContext(ctx, "INSERT", u.id)
	return err
}

func (u *rowUnit) Reverse(ctx context.Context, db seeder.Execer) error {
	if u.calls != nil {
		*u.calls = append(*u.calls, "down:"+u.id)
	}
	_, err := db.ExecContext(ctx, "DELETE", u.id)
	return err
}

// fakeSource serves fixed identifiers per path.
type fakeSource struct {
	mu      sync.Mutex
	dirs    map[string][]string
	units   map[string]seeder.Unit
	scanErr error
	calls   []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		dirs:  make(map[string][]string),
		units: make(map[string]seeder.Unit),
	}
}

// add places a rowUnit for each id under path.
func (s *fakeSource) add(path string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.dirs[path] = append(s.dirs[path], id)
		s.units[id] = &rowUnit{id: id, calls: &s.calls}
	}
}

func (s *fakeSource) setUnit(id string, unit seeder.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[id] = unit
}

func (s *fakeSource) remove(path, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.dirs[path][:0]
	for _, existing := range s.dirs[path] {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	s.dirs[path] = ids
	delete(s.units, id)
}

func (s *fakeSource) Scan(paths []string) (seeder.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return nil, s.scanErr
	}

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, path := range paths {
		for _, id := range s.dirs[path] {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return &fakeCatalog{source: s, ids: ids}, nil
}

// fakeCatalog resolves against the source's current units.
type fakeCatalog struct {
	source *fakeSource
	ids    []string
}

func (c *fakeCatalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

func (c *fakeCatalog) Resolve(id string) (seeder.Unit, error) {
	c.source.mu.Lock()
	defer c.source.mu.Unlock()
	unit, ok := c.source.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", seeder.ErrUnitNotFound, id)
	}
	return unit, nil
}

func (s *fakeSource) unitCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// eventLog collects listener notifications.
type eventLog struct {
	mu     sync.Mutex
	events []seeder.Event
}

func (l *eventLog) listen(event seeder.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]string, len(l.events))
	for i, event := range l.events {
		kinds[i] = string(event.Kind)
		if event.Seed != "" {
			kinds[i] += ":" + event.Seed
		}
	}
	return kinds
}

var (
	staging    = []string{"seeders/all", "seeders/staging"}
	production = []string{"seeders/all", "seeders/production"}
	disabled   = false
)

type fixture struct {
	migrator *Migrator
	store    *memory.Store
	source   *fakeSource
	db       *tableDB
	events   *eventLog
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	f := &fixture{
		store:  memory.New(),
		source: newFakeSource(),
		db:     newTableDB(),
		events: &eventLog{},
	}
	cfg := Config{
		Store:          f.store,
		Source:         f.source,
		DB:             f.db,
		Listener:       f.events.listen,
		MetricsEnabled: &disabled,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	m, err := New(cfg)
	require.NoError(t, err)
	f.migrator = m
	return f
}

func (f *fixture) applied(t *testing.T, env string) []string {
	t.Helper()
	seeds, err := f.store.Applied(context.Background(), env)
	require.NoError(t, err)
	return seeds
}

func (f *fixture) entries(t *testing.T, env string) []seeder.Entry {
	t.Helper()
	entries, err := f.store.Entries(context.Background(), env)
	require.NoError(t, err)
	return entries
}

// failingLocker rejects every acquisition.
type failingLocker struct{ acquires int }

func (l *failingLocker) Acquire(context.Context, string) (lock.Release, error) {
	l.acquires++
	return nil, errors.New("lock unavailable")
}
