package database

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one versioned step of the PostgreSQL schema, stored as
// migrations/NNNNNN_name.up.sql with a matching .down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// String renders the file stem, e.g. 000002_search_indexes.
func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var embeddedMigrations = sync.OnceValues(func() ([]Migration, error) {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	return LoadMigrations(sub)
})

// Migrations returns the embedded schema migrations in version order.
func Migrations() ([]Migration, error) {
	return embeddedMigrations()
}

// LoadMigrations reads up/down pairs from the root of fsys. A malformed file
// name, a missing down script or a repeated version is an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		stem := strings.TrimSuffix(name, ".up.sql")
		version, label, err := parseMigrationStem(stem)
		if err != nil {
			return nil, err
		}
		if prev, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, stem, version)
		}

		up, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if strings.TrimSpace(string(up)) == "" {
			return nil, fmt.Errorf("migration %s is empty", stem)
		}
		down, err := fs.ReadFile(fsys, stem+".down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", stem, err)
		}

		byVersion[version] = Migration{Version: version, Name: label, Up: string(up), Down: string(down)}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseMigrationStem(stem string) (int, string, error) {
	num, label, ok := strings.Cut(stem, "_")
	if !ok || label == "" {
		return 0, "", fmt.Errorf("migration %q: want NNNNNN_name", stem)
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("migration %q: version must be a positive number", stem)
	}
	return version, label, nil
}

func findMigration(all []Migration, version int) (Migration, bool) {
	for _, m := range all {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}
