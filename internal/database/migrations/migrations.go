// Package migrations holds the catalog schema history and applies it.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var files embed.FS

var (
	ErrUnversioned = errors.New("catalog has no schema version")
	ErrDirty       = errors.New("catalog schema is dirty")
	ErrBehind      = errors.New("catalog schema is behind")
	ErrAhead       = errors.New("catalog schema is newer than this binary")
)

// State describes where a catalog's schema stands relative to the
// migrations compiled into the binary.
type State struct {
	Version uint
	Latest  uint
	Dirty   bool
}

func (s State) Current() bool {
	return !s.Dirty && s.Version == s.Latest
}

// Up brings the catalog schema to the latest version. A catalog that is
// already current is left alone.
//
// The migrate instance is never closed: closing it closes db, which the
// caller owns.
func Up(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating catalog: %w", err)
	}
	return nil
}

// Inspect reports the schema state of db without changing it.
func Inspect(db *sql.DB) (State, error) {
	latest, err := Latest()
	if err != nil {
		return State{}, err
	}

	m, err := open(db)
	if err != nil {
		return State{}, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return State{Latest: latest}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("reading schema version: %w", err)
	}
	return State{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Check returns nil when db is at the latest schema version, otherwise
// one of the Err* values wrapped with the versions involved.
func Check(db *sql.DB) error {
	s, err := Inspect(db)
	if err != nil {
		return err
	}
	switch {
	case s.Dirty:
		return fmt.Errorf("%w at version %d: a previous migration failed", ErrDirty, s.Version)
	case s.Version == 0:
		return fmt.Errorf("%w: run migrations first", ErrUnversioned)
	case s.Version < s.Latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrBehind, s.Version, s.Latest)
	case s.Version > s.Latest:
		return fmt.Errorf("%w: version %d, binary knows %d", ErrAhead, s.Version, s.Latest)
	}
	return nil
}

// Latest returns the highest migration version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return 0, fmt.Errorf("reading migrations: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing catalog for migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing catalog for migration: %w", err)
	}
	return m, nil
}

// lastVersion walks src to its final migration. Next reports the end of
// the list as an error.
func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
