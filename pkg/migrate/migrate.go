// Package migrate applies the goose SQL migrations that define the Postgres schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where `migrate -cmd=create` writes new files, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Source picks the embedded migrations when dir is empty and dir on disk otherwise.
func Source(dir string) fs.FS {
	if dir == "" {
		return Embedded()
	}
	return os.DirFS(dir)
}

// Applied describes one migration step that ran.
type Applied struct {
	Version   int64
	Name      string
	Direction string
	Duration  time.Duration
}

type StatusRow struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

func provider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrate: build provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or redo against db.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, command string) ([]Applied, error) {
	p, err := provider(db, fsys)
	if err != nil {
		return nil, err
	}

	switch command {
	case "up":
		res, err := p.Up(ctx)
		return collect(res), wrap(command, err)
	case "down":
		res, err := p.Down(ctx)
		if err != nil {
			return nil, wrap(command, err)
		}
		return collect([]*goose.MigrationResult{res}), nil
	case "redo":
		down, err := p.Down(ctx)
		if err != nil {
			return nil, wrap(command, err)
		}
		up, err := p.UpByOne(ctx)
		return collect([]*goose.MigrationResult{down, up}), wrap(command, err)
	}
	return nil, fmt.Errorf("migrate: unsupported command %q", command)
}

// MigrateTo moves the schema up or down until target is the latest applied version.
func MigrateTo(ctx context.Context, db *sql.DB, fsys fs.FS, target int64) ([]Applied, error) {
	p, err := provider(db, fsys)
	if err != nil {
		return nil, err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: read db version: %w", err)
	}

	var res []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		res, err = p.UpTo(ctx, target)
	default:
		res, err = p.DownTo(ctx, target)
	}
	return collect(res), wrap(fmt.Sprintf("to %d", target), err)
}

func Status(ctx context.Context, db *sql.DB, fsys fs.FS) ([]StatusRow, error) {
	p, err := provider(db, fsys)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, wrap("status", err)
	}
	rows := make([]StatusRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, StatusRow{
			Version:   s.Source.Version,
			Name:      filepath.Base(s.Source.Path),
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return rows, nil
}

func collect(results []*goose.MigrationResult) []Applied {
	out := make([]Applied, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Applied{
			Version:   r.Source.Version,
			Name:      filepath.Base(r.Source.Path),
			Direction: r.Direction,
			Duration:  r.Duration,
		})
	}
	return out
}

func wrap(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("migrate %s: %w", step, err)
}
