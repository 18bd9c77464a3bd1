package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`
	selectVersionSQL = `SELECT COALESCE(MAX(version), 0) FROM schema_version`
	insertVersionSQL = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// IsPostgres reports whether dsn points to a postgres server rather than a sqlite file.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Init opens the database and applies any pending migrations.
func Init(dsn string) error {
	if dsn == "" {
		return errors.New("database path not specified")
	}

	db, err := GetDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// GetDB opens the sqlite file or postgres server at dsn.
func GetDB(dsn string) (*sql.DB, error) {
	driver := driverSQLite
	if IsPostgres(dsn) {
		driver = driverPostgres
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == driverSQLite {
		// sqlite allows a single writer
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

type migration struct {
	version int
	name    string
}

func listMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(f, "sql")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	list := make([]migration, 0, len(entries))
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid migration name %s: %w", e.Name(), err)
		}
		list = append(list, migration{version: v, name: e.Name()})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].version < list[j].version })
	return list, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(createVersionTableSQL); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := db.QueryRow(selectVersionSQL).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	list, err := listMigrations()
	if err != nil {
		return err
	}

	for _, m := range list {
		if m.version <= current {
			continue
		}

		b, err := f.ReadFile(path.Join("sql", m.name))
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(rebind(db, insertVersionSQL), m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", m.name, err)
		}
		slog.Debug("migration applied", "name", m.name, "version", m.version)
	}

	return nil
}

func isPostgresDB(db *sql.DB) bool {
	_, ok := db.Driver().(*pq.Driver)
	return ok
}

// rebind rewrites ? placeholders to $n when db is postgres.
func rebind(db *sql.DB, query string) string {
	if !isPostgresDB(db) {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
