package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	internal "github.com/mtreilly/dirsnap/dirsnap"

	"github.com/ZanzyTHEbar/assert-lib"
	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// InMemory is the destination that backs a snapshot with a transient
// in-memory database instead of a durable file.
const InMemory = ":memory:"

// Info describes a snapshot's header: free-text description, the directory
// it was collected from (empty for ad hoc captures) and its creation time.
type Info struct {
	Description string
	Directory   string
	DateTime    string
}

// Store persists one snapshot in an embedded libsql database, either a
// durable file or a transient in-memory database. Records are immutable once
// written, so a fully collected Store is safe for concurrent readers; writers
// are single-caller by contract.
type Store struct {
	db      *sql.DB
	path    string // empty for in-memory stores
	asserts *assert.AssertHandler
}

// Create initializes a new snapshot store and writes its header rows.
// dirPath is the directory the snapshot describes (may be empty for ad hoc
// captures) and description defaults to a timestamped string.
// Returns ErrSnapshotExists if a durable destination is already occupied.
func Create(dbPath, dirPath, description string) (*Store, error) {
	if dbPath != InMemory {
		if _, err := os.Stat(dbPath); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, dbPath)
		}
	}

	store, err := connect(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.init(dirPath, description); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Open loads an existing snapshot database.
// Returns ErrNotSnapshot if the target is not a recognized snapshot.
func Open(dbPath string) (*Store, error) {
	if !IsSnapshotFile(dbPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotSnapshot, dbPath)
	}
	return connect(dbPath)
}

// IsSnapshotFile reports whether path is a snapshot database. The probe is
// read-only and side-effect free: it never creates or modifies the target, so
// calling it on a missing or malformed file is safe.
func IsSnapshotFile(path string) bool {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	db, err := sql.Open("libsql", fmt.Sprintf("file:%s?mode=ro", abs))
	if err != nil {
		return false
	}
	defer db.Close()

	var count int
	err = db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'snapshot'`,
	).Scan(&count)
	return err == nil && count == 1
}

// connect opens the database connection backing a store. In-memory stores use
// a uuid-named shared-cache database pinned to a single connection so the
// data survives for the lifetime of the Store.
func connect(dbPath string) (*Store, error) {
	var dsn string
	path := dbPath
	if dbPath == InMemory {
		dsn = fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", internal.DefaultAppName, uuid.NewString())
		path = ""
	} else {
		dsn = fmt.Sprintf("file:%s", dbPath)
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database %s: %w", dbPath, err)
	}

	if dbPath == InMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return &Store{db: db, path: path, asserts: assert.NewAssertHandler()}, nil
}

// init creates the snapshot schema and writes the about and _metadata rows.
func (s *Store) init(dirPath, description string) error {
	createTables := []string{
		`CREATE TABLE IF NOT EXISTS snapshot (
			path TEXT,
			is_dir INTEGER,
			is_file INTEGER,
			st_mode INTEGER,
			st_uid INTEGER,
			st_gid INTEGER,
			st_size INTEGER,
			st_mtime INTEGER)`,
		`CREATE TABLE IF NOT EXISTS _metadata (
			description TEXT, source TEXT, version TEXT, created_at DATETIME)`,
		`CREATE TABLE IF NOT EXISTS about (
			description TEXT, directory TEXT, datetime DATETIME)`,
		`CREATE INDEX IF NOT EXISTS snapshot_path_index ON snapshot (path)`,
	}
	for _, query := range createTables {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create snapshot schema: %w", err)
		}
	}

	now := time.Now().Format(time.RFC3339)
	if description == "" {
		description = fmt.Sprintf("Snapshot created at %s", now)
	}

	if _, err := s.db.Exec(
		"INSERT INTO about (description, directory, datetime) VALUES (?, ?, ?)",
		description, dirPath, now,
	); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO _metadata (description, source, version, created_at) VALUES (?, ?, ?, ?)",
		internal.MetadataDescription, internal.MetadataSource, internal.Version, now,
	); err != nil {
		return fmt.Errorf("failed to write snapshot provenance: %w", err)
	}

	return nil
}

// AddRecord appends one record to the snapshot. The store performs no
// de-duplication; the collector guarantees each path is visited at most once.
func (s *Store) AddRecord(rec Record) error {
	s.asserts.Assert(context.Background(), s.db != nil, "snapshot store is not open")

	return insertRecord(s.db, rec)
}

// execer is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same insert path serves both ad hoc writes and collector transactions.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRecord(e execer, rec Record) error {
	_, err := e.Exec(
		insertRecordQuery,
		rec.Path, boolToInt(rec.IsDir), boolToInt(rec.IsFile),
		rec.Mode, rec.UID, rec.GID, rec.Size, rec.MTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record for %s: %w", rec.Path, err)
	}
	return nil
}

const insertRecordQuery = `INSERT INTO snapshot
	(path, is_dir, is_file, st_mode, st_uid, st_gid, st_size, st_mtime)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecordColumns = `path, is_dir, is_file, st_mode, st_uid, st_gid, st_size, st_mtime`

// Record returns the record for an exact path, or nil if the path is not in
// the snapshot.
func (s *Store) Record(path string) (*Record, error) {
	s.asserts.Assert(context.Background(), s.db != nil, "snapshot store is not open")

	row := s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM snapshot WHERE path = ?", selectRecordColumns), path)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record for %s: %w", path, err)
	}
	return &rec, nil
}

// Records returns every record in the snapshot. Order is unspecified.
func (s *Store) Records() ([]Record, error) {
	s.asserts.Assert(context.Background(), s.db != nil, "snapshot store is not open")

	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM snapshot", selectRecordColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Paths returns every path in the snapshot. Order is unspecified.
func (s *Store) Paths() ([]string, error) {
	s.asserts.Assert(context.Background(), s.db != nil, "snapshot store is not open")

	rows, err := s.db.Query("SELECT path FROM snapshot")
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return paths, nil
}

// Info returns the snapshot header. The schema permits multiple header rows
// for forward compatibility; the latest by datetime is authoritative.
func (s *Store) Info() (*Info, error) {
	s.asserts.Assert(context.Background(), s.db != nil, "snapshot store is not open")

	var info Info
	err := s.db.QueryRow(
		"SELECT description, directory, datetime FROM about ORDER BY datetime DESC LIMIT 1",
	).Scan(&info.Description, &info.Directory, &info.DateTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	return &info, nil
}

// Path returns the durable location backing the store, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle backing the store. A closed store must
// not be used again; lookups after Close are a programming error.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var rec Record
	var isDir, isFile int
	err := scan(&rec.Path, &isDir, &isFile, &rec.Mode, &rec.UID, &rec.GID, &rec.Size, &rec.MTime)
	if err != nil {
		return Record{}, err
	}
	rec.IsDir = isDir == 1
	rec.IsFile = isFile == 1
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
