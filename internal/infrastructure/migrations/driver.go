package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// DefaultMigrationsTable tracks the applied schema version.
const DefaultMigrationsTable = "schema_migrations"

// ErrNilConfig is returned by WithInstance when config is nil.
var ErrNilConfig = errors.New("no config")

// Config configures the migration driver.
type Config struct {
	MigrationsTable string
	// NoTxWrap runs each migration outside a transaction.
	NoTxWrap bool
}

// sqliteDriver implements database.Driver on a pre-opened connection.
type sqliteDriver struct {
	db     *sql.DB
	locked atomic.Bool
	cfg    Config
}

// WithInstance wraps an open ncruces connection as a migrate driver and
// makes sure the version table exists.
func WithInstance(db *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	d := &sqliteDriver{db: db, cfg: *config}
	if d.cfg.MigrationsTable == "" {
		d.cfg.MigrationsTable = DefaultMigrationsTable
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (version uint64, dirty bool);
CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_version_unique ON %[1]s (version);`, d.cfg.MigrationsTable)
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("creating %s: %w", d.cfg.MigrationsTable, err)
	}
	return d, nil
}

// Open is unsupported; connections are always supplied through WithInstance.
func (d *sqliteDriver) Open(string) (database.Driver, error) {
	return nil, errors.New("open by URL is not supported; use WithInstance")
}

func (d *sqliteDriver) Close() error {
	return d.db.Close()
}

func (d *sqliteDriver) Lock() error {
	if !d.locked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

func (d *sqliteDriver) Unlock() error {
	if !d.locked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

func (d *sqliteDriver) Run(migration io.Reader) error {
	body, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	if d.cfg.NoTxWrap {
		if _, err := d.db.Exec(string(body)); err != nil {
			return &database.Error{OrigErr: err, Query: body}
		}
		return nil
	}
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(body)); err != nil {
			return &database.Error{OrigErr: err, Query: body}
		}
		return nil
	})
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM " + d.cfg.MigrationsTable); err != nil { //nolint:gosec // table name comes from Config
			return &database.Error{OrigErr: err, Err: "clearing version"}
		}
		// A dirty NilVersion is still recorded so a failed first down
		// migration is visible.
		if version >= 0 || (version == database.NilVersion && dirty) {
			query := "INSERT INTO " + d.cfg.MigrationsTable + " (version, dirty) VALUES (?, ?)" //nolint:gosec // table name comes from Config
			if _, err := tx.Exec(query, version, dirty); err != nil {
				return &database.Error{OrigErr: err, Query: []byte(query)}
			}
		}
		return nil
	})
}

func (d *sqliteDriver) Version() (int, bool, error) {
	var version int
	var dirty bool
	err := d.db.QueryRow("SELECT version, dirty FROM " + d.cfg.MigrationsTable + " LIMIT 1").Scan(&version, &dirty) //nolint:gosec // table name comes from Config
	if err != nil {
		return database.NilVersion, false, nil
	}
	return version, dirty, nil
}

// Drop removes every table, including the version table.
func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return err
	}

	for _, name := range tables {
		if _, err := d.db.Exec("DROP TABLE IF EXISTS " + name); err != nil { //nolint:gosec // names come from sqlite_master
			return &database.Error{OrigErr: err, Err: "dropping " + name}
		}
	}
	return nil
}

func (d *sqliteDriver) inTx(fn func(*sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}
