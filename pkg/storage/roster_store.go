// Package storage persists the configured radio/amplifier roster so a
// restarted daemon can replay the same register/connect commands a UI
// would issue, without remembering any traffic history (that stays a
// non-goal — this store only ever holds connection configuration).
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// RosterStore handles persistent storage of the configured radio and
// amplifier roster with a SQLite backend.
type RosterStore struct {
	db     *sql.DB
	dbPath string
}

// NewRosterStore opens (creating if necessary) the roster database at
// dbPath.
func NewRosterStore(dbPath string) (*RosterStore, error) {
	store := &RosterStore{dbPath: dbPath}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize roster store: %w", err)
	}
	return store, nil
}

func (rs *RosterStore) initialize() error {
	if rs.dbPath == "" {
		rs.dbPath = "./catmux.db"
	}
	if dir := filepath.Dir(rs.dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	connectionString := rs.dbPath + "?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"
	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	rs.db = db

	if err := rs.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("Roster store initialized: %s", rs.dbPath)
	return nil
}

func (rs *RosterStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS configured_radios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		display_name TEXT NOT NULL,
		port_name TEXT NOT NULL DEFAULT '',
		protocol INTEGER NOT NULL,
		civ_address INTEGER,
		virtual BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS configured_amplifier (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		protocol INTEGER NOT NULL,
		virtual BOOLEAN NOT NULL DEFAULT FALSE,
		baud_rate INTEGER NOT NULL DEFAULT 9600,
		civ_address INTEGER,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := rs.db.Exec(schema)
	return err
}

// RosterRadio is a persisted configured-radio row, carrying its storage ID
// alongside the meta the mux needs to re-register it.
type RosterRadio struct {
	ID   int64
	Meta catproto.RadioChannelMeta
}

// SaveRadio inserts a new configured-radio row and returns its ID.
func (rs *RosterStore) SaveRadio(meta catproto.RadioChannelMeta) (int64, error) {
	var civ sql.NullInt64
	if meta.CivAddress != nil {
		civ = sql.NullInt64{Int64: int64(*meta.CivAddress), Valid: true}
	}

	result, err := rs.db.Exec(
		`INSERT INTO configured_radios (display_name, port_name, protocol, civ_address, virtual)
		 VALUES (?, ?, ?, ?, ?)`,
		meta.DisplayName, meta.PortName, int(meta.Protocol), civ, meta.Virtual,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert radio: %w", err)
	}
	return result.LastInsertId()
}

// DeleteRadio removes a configured-radio row by its storage ID.
func (rs *RosterStore) DeleteRadio(id int64) error {
	_, err := rs.db.Exec(`DELETE FROM configured_radios WHERE id = ?`, id)
	return err
}

// ListRadios returns every configured radio, in insertion order, so the
// daemon can replay registration in the same order on restart.
func (rs *RosterStore) ListRadios() ([]RosterRadio, error) {
	rows, err := rs.db.Query(
		`SELECT id, display_name, port_name, protocol, civ_address, virtual
		 FROM configured_radios ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query radios: %w", err)
	}
	defer rows.Close()

	var out []RosterRadio
	for rows.Next() {
		var r RosterRadio
		var protocol int
		var civ sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Meta.DisplayName, &r.Meta.PortName, &protocol, &civ, &r.Meta.Virtual); err != nil {
			return nil, fmt.Errorf("failed to scan radio row: %w", err)
		}
		r.Meta.Protocol = catproto.Protocol(protocol)
		if civ.Valid {
			addr := uint8(civ.Int64)
			r.Meta.CivAddress = &addr
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveAmplifier upserts the single configured-amplifier row.
func (rs *RosterStore) SaveAmplifier(meta catproto.AmplifierChannelMeta) error {
	var civ sql.NullInt64
	if meta.CivAddress != nil {
		civ = sql.NullInt64{Int64: int64(*meta.CivAddress), Valid: true}
	}

	_, err := rs.db.Exec(
		`INSERT INTO configured_amplifier (id, protocol, virtual, baud_rate, civ_address, updated_at)
		 VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
			protocol = excluded.protocol,
			virtual = excluded.virtual,
			baud_rate = excluded.baud_rate,
			civ_address = excluded.civ_address,
			updated_at = CURRENT_TIMESTAMP`,
		int(meta.Protocol), meta.Virtual, meta.BaudRate, civ,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert amplifier: %w", err)
	}
	return nil
}

// LoadAmplifier returns the persisted amplifier config, or ok=false if
// none has ever been configured.
func (rs *RosterStore) LoadAmplifier() (catproto.AmplifierChannelMeta, bool, error) {
	var meta catproto.AmplifierChannelMeta
	var protocol int
	var civ sql.NullInt64

	row := rs.db.QueryRow(`SELECT protocol, virtual, baud_rate, civ_address FROM configured_amplifier WHERE id = 1`)
	if err := row.Scan(&protocol, &meta.Virtual, &meta.BaudRate, &civ); err != nil {
		if err == sql.ErrNoRows {
			return catproto.AmplifierChannelMeta{}, false, nil
		}
		return catproto.AmplifierChannelMeta{}, false, fmt.Errorf("failed to load amplifier: %w", err)
	}
	meta.Protocol = catproto.Protocol(protocol)
	if civ.Valid {
		addr := uint8(civ.Int64)
		meta.CivAddress = &addr
	}
	return meta, true, nil
}

// DeleteAmplifier removes the persisted amplifier configuration, if any.
func (rs *RosterStore) DeleteAmplifier() error {
	_, err := rs.db.Exec(`DELETE FROM configured_amplifier WHERE id = 1`)
	return err
}

// Close closes the database connection.
func (rs *RosterStore) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
