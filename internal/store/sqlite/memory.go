// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package sqlite implements the hybrid memory store on a single SQLite
// file: FTS5 for keyword search, raw float32 blobs for embeddings, and
// an explicit versioned migration chain run on every open.
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.MemoryStore = (*MemoryStore)(nil)

// MemoryStore implements store.MemoryStore backed by a single SQLite
// database. One handle per store file; the caller owns it and passes it
// to every component.
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore opens (or creates) the SQLite database at dbPath,
// creating parent directories as needed, and applies all pending schema
// migrations. Any schema or I/O failure here is fatal: the store cannot
// operate on a corrupt schema.
func NewMemoryStore(dbPath string) (*MemoryStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "opening memory db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "pinging memory db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "migrating memory db: %w", err)
	}

	return &MemoryStore{db: db}, nil
}

// Close closes the underlying database connection.
func (m *MemoryStore) Close() error {
	return m.db.Close()
}

// migration is one idempotent schema step. Steps are applied in order
// inside their own transaction and recorded in mem_schema_version, so
// running migrate on every open is safe.
type migration struct {
	version int
	ddl     string
}

var migrations = []migration{
	{
		version: 1,
		ddl: `
CREATE TABLE IF NOT EXISTS mem_cells (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	scene        TEXT NOT NULL,
	cell_type    TEXT NOT NULL DEFAULT 'fact',
	salience     REAL NOT NULL DEFAULT 0.5,
	content      TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	embedding    BLOB,
	access_count INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mem_scenes (
	scene             TEXT PRIMARY KEY,
	summary           TEXT NOT NULL DEFAULT '',
	summary_embedding BLOB,
	cell_count        INTEGER NOT NULL DEFAULT 0,
	updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mem_cells_scene    ON mem_cells(scene);
CREATE INDEX IF NOT EXISTS idx_mem_cells_salience ON mem_cells(salience DESC);
CREATE INDEX IF NOT EXISTS idx_mem_cells_type     ON mem_cells(cell_type);

CREATE VIRTUAL TABLE IF NOT EXISTS mem_cells_fts USING fts5(
	content,
	scene,
	cell_type,
	content='mem_cells',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS mem_cells_ai AFTER INSERT ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(rowid, content, scene, cell_type)
	VALUES (new.id, new.content, new.scene, new.cell_type);
END;

CREATE TRIGGER IF NOT EXISTS mem_cells_ad AFTER DELETE ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(mem_cells_fts, rowid, content, scene, cell_type)
	VALUES ('delete', old.id, old.content, old.scene, old.cell_type);
END;

CREATE TRIGGER IF NOT EXISTS mem_cells_au AFTER UPDATE ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(mem_cells_fts, rowid, content, scene, cell_type)
	VALUES ('delete', old.id, old.content, old.scene, old.cell_type);
	INSERT INTO mem_cells_fts(rowid, content, scene, cell_type)
	VALUES (new.id, new.content, new.scene, new.cell_type);
END;
`,
	},
	{
		// Tags joined the indexed field set: add the column with its
		// default, then rebuild the FTS table and triggers with the new
		// shape and backfill every existing cell.
		version: 2,
		ddl: `
ALTER TABLE mem_cells ADD COLUMN tags TEXT NOT NULL DEFAULT '[]';

DROP TRIGGER IF EXISTS mem_cells_ai;
DROP TRIGGER IF EXISTS mem_cells_ad;
DROP TRIGGER IF EXISTS mem_cells_au;
DROP TABLE IF EXISTS mem_cells_fts;

CREATE VIRTUAL TABLE mem_cells_fts USING fts5(
	content,
	scene,
	cell_type,
	tags,
	content='mem_cells',
	content_rowid='id'
);

CREATE TRIGGER mem_cells_ai AFTER INSERT ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(rowid, content, scene, cell_type, tags)
	VALUES (new.id, new.content, new.scene, new.cell_type, new.tags);
END;

CREATE TRIGGER mem_cells_ad AFTER DELETE ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(mem_cells_fts, rowid, content, scene, cell_type, tags)
	VALUES ('delete', old.id, old.content, old.scene, old.cell_type, old.tags);
END;

CREATE TRIGGER mem_cells_au AFTER UPDATE ON mem_cells BEGIN
	INSERT INTO mem_cells_fts(mem_cells_fts, rowid, content, scene, cell_type, tags)
	VALUES ('delete', old.id, old.content, old.scene, old.cell_type, old.tags);
	INSERT INTO mem_cells_fts(rowid, content, scene, cell_type, tags)
	VALUES (new.id, new.content, new.scene, new.cell_type, new.tags);
END;

INSERT INTO mem_cells_fts(rowid, content, scene, cell_type, tags)
SELECT id, content, scene, cell_type, tags FROM mem_cells;
`,
	},
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS mem_schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	err := db.QueryRow(`SELECT version FROM mem_schema_version`).Scan(&current)
	if err == sql.ErrNoRows {
		if _, err := db.Exec(`INSERT INTO mem_schema_version (version) VALUES (0)`); err != nil {
			return err
		}
		current = 0
	} else if err != nil {
		return err
	}

	for _, mig := range migrations {
		if mig.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(mig.ddl); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`UPDATE mem_schema_version SET version = ?`, mig.version); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		current = mig.version
	}

	return nil
}

// timeLayout is RFC3339 UTC with a fixed-width fraction. RFC3339Nano
// drops trailing zeros, which breaks lexicographic comparison of
// same-second timestamps; a constant-width fraction keeps string order
// equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serialises a time.Time so stored timestamps compare
// correctly as strings (decay cutoff, scene ordering).
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// encodeVector serialises an embedding to the raw little-endian float32
// layout sqlite-vec (and the store's export format) use.
func encodeVector(v []float32) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreInvalidInput, "serializing embedding: %w", err)
	}
	return blob, nil
}

// decodeVector reads a raw little-endian float32 blob back into a vector.
func decodeVector(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
