// Package symbolindex is glint's in-memory workspace-symbol accelerator:
// the same schema-and-prepared-statement shape as the teacher's
// internal/database, opened against "file::memory:?cache=shared" instead
// of a file path so nothing survives process exit, honoring spec.md
// §1's "does not persist state across process restarts" non-goal while
// still giving internal/analysis a real SQL prefix scan instead of a
// linear one over every module's declarations.
package symbolindex

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"glint/internal/corelsp/contract"
)

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
	module TEXT NOT NULL,
	uri    TEXT NOT NULL,
	name   TEXT NOT NULL COLLATE NOCASE,
	kind   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS symbols_module_idx ON symbols(module);
CREATE INDEX IF NOT EXISTS symbols_name_idx ON symbols(name);
`

// Row is one indexed symbol.
type Row struct {
	Module string
	URI    string
	Name   string
	Kind   contract.MemberKind
}

// Index wraps a single shared in-memory SQLite connection. Callers must
// not open more than one Index per process against the same DSN -
// glint's wiring (internal/glspserver) opens exactly one and shares it
// with internal/analysis.
type Index struct {
	db *sql.DB

	insert *sql.Stmt
	delete *sql.Stmt
	byMod  *sql.Stmt
	prefix *sql.Stmt
}

// Open creates (or attaches to) the shared in-memory symbol database.
func Open() (*Index, error) {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("symbolindex: open: %w", err)
	}
	db.SetMaxOpenConns(1) // shared in-memory DSN: one connection avoids losing the DB between them

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("symbolindex: create schema: %w", err)
	}

	idx := &Index{db: db}
	for dst, query := range map[**sql.Stmt]string{
		&idx.insert: `INSERT INTO symbols(module, uri, name, kind) VALUES (?, ?, ?, ?)`,
		&idx.delete: `DELETE FROM symbols WHERE module = ?`,
		&idx.byMod:  `SELECT module, uri, name, kind FROM symbols WHERE module = ? ORDER BY name`,
		&idx.prefix: `SELECT module, uri, name, kind FROM symbols WHERE name LIKE ? ESCAPE '\' ORDER BY name`,
	} {
		stmt, err := db.Prepare(query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("symbolindex: prepare: %w", err)
		}
		*dst = stmt
	}
	return idx, nil
}

// Reindex replaces every row belonging to module with rows, atomically.
func (idx *Index) Reindex(module string, rows []Row) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Stmt(idx.delete).Exec(module); err != nil {
		return err
	}
	insert := tx.Stmt(idx.insert)
	for _, r := range rows {
		if _, err := insert.Exec(module, r.URI, r.Name, int(r.Kind)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Remove deletes every row belonging to module.
func (idx *Index) Remove(module string) error {
	_, err := idx.delete.Exec(module)
	return err
}

// ByModule returns every row belonging to module, in name order.
func (idx *Index) ByModule(module string) ([]Row, error) {
	return scanRows(idx.byMod.Query(module))
}

// Prefix returns every row whose name starts with query, case-
// insensitively (spec §4.7's workspace/symbol).
func (idx *Index) Prefix(query string) ([]Row, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return scanRows(idx.prefix.Query(escaped + "%"))
}

func scanRows(rs *sql.Rows, err error) ([]Row, error) {
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Row
	for rs.Next() {
		var r Row
		var kind int
		if err := rs.Scan(&r.Module, &r.URI, &r.Name, &kind); err != nil {
			return nil, err
		}
		r.Kind = contract.MemberKind(kind)
		out = append(out, r)
	}
	return out, rs.Err()
}

// Close releases the underlying connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}
