// Package store persists parsed notes and their embeddings in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document is not in the store.
var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	mod_time   INTEGER NOT NULL DEFAULT 0,
	indexed_at INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS embeddings (
	path     TEXT NOT NULL,
	model    TEXT NOT NULL,
	checksum TEXT NOT NULL,
	vector   BLOB NOT NULL,
	PRIMARY KEY (path, model)
);
`

// DB wraps the notemancy database.
type DB struct {
	sql *sql.DB
}

// Document is a stored note.
type Document struct {
	Path    string
	Title   string
	Body    string
	ModTime time.Time
}

// Embedding is a stored vector for one document.
type Embedding struct {
	Path     string
	Checksum string
	Vector   []float32
}

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &DB{sql: db}, nil
}

// SQL exposes the underlying handle for packages that add their own tables.
func (d *DB) SQL() *sql.DB { return d.sql }

// Close releases the database.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// ReplaceDocuments stores docs and removes every document not among them.
func (d *DB) ReplaceDocuments(ctx context.Context, docs []Document) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (path, title, body, mod_time, indexed_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	now := time.Now().Unix()
	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.Path, doc.Title, doc.Body, doc.ModTime.Unix(), now); err != nil {
			return fmt.Errorf("insert %s: %w", doc.Path, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE path NOT IN (SELECT path FROM documents)`); err != nil {
		return fmt.Errorf("prune embeddings: %w", err)
	}
	return tx.Commit()
}

// Document returns the stored document at path.
func (d *DB) Document(ctx context.Context, path string) (Document, error) {
	var doc Document
	var mod int64
	err := d.sql.QueryRowContext(ctx, `SELECT path, title, body, mod_time FROM documents WHERE path = ?`, path).
		Scan(&doc.Path, &doc.Title, &doc.Body, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Document{}, err
	}
	doc.ModTime = time.Unix(mod, 0)
	return doc, nil
}

// Documents returns every stored document ordered by path.
func (d *DB) Documents(ctx context.Context) ([]Document, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT path, title, body, mod_time FROM documents ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var doc Document
		var mod int64
		if err := rows.Scan(&doc.Path, &doc.Title, &doc.Body, &mod); err != nil {
			return nil, err
		}
		doc.ModTime = time.Unix(mod, 0)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// PutEmbedding stores vec for path under model.
func (d *DB) PutEmbedding(ctx context.Context, model string, e Embedding) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO embeddings (path, model, checksum, vector) VALUES (?, ?, ?, ?)
		ON CONFLICT(path, model) DO UPDATE SET checksum = excluded.checksum, vector = excluded.vector`,
		e.Path, model, e.Checksum, EncodeVector(e.Vector))
	if err != nil {
		return fmt.Errorf("store embedding for %s: %w", e.Path, err)
	}
	return nil
}

// Embeddings returns every vector stored for model.
func (d *DB) Embeddings(ctx context.Context, model string) ([]Embedding, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT path, checksum, vector FROM embeddings WHERE model = ? ORDER BY path`, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Embedding
	for rows.Next() {
		var e Embedding
		var blob []byte
		if err := rows.Scan(&e.Path, &e.Checksum, &blob); err != nil {
			return nil, err
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("embedding for %s: %w", e.Path, err)
		}
		e.Vector = vec
		out = append(out, e)
	}
	return out, rows.Err()
}

// EncodeVector packs vec as little-endian float32 values.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector reverses EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector length %d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
