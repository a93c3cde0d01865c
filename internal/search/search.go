// Package search maintains a full-text index of the notes in SQLite FTS5.
// When the SQLite build lacks FTS5 the engine falls back to LIKE matching.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/store"
)

// ErrFTS5Unavailable indicates that the SQLite build has no FTS5 module.
var ErrFTS5Unavailable = errors.New("FTS5 not available; using LIKE search")

const (
	// DefaultLimit is the number of results returned when limit <= 0.
	DefaultLimit = 20

	createTable = `CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(path UNINDEXED, title, body, tokenize='unicode61')`

	ftsQuery = `
		SELECT path, title, snippet(notes_fts, 2, '', '', '…', 12), bm25(notes_fts, 0.0, 5.0, 1.0) AS score
		FROM notes_fts
		WHERE notes_fts MATCH ?
		ORDER BY score
		LIMIT ?`

	likeQuery = `
		SELECT path, title, body
		FROM documents
		WHERE title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'
		ORDER BY path
		LIMIT ?`

	excerptRunes = 80
)

// Result is one search hit.
type Result struct {
	Path    string
	Title   string
	Snippet string
	// Score is higher for better matches. LIKE results score 0.
	Score float64
}

// Engine indexes and queries notes.
type Engine struct {
	db  *store.DB
	fts bool
}

// New prepares the search tables in db.
func New(db *store.DB) (*Engine, error) {
	if db == nil {
		return nil, errors.New("search: nil database")
	}
	e := &Engine{db: db}
	switch err := e.initFTS5(); {
	case err == nil:
		e.fts = true
	case errors.Is(err, ErrFTS5Unavailable):
		logging.Error(err)
	default:
		return nil, fmt.Errorf("init search: %w", err)
	}
	return e, nil
}

func (e *Engine) initFTS5() error {
	conn := e.db.SQL()
	if _, err := conn.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS _fts5_test USING fts5(test)`); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return ErrFTS5Unavailable
		}
		return err
	}
	_, _ = conn.Exec(`DROP TABLE IF EXISTS _fts5_test`)
	_, err := conn.Exec(createTable)
	return err
}

// FTS5Available reports whether queries use the FTS5 index.
func (e *Engine) FTS5Available() bool { return e.fts }

// LoadDocuments parses files into store documents. Files that cannot be
// read are logged and skipped.
func LoadDocuments(ctx context.Context, files []notes.ScannedFile) ([]store.Document, error) {
	docs := make([]store.Document, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parsed, err := notes.ParseFile(file.LocalPath)
		if err != nil {
			logging.Error(fmt.Errorf("load %s: %w", file.LocalPath, err))
			continue
		}
		doc := store.Document{Path: parsed.Path, Title: parsed.Title, Body: parsed.Body}
		if info, err := os.Stat(file.LocalPath); err == nil {
			doc.ModTime = info.ModTime()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// IndexAllDocuments parses files and replaces the index with their
// contents.
func (e *Engine) IndexAllDocuments(ctx context.Context, files []notes.ScannedFile) error {
	docs, err := LoadDocuments(ctx, files)
	if err != nil {
		return err
	}
	if err := e.db.ReplaceDocuments(ctx, docs); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	if !e.fts {
		return nil
	}
	return e.rebuild(ctx, docs)
}

func (e *Engine) rebuild(ctx context.Context, docs []store.Document) error {
	tx, err := e.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts`); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO notes_fts (path, title, body) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.Path, doc.Title, doc.Body); err != nil {
			return fmt.Errorf("index %s: %w", doc.Path, err)
		}
	}
	return tx.Commit()
}

// Search returns up to limit hits for query. A blank query returns nothing.
func (e *Engine) Search(query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if e.fts {
		return e.searchFTS5(query, limit)
	}
	return e.searchLike(query, limit)
}

func (e *Engine) searchFTS5(query string, limit int) ([]Result, error) {
	match := buildMatch(query)
	if match == "" {
		return nil, nil
	}
	rows, err := e.db.SQL().Query(ftsQuery, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var bm25 float64
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet, &bm25); err != nil {
			return nil, err
		}
		r.Score = -bm25
		r.Snippet = flatten(r.Snippet)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (e *Engine) searchLike(query string, limit int) ([]Result, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := e.db.SQL().Query(likeQuery, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		if err := rows.Scan(&r.Path, &r.Title, &body); err != nil {
			return nil, err
		}
		r.Snippet = excerpt(body, strings.TrimSpace(query))
		results = append(results, r)
	}
	return results, rows.Err()
}

// buildMatch turns free text into an FTS5 expression where every word is
// a quoted prefix term.
func buildMatch(query string) string {
	var terms []string
	for _, word := range strings.Fields(query) {
		word = strings.ReplaceAll(word, `"`, "")
		if word == "" {
			continue
		}
		terms = append(terms, `"`+word+`"*`)
	}
	return strings.Join(terms, " ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func excerpt(body, query string) string {
	text := flatten(body)
	idx, _ := IndexFold(text, strings.TrimSpace(query))
	if idx < 0 {
		idx = 0
	}
	start := idx
	for back := 0; start > 0 && back < excerptRunes/4; back++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	out := []rune(text[start:])
	if len(out) > excerptRunes {
		out = append(out[:excerptRunes], '…')
	}
	if start > 0 {
		return "…" + string(out)
	}
	return string(out)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
