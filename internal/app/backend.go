package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/notemancy/internal/ai"
	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/search"
	"github.com/atomicstack/notemancy/internal/settings"
	"github.com/atomicstack/notemancy/internal/store"
)

var (
	errSearchUnavailable = errors.New("search engine unavailable")
	errAIUnavailable     = errors.New("embedding service unavailable")
)

// backend implements ui.Backend over the notes directory, the SQLite store,
// the search engine and the embedding service. Collaborators that fail to
// initialise are logged and leave their feature inert.
type backend struct {
	configPath string

	scanner *notes.Scanner
	scanErr error

	db     *store.DB
	engine *search.Engine
	ai     *ai.AI
	aiErr  error
}

func newBackend(s settings.Settings, configPath string) *backend {
	b := &backend{configPath: configPath}

	b.scanner, b.scanErr = notes.NewScanner(s)
	if b.scanErr != nil {
		logging.Error(fmt.Errorf("init scanner: %w", b.scanErr))
	}

	db, err := store.Open(s.DatabasePath)
	if err != nil {
		logging.Error(fmt.Errorf("open database: %w", err))
		b.aiErr = fmt.Errorf("%w: %v", errAIUnavailable, err)
		return b
	}
	b.db = db

	if b.engine, err = search.New(db); err != nil {
		logging.Error(fmt.Errorf("init search engine: %w", err))
		b.engine = nil
	} else if !b.engine.FTS5Available() {
		logging.Info("search: fts5 unavailable, using substring search")
	}

	if b.ai, err = ai.New(s, db); err != nil {
		logging.Error(fmt.Errorf("init ai: %w", err))
		b.ai = nil
		b.aiErr = fmt.Errorf("%w: %v", errAIUnavailable, err)
	}
	return b
}

func (b *backend) Close() {
	if err := b.db.Close(); err != nil {
		logging.Error(fmt.Errorf("close database: %w", err))
	}
}

func (b *backend) Scan(ctx context.Context) (notes.ScanResult, error) {
	if b.scanner == nil {
		return notes.ScanResult{}, b.scanErr
	}
	return b.scanner.ScanMarkdownFiles(ctx)
}

func (b *backend) BuildIndex(ctx context.Context, files []notes.ScannedFile) error {
	if b.engine == nil {
		return errSearchUnavailable
	}
	return b.engine.IndexAllDocuments(ctx, files)
}

// Search returns no results when the engine failed to initialise.
func (b *backend) Search(query string, limit int) ([]search.Result, error) {
	if b.engine == nil {
		return nil, nil
	}
	return b.engine.Search(query, limit)
}

// IndexVectors embeds the scanned notes. The stored documents are first
// replaced with the current contents of files, so embedding does not wait
// for a search index build. With no files the stored documents are used.
func (b *backend) IndexVectors(ctx context.Context, files []notes.ScannedFile, progress func(string)) error {
	if b.ai == nil {
		return b.aiErr
	}
	if len(files) > 0 {
		docs, err := search.LoadDocuments(ctx, files)
		if err != nil {
			return err
		}
		if err := b.db.ReplaceDocuments(ctx, docs); err != nil {
			return fmt.Errorf("store documents: %w", err)
		}
	}
	return b.ai.IndexMarkdownFiles(ctx, progress)
}

// FindSimilar embeds the note at path, preferring the indexed copy, and
// ranks the other notes by distance to it.
func (b *backend) FindSimilar(ctx context.Context, path string, limit int) ([]ai.Match, error) {
	if b.ai == nil {
		return nil, b.aiErr
	}
	content, err := b.noteContent(ctx, path)
	if err != nil {
		return nil, err
	}
	return b.ai.FindSimilarDocuments(ctx, content, limit, path)
}

func (b *backend) noteContent(ctx context.Context, path string) (string, error) {
	doc, err := b.db.Document(ctx, path)
	if err == nil {
		return joinContent(doc.Title, doc.Body), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	parsed, err := notes.ParseFile(path)
	if err != nil {
		return "", err
	}
	return joinContent(parsed.Title, parsed.Body), nil
}

func joinContent(title, body string) string {
	if title == "" {
		return body
	}
	return title + "\n\n" + body
}

// ConfigPath returns the settings file, writing the defaults first so the
// editor never opens an empty buffer.
func (b *backend) ConfigPath() (string, error) {
	if err := settings.EnsureFile(b.configPath); err != nil {
		return "", err
	}
	return b.configPath, nil
}
