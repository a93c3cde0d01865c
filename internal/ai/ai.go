// Package ai generates note embeddings through an Ollama server and ranks
// notes by semantic similarity.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/settings"
	"github.com/atomicstack/notemancy/internal/store"
)

var (
	// ErrNoDocuments is returned when the store holds nothing to embed.
	ErrNoDocuments = errors.New("no documents indexed")
	// ErrNoEmbeddings is returned by similarity queries before vectors exist.
	ErrNoEmbeddings = errors.New("no vector embeddings; run Index Vectors first")
)

// Embedder produces vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Match is one similar document. Distance is in [0, 1]; 0 is identical.
type Match struct {
	Path     string
	Title    string
	Distance float64
}

// AI couples an embedder with the document store.
type AI struct {
	db       *store.DB
	embedder Embedder
}

// New builds the AI service from settings.
func New(s settings.Settings, db *store.DB) (*AI, error) {
	if db == nil {
		return nil, errors.New("ai: nil database")
	}
	if strings.TrimSpace(s.AI.Endpoint) == "" || strings.TrimSpace(s.AI.Model) == "" {
		return nil, errors.New("ai: endpoint and model must be configured")
	}
	client := NewClient(s.AI.Endpoint, s.AI.Model, s.AI.Timeout(), s.AI.RequestInterval())
	return NewWithEmbedder(db, client), nil
}

// NewWithEmbedder builds the service around an explicit embedder.
func NewWithEmbedder(db *store.DB, embedder Embedder) *AI {
	return &AI{db: db, embedder: embedder}
}

// IndexMarkdownFiles embeds every stored document whose content changed
// since its last embedding. progress receives one line per document.
func (a *AI) IndexMarkdownFiles(ctx context.Context, progress func(string)) error {
	if progress == nil {
		progress = func(string) {}
	}
	docs, err := a.db.Documents(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	model := a.embedder.Model()
	existing, err := a.db.Embeddings(ctx, model)
	if err != nil {
		return fmt.Errorf("load embeddings: %w", err)
	}
	known := make(map[string]string, len(existing))
	for _, e := range existing {
		known[e.Path] = e.Checksum
	}

	embedded, skipped := 0, 0
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum := checksum(doc)
		if known[doc.Path] == sum {
			skipped++
			continue
		}
		progress(fmt.Sprintf("Embedding %d/%d: %s", i+1, len(docs), doc.Path))
		vec, err := a.embedder.Embed(ctx, embeddingText(doc))
		if err != nil {
			return fmt.Errorf("embed %s: %w", doc.Path, err)
		}
		if err := a.db.PutEmbedding(ctx, model, store.Embedding{Path: doc.Path, Checksum: sum, Vector: vec}); err != nil {
			return err
		}
		embedded++
	}
	logging.Info("vector index: %d embedded, %d unchanged", embedded, skipped)
	progress(fmt.Sprintf("Embedded %d documents, %d unchanged", embedded, skipped))
	return nil
}

// FindSimilarDocuments ranks stored documents by distance to content,
// nearest first, leaving out the document at exclude.
func (a *AI) FindSimilarDocuments(ctx context.Context, content string, limit int, exclude string) ([]Match, error) {
	model := a.embedder.Model()
	existing, err := a.db.Embeddings(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	if len(existing) == 0 {
		return nil, ErrNoEmbeddings
	}
	query, err := a.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	titles, err := a.titles(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(existing))
	for _, e := range existing {
		if e.Path == exclude {
			continue
		}
		matches = append(matches, Match{Path: e.Path, Title: titles[e.Path], Distance: CosineDistance(query, e.Vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (a *AI) titles(ctx context.Context) (map[string]string, error) {
	docs, err := a.db.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	out := make(map[string]string, len(docs))
	for _, doc := range docs {
		out[doc.Path] = doc.Title
	}
	return out, nil
}

func embeddingText(doc store.Document) string {
	if doc.Title == "" {
		return doc.Body
	}
	return doc.Title + "\n\n" + doc.Body
}

func checksum(doc store.Document) string {
	h := sha256.Sum256([]byte(embeddingText(doc)))
	return hex.EncodeToString(h[:])
}
