// Package index is an in-process vector index with a collection-style API:
// documents are added with an id and a flat metadata mapping, embedded, and
// later ranked against free-text queries by cosine similarity.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
)

var (
	ErrLengthMismatch = errors.New("ids, documents and metadatas must have the same length")
	ErrEmptyID        = errors.New("id must not be empty")
	ErrDuplicateID    = errors.New("id already exists")
)

// Metadata is a flat mapping of scalar values.
type Metadata map[string]any

// Record is one stored document.
type Record struct {
	ID        string
	Seq       uint64
	Document  string
	Metadata  Metadata
	Embedding []float32
}

// QueryResult holds one ranked list per query text.
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]Metadata
	Distances [][]float64
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Collection pairs a Store with an Embedder.
type Collection struct {
	name     string
	store    Store
	embedder Embedder
	queries  *Cache
}

func NewCollection(name string, store Store, embedder Embedder) *Collection {
	return &Collection{
		name:     name,
		store:    store,
		embedder: embedder,
		queries:  NewCache(DefaultCacheSize),
	}
}

func (c *Collection) Name() string { return c.name }

// Add embeds and stores documents. The whole call is validated before
// anything is written.
func (c *Collection) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return ErrLengthMismatch
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return ErrEmptyID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}

		exists, err := c.store.Has(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check id %s: %w", id, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}

	for i, id := range ids {
		vec, err := c.embed(ctx, documents[i])
		if err != nil {
			return fmt.Errorf("failed to embed document %s: %w", id, err)
		}

		rec := Record{
			ID:        id,
			Document:  documents[i],
			Metadata:  Metadata(metadatas[i]),
			Embedding: vec,
		}
		if err := c.store.Put(ctx, rec); err != nil {
			return fmt.Errorf("failed to store document %s: %w", id, err)
		}
	}

	return nil
}

// Query returns up to nResults records per query text, most similar first.
// Ties keep insertion order, so an empty query text returns the oldest
// records.
func (c *Collection) Query(ctx context.Context, queryTexts []string, nResults int) (QueryResult, error) {
	result := QueryResult{
		IDs:       make([][]string, len(queryTexts)),
		Documents: make([][]string, len(queryTexts)),
		Metadatas: make([][]Metadata, len(queryTexts)),
		Distances: make([][]float64, len(queryTexts)),
	}
	if nResults <= 0 {
		return result, nil
	}

	vectors := make([][]float32, len(queryTexts))
	for i, q := range queryTexts {
		if q == "" {
			continue
		}
		vec, ok := c.queries.Get(q)
		if !ok {
			var err error
			vec, err = c.embedder.Embed(ctx, q)
			if err != nil {
				return QueryResult{}, fmt.Errorf("failed to embed query: %w", err)
			}
			c.queries.Put(q, vec)
		}
		vectors[i] = vec
	}

	for i, vec := range vectors {
		hits, err := c.nearest(ctx, vec, nResults)
		if err != nil {
			return QueryResult{}, err
		}
		for _, h := range hits {
			result.IDs[i] = append(result.IDs[i], h.rec.ID)
			result.Documents[i] = append(result.Documents[i], h.rec.Document)
			result.Metadatas[i] = append(result.Metadatas[i], h.rec.Metadata)
			result.Distances[i] = append(result.Distances[i], 1-h.score)
		}
	}

	hits, misses := c.queries.Stats()
	log.Debug().
		Str("collection", c.name).
		Int("queries", len(queryTexts)).
		Int("nResults", nResults).
		Int("cached", c.queries.Len()).
		Int("cacheHits", hits).
		Int("cacheMisses", misses).
		Msg("Query completed")

	return result, nil
}

// embed maps empty text to an empty vector without calling the embedder.
// Such records score zero against every query.
func (c *Collection) embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}
	return c.embedder.Embed(ctx, text)
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

func (c *Collection) Close() error {
	return c.store.Close()
}

type hit struct {
	rec   Record
	score float64
}

func (c *Collection) nearest(ctx context.Context, query []float32, n int) ([]hit, error) {
	var hits []hit
	err := c.store.Scan(ctx, func(rec Record) error {
		hits = append(hits, hit{rec: rec, score: cosine(query, rec.Embedding)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", c.name, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rec.Seq < hits[j].rec.Seq
	})

	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
