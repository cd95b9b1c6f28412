// Package semantic is a small vector memory: texts are embedded with a
// deterministic toy embedding and retrieved by cosine similarity, with a
// bleve keyword index alongside for lexical recall.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/researcher/internal/memory/docstore"
)

// Record is a stored item: its caller metadata plus the "text" and
// "embedding_dim" keys.
type Record map[string]interface{}

// Stats describes the store contents.
type Stats struct {
	TotalVectors       int     `json:"total_vectors"`
	EmbeddingDimension int     `json:"embedding_dimension"`
	StorageSizeKB      float64 `json:"storage_size_kb"`
}

type document struct {
	Vectors  [][]float64              `json:"vectors"`
	Metadata []map[string]interface{} `json:"metadata"`
}

type indexedText struct {
	Text string `json:"text"`
}

// Store is the semantic memory. Every Store call rewrites the whole document.
type Store struct {
	backend docstore.Backend
	logger  *log.Logger

	mu       sync.RWMutex
	vectors  [][]float64
	metadata []map[string]interface{}
	index    bleve.Index
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default "[SEMANTIC] " logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a store over backend and replaces its state with the persisted
// document when one is present and parseable.
func New(ctx context.Context, backend docstore.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		logger:  log.New(log.Writer(), "[SEMANTIC] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	if err := s.rebuildIndex(); err != nil {
		return nil, fmt.Errorf("build keyword index: %w", err)
	}
	return s, nil
}

// Store embeds text and appends it with metadata, then persists.
func (s *Store) Store(ctx context.Context, text string, metadata map[string]interface{}) {
	vec := Embed(text)
	meta := map[string]interface{}{
		"text":          text,
		"embedding_dim": len(vec),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = append(s.vectors, vec)
	s.metadata = append(s.metadata, meta)
	if s.index != nil {
		id := strconv.Itoa(len(s.metadata) - 1)
		if err := s.index.Index(id, indexedText{Text: text}); err != nil {
			s.logger.Printf("warning: keyword index %s: %v", id, err)
		}
	}
	s.save(ctx)
}

// Search returns up to topK records most similar to query, best first, each
// carrying a "similarity_score". topK <= 0 means 5.
func (s *Store) Search(query string, topK int) []Record {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return []Record{}
	}
	q := Embed(query)
	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, 0, len(s.vectors))
	for i, v := range s.vectors {
		scoreds = append(scoreds, scored{idx: i, score: Cosine(q, v)})
	}
	sort.SliceStable(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })
	out := make([]Record, 0, min(topK, len(scoreds)))
	for _, sc := range scoreds {
		if len(out) >= topK {
			break
		}
		rec := copyRecord(s.metadata[sc.idx])
		rec["similarity_score"] = sc.score
		out = append(out, rec)
	}
	return out
}

// KeywordSearch ranks stored texts lexically with bleve. Each record carries
// a "keyword_score".
func (s *Store) KeywordSearch(query string, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.metadata) == 0 || s.index == nil {
		return []Record{}, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), topK*3, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]Record, 0, topK)
	for _, hit := range res.Hits {
		idx, err := strconv.Atoi(hit.ID)
		if err != nil || idx < 0 || idx >= len(s.metadata) {
			continue
		}
		rec := copyRecord(s.metadata[idx])
		rec["keyword_score"] = hit.Score
		out = append(out, rec)
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

// Stats reports the vector count, the dimension of the first vector and the
// persisted document size.
func (s *Store) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	st := Stats{TotalVectors: len(s.vectors)}
	if len(s.vectors) > 0 {
		st.EmbeddingDimension = len(s.vectors[0])
	}
	s.mu.RUnlock()
	size, err := s.backend.Size(ctx)
	if err != nil {
		s.logger.Printf("warning: could not stat vector store: %v", err)
	}
	st.StorageSizeKB = float64(size) / 1024
	return st
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Close releases the keyword index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

func copyRecord(m map[string]interface{}) Record {
	out := make(Record, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// encode must be called with mu held.
func (s *Store) encode() ([]byte, error) {
	doc := document{Vectors: s.vectors, Metadata: s.metadata}
	if doc.Vectors == nil {
		doc.Vectors = [][]float64{}
	}
	if doc.Metadata == nil {
		doc.Metadata = []map[string]interface{}{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *Store) save(ctx context.Context) {
	data, err := s.encode()
	if err != nil {
		s.logger.Printf("warning: could not encode vector store: %v", err)
		return
	}
	if err := s.backend.Save(ctx, data); err != nil {
		s.logger.Printf("warning: could not save vector store to %s: %v", s.backend.Location(), err)
	}
}

func (s *Store) load(ctx context.Context) {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Printf("warning: could not load vector store: %v", err)
		return
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Printf("warning: could not load vector store: %v", err)
		return
	}
	if len(doc.Vectors) != len(doc.Metadata) {
		n := min(len(doc.Vectors), len(doc.Metadata))
		s.logger.Printf("warning: vector store has %d vectors and %d metadata entries, keeping %d", len(doc.Vectors), len(doc.Metadata), n)
		doc.Vectors = doc.Vectors[:n]
		doc.Metadata = doc.Metadata[:n]
	}
	s.vectors = doc.Vectors
	s.metadata = doc.Metadata
}

func (s *Store) rebuildIndex() error {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return err
	}
	batch := index.NewBatch()
	for i, meta := range s.metadata {
		text, _ := meta["text"].(string)
		if err := batch.Index(strconv.Itoa(i), indexedText{Text: text}); err != nil {
			index.Close()
			return err
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return err
	}
	s.index = index
	return nil
}

// Snapshot returns the persisted form of the store contents.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encode()
}
