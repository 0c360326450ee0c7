package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/sync/singleflight"

	"github.com/ziadkadry99/lexsearch/internal/embeddings"
	"github.com/ziadkadry99/lexsearch/internal/storage"
)

// Searcher is the query surface shared by the CLI, HTTP and MCP transports.
type Searcher interface {
	// Search returns the k nearest records to query in the named index.
	Search(ctx context.Context, query, indexName string, k int) []SearchResult

	// SearchByJurisdiction is Search restricted to one jurisdiction.
	SearchByJurisdiction(ctx context.Context, query, jurisdiction, indexName string, k int) []SearchResult

	// Indexes lists the registered indexes.
	Indexes() []IndexDescriptor
}

// Options tunes a Store. Zero fields take the DefaultOptions value.
type Options struct {
	EmbedTimeout time.Duration
	BatchSize    int
	NProbe       int
	MaxCells     int
	Oversample   int
}

// DefaultOptions returns the default tuning.
func DefaultOptions() Options {
	return Options{
		EmbedTimeout: 30 * time.Second,
		BatchSize:    64,
		NProbe:       4,
		MaxCells:     100,
		Oversample:   3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = d.EmbedTimeout
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.NProbe <= 0 {
		o.NProbe = d.NProbe
	}
	if o.MaxCells <= 0 {
		o.MaxCells = d.MaxCells
	}
	if o.Oversample <= 0 {
		o.Oversample = d.Oversample
	}
	return o
}

// Store builds, persists, loads and queries named indexes. Loaded indexes
// are cached for the lifetime of the Store.
type Store struct {
	storage  storage.Storage
	embedder embeddings.Embedder
	ef       chromem.EmbeddingFunc
	opts     Options
	registry *Registry

	mu     sync.RWMutex
	loaded map[string]*loadedIndex
	loads  singleflight.Group

	// builds is held for writing while CreateIndex persists artifacts and
	// for reading while load reads them.
	builds sync.RWMutex
}

type loadedIndex struct {
	desc IndexDescriptor
	idx  vectorIndex
	meta []DocMetadata
}

var _ Searcher = (*Store)(nil)

// NewStore opens the registry in st and returns a Store that embeds with
// embedder.
func NewStore(ctx context.Context, st storage.Storage, embedder embeddings.Embedder, opts Options) (*Store, error) {
	reg, err := LoadRegistry(ctx, st)
	if err != nil {
		return nil, err
	}
	return &Store{
		storage:  st,
		embedder: embedder,
		ef:       embeddings.ToChromemFunc(embedder),
		opts:     opts.withDefaults(),
		registry: reg,
		loaded:   make(map[string]*loadedIndex),
	}, nil
}

// Indexes lists the registered indexes sorted by name.
func (s *Store) Indexes() []IndexDescriptor {
	return s.registry.List()
}

// Descriptor returns the registered descriptor for name.
func (s *Store) Descriptor(name string) (IndexDescriptor, bool) {
	return s.registry.Get(name)
}

// LoadIndex makes sure the named index is resident and reports why it could
// not be loaded.
func (s *Store) LoadIndex(ctx context.Context, name string) error {
	_, err := s.index(ctx, name)
	return err
}

// Search embeds query and returns up to k results from the named index in
// ascending distance. Failures are logged and yield no results.
func (s *Store) Search(ctx context.Context, query, indexName string, k int) []SearchResult {
	if k <= 0 {
		return nil
	}
	li, err := s.index(ctx, indexName)
	if err != nil {
		log.Printf("vectordb: search %q: %v", indexName, err)
		return nil
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		log.Printf("vectordb: search %q: embed query: %v", indexName, err)
		return nil
	}
	results, err := s.searchLoaded(ctx, li, vec, k)
	if err != nil {
		log.Printf("vectordb: search %q: %v", indexName, err)
		return nil
	}
	return results
}

// SearchVector searches the named index with a precomputed embedding.
func (s *Store) SearchVector(ctx context.Context, vec []float32, indexName string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	li, err := s.index(ctx, indexName)
	if err != nil {
		return nil, err
	}
	return s.searchLoaded(ctx, li, normalized(vec), k)
}

func (s *Store) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	defer cancel()

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query: %w", len(vecs), ErrResourceUnavailable)
	}
	return normalized(vecs[0]), nil
}

func (s *Store) searchLoaded(ctx context.Context, li *loadedIndex, vec []float32, k int) ([]SearchResult, error) {
	if li.desc.Dimension > 0 && len(vec) != li.desc.Dimension {
		return nil, fmt.Errorf("query has %d dimensions, index %q has %d: %w",
			len(vec), li.desc.Name, li.desc.Dimension, ErrInvalidInput)
	}

	neighbors, err := li.idx.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		if n.ordinal < 0 || n.ordinal >= len(li.meta) {
			continue
		}
		m := li.meta[n.ordinal]
		results = append(results, SearchResult{
			ID:       m.ID,
			Metadata: maps.Clone(m.Metadata),
			Distance: n.distance,
			Score:    Score(n.distance),
		})
	}
	return results, nil
}

// index returns the cached index, loading it once on first use.
func (s *Store) index(ctx context.Context, name string) (*loadedIndex, error) {
	s.mu.RLock()
	li, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return li, nil
	}

	v, err, _ := s.loads.Do(name, func() (any, error) {
		s.mu.RLock()
		li, ok := s.loaded[name]
		s.mu.RUnlock()
		if ok {
			return li, nil
		}

		li, err := s.load(ctx, name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		// A CreateIndex that finished while we were loading wins.
		if cur, ok := s.loaded[name]; ok {
			return cur, nil
		}
		s.loaded[name] = li
		return li, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*loadedIndex), nil
}

func (s *Store) load(ctx context.Context, name string) (*loadedIndex, error) {
	s.builds.RLock()
	defer s.builds.RUnlock()

	desc, ok := s.registry.Get(name)
	if !ok {
		kind, err := s.probeKind(ctx, name)
		if err != nil {
			return nil, err
		}
		desc = IndexDescriptor{Name: name, Kind: kind}
	}

	meta, err := s.readSidecar(ctx, name)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := s.fetchFile(ctx, indexKey(name, desc.Kind))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var idx vectorIndex
	switch desc.Kind {
	case KindIVF:
		idx, err = loadIVFIndex(path, s.opts.NProbe)
	default:
		idx, err = loadFlatIndex(path, s.ef)
	}
	if err != nil {
		return nil, fmt.Errorf("load index %q: %w", name, err)
	}

	if idx.Len() != len(meta) {
		return nil, fmt.Errorf("index %q has %d vectors but %d metadata entries: %w",
			name, idx.Len(), len(meta), ErrInvariantViolation)
	}
	return &loadedIndex{desc: desc, idx: idx, meta: meta}, nil
}

// probeKind finds the artifact of an index missing from the registry.
func (s *Store) probeKind(ctx context.Context, name string) (IndexKind, error) {
	for _, kind := range []IndexKind{KindFlat, KindIVF} {
		ok, err := s.storage.Exists(ctx, indexKey(name, kind))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
		}
		if ok {
			return kind, nil
		}
	}
	return "", fmt.Errorf("index %q not found: %w", name, ErrResourceUnavailable)
}

func (s *Store) readSidecar(ctx context.Context, name string) ([]DocMetadata, error) {
	data, err := storage.ReadAll(ctx, s.storage, metadataKey(name))
	if err != nil {
		return nil, fmt.Errorf("read metadata for %q: %w: %w", name, ErrResourceUnavailable, err)
	}
	var meta []DocMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %q: %w", name, err)
	}
	return meta, nil
}

func (s *Store) writeSidecar(ctx context.Context, name string, meta []DocMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return s.storage.Put(ctx, metadataKey(name), bytes.NewReader(data))
}

// fetchFile copies an artifact to a temp file for loaders that need a path.
func (s *Store) fetchFile(ctx context.Context, key string) (string, func(), error) {
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "lexsearch-*-"+key)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// putFile saves an index to a temp file and uploads it under key.
func (s *Store) putFile(ctx context.Context, key string, idx vectorIndex) error {
	tmp, err := os.CreateTemp("", "lexsearch-*-"+key)
	if err != nil {
		return err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := idx.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.storage.Put(ctx, key, f)
}

func indexKey(name string, kind IndexKind) string {
	return name + "." + string(kind) + ".gob.gz"
}

func metadataKey(name string) string {
	return name + "_metadata.json"
}
