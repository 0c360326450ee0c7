package vectordb

import (
	"context"
	"fmt"
	"log"
	"maps"
	"math"
	"regexp"
	"strings"
	"time"
)

var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidIndexName reports whether name can be used as an index name.
func ValidIndexName(name string) bool {
	return indexNamePattern.MatchString(name) && !strings.Contains(name, "..")
}

// BuildOption customizes CreateIndex.
type BuildOption func(*buildOptions)

type buildOptions struct {
	progress func(done, total int)
}

// WithProgress reports embedding progress after every batch.
func WithProgress(fn func(done, total int)) BuildOption {
	return func(o *buildOptions) { o.progress = fn }
}

// CreateIndex embeds records, builds an index of the requested kind, persists
// it with its metadata sidecar and registers it. dimension 0 accepts
// whatever the embedder returns. An IVF request with too few records for
// its cells falls back to Flat and is recorded as such in the descriptor.
// The new index replaces any cached copy under the same name.
func (s *Store) CreateIndex(ctx context.Context, name string, records []Record, dimension int, kindHint IndexKind, opts ...BuildOption) (*IndexDescriptor, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("create index %q: %w", name, ErrEmptyInput)
	}
	if !ValidIndexName(name) {
		return nil, fmt.Errorf("create index: name %q: %w", name, ErrInvalidInput)
	}
	requested, err := ParseKind(string(kindHint))
	if err != nil {
		return nil, fmt.Errorf("create index %q: %w", name, err)
	}

	texts := make([]string, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			return nil, fmt.Errorf("create index %q: record %d (%s) has empty text: %w", name, i, r.ID, ErrInvalidInput)
		}
		texts[i] = r.Text
	}

	vectors, err := s.embedAll(ctx, texts, bo.progress)
	if err != nil {
		return nil, fmt.Errorf("create index %q: %w: %w", name, ErrResourceUnavailable, err)
	}

	dim := len(vectors[0])
	if dimension > 0 && dim != dimension {
		return nil, fmt.Errorf("create index %q: embedder returned %d dimensions, want %d: %w", name, dim, dimension, ErrInvalidInput)
	}
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("create index %q: vector %d has %d dimensions, want %d: %w", name, i, len(v), dim, ErrInvalidInput)
		}
		vectors[i] = normalized(v)
	}

	desc := IndexDescriptor{
		Name:           name,
		Kind:           requested,
		RequestedKind:  requested,
		Dimension:      dim,
		DocumentCount:  len(records),
		EmbeddingModel: s.embedder.Name(),
		CreatedAt:      time.Now().UTC(),
	}

	var idx vectorIndex
	if requested == KindIVF {
		n := len(vectors)
		nCells := min(int(math.Sqrt(float64(n))), s.opts.MaxCells)
		if n <= nCells {
			desc.Kind = KindFlat
			desc.FellBack = true
		} else {
			desc.NCells = nCells
			idx = buildIVFIndex(vectors, nCells, s.opts.NProbe)
		}
	}
	if idx == nil {
		idx, err = buildFlatIndex(ctx, s.ef, vectors)
		if err != nil {
			return nil, fmt.Errorf("create index %q: %w", name, err)
		}
	}

	meta := make([]DocMetadata, len(records))
	for i, r := range records {
		md := maps.Clone(r.Metadata)
		if md == nil {
			md = make(map[string]string, 1)
		}
		md["text"] = r.Text
		meta[i] = DocMetadata{ID: r.ID, Metadata: md}
	}

	s.builds.Lock()
	defer s.builds.Unlock()

	if err := s.putFile(ctx, indexKey(name, desc.Kind), idx); err != nil {
		return nil, fmt.Errorf("create index %q: persist index: %w", name, err)
	}
	if err := s.writeSidecar(ctx, name, meta); err != nil {
		return nil, fmt.Errorf("create index %q: persist metadata: %w", name, err)
	}
	for _, other := range []IndexKind{KindFlat, KindIVF} {
		if other == desc.Kind {
			continue
		}
		if err := s.storage.Delete(ctx, indexKey(name, other)); err != nil {
			log.Printf("vectordb: remove stale %s artifact for %q: %v", other, name, err)
		}
	}
	if err := s.registry.Register(ctx, desc); err != nil {
		return nil, fmt.Errorf("create index %q: %w", name, err)
	}

	s.mu.Lock()
	s.loaded[name] = &loadedIndex{desc: desc, idx: idx, meta: meta}
	s.mu.Unlock()

	return &desc, nil
}

// embedAll embeds texts in batches of the configured size, bounding each
// batch by the embed timeout.
func (s *Store) embedAll(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))

		bctx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
		batch, err := s.embedder.Embed(bctx, texts[start:end])
		cancel()
		if err != nil {
			return nil, fmt.Errorf("embed records %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(end, len(texts))
		}
	}
	return vectors, nil
}
