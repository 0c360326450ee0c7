package vectordb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const flatCollection = "vectors"

// flatIndex is exact search over a chromem-go collection. Document IDs are
// vector ordinals.
type flatIndex struct {
	db  *chromem.DB
	col *chromem.Collection
}

func newFlatIndex(ef chromem.EmbeddingFunc) (*flatIndex, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(flatCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &flatIndex{db: db, col: col}, nil
}

// buildFlatIndex adds vectors in ordinal order.
func buildFlatIndex(ctx context.Context, ef chromem.EmbeddingFunc, vectors [][]float32) (*flatIndex, error) {
	f, err := newFlatIndex(ef)
	if err != nil {
		return nil, err
	}
	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Embedding: v,
		}
	}
	if err := f.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	return f, nil
}

func loadFlatIndex(path string, ef chromem.EmbeddingFunc) (*flatIndex, error) {
	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := db.GetCollection(flatCollection, ef)
	if col == nil {
		return nil, fmt.Errorf("collection %q not found after import", flatCollection)
	}
	return &flatIndex{db: db, col: col}, nil
}

func (f *flatIndex) Kind() IndexKind { return KindFlat }

func (f *flatIndex) Len() int { return f.col.Count() }

func (f *flatIndex) Search(ctx context.Context, query []float32, k int) ([]neighbor, error) {
	// chromem-go requires nResults <= collection size.
	n := min(k, f.col.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := f.col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]neighbor, 0, len(results))
	for _, r := range results {
		ordinal, err := strconv.Atoi(r.ID)
		if err != nil {
			ordinal = -1
		}
		out = append(out, neighbor{ordinal: ordinal, distance: similarityToDistance(r.Similarity)})
	}
	return out, nil
}

func (f *flatIndex) Save(path string) error {
	return f.db.ExportToFile(path, true, "")
}
