package vectordb

import (
	"context"
	"sort"
)

type neighbor struct {
	ordinal  int
	distance float32
}

// vectorIndex is a built nearest-neighbor structure. Ordinals are the
// positions vectors were added in.
type vectorIndex interface {
	Kind() IndexKind
	Len() int
	Search(ctx context.Context, query []float32, k int) ([]neighbor, error)
	Save(path string) error
}

// sortNeighbors orders by ascending distance, then ordinal.
func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].distance != ns[j].distance {
			return ns[i].distance < ns[j].distance
		}
		return ns[i].ordinal < ns[j].ordinal
	})
}
