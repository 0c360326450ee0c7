package vectordb

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"fmt"
	"os"
)

// ivfIndex partitions vectors into k-means cells and scans only the nprobe
// cells nearest to a query.
type ivfIndex struct {
	centroids [][]float32
	lists     [][]int
	vectors   [][]float32
	nprobe    int
}

// ivfFile is the persisted form of an ivfIndex.
type ivfFile struct {
	Dimension int
	Centroids [][]float32
	Lists     [][]int
	Vectors   [][]float32
}

func buildIVFIndex(vectors [][]float32, nCells, nprobe int) *ivfIndex {
	centroids, assign := kmeans(vectors, nCells)
	lists := make([][]int, nCells)
	for ordinal, c := range assign {
		lists[c] = append(lists[c], ordinal)
	}
	return &ivfIndex{
		centroids: centroids,
		lists:     lists,
		vectors:   vectors,
		nprobe:    nprobe,
	}
}

func loadIVFIndex(path string, nprobe int) (*ivfIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	var data ivfFile
	if err := gob.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode ivf index: %w", err)
	}
	if len(data.Centroids) == 0 || len(data.Centroids) != len(data.Lists) {
		return nil, fmt.Errorf("ivf index has %d centroids and %d lists: %w",
			len(data.Centroids), len(data.Lists), ErrInvariantViolation)
	}
	for _, list := range data.Lists {
		for _, ordinal := range list {
			if ordinal < 0 || ordinal >= len(data.Vectors) {
				return nil, fmt.Errorf("ivf list references ordinal %d of %d: %w",
					ordinal, len(data.Vectors), ErrInvariantViolation)
			}
		}
	}
	return &ivfIndex{
		centroids: data.Centroids,
		lists:     data.Lists,
		vectors:   data.Vectors,
		nprobe:    nprobe,
	}, nil
}

func (x *ivfIndex) Kind() IndexKind { return KindIVF }

func (x *ivfIndex) Len() int { return len(x.vectors) }

func (x *ivfIndex) Search(ctx context.Context, query []float32, k int) ([]neighbor, error) {
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}

	cells := make([]neighbor, len(x.centroids))
	for c, centroid := range x.centroids {
		cells[c] = neighbor{ordinal: c, distance: squaredL2(centroid, query)}
	}
	sortNeighbors(cells)

	probe := min(max(x.nprobe, 1), len(cells))
	var candidates []neighbor
	for _, cell := range cells[:probe] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, ordinal := range x.lists[cell.ordinal] {
			candidates = append(candidates, neighbor{
				ordinal:  ordinal,
				distance: squaredL2(x.vectors[ordinal], query),
			})
		}
	}
	sortNeighbors(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (x *ivfIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(f)
	dim := 0
	if len(x.vectors) > 0 {
		dim = len(x.vectors[0])
	}
	err = gob.NewEncoder(zw).Encode(ivfFile{
		Dimension: dim,
		Centroids: x.centroids,
		Lists:     x.lists,
		Vectors:   x.vectors,
	})
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode ivf index: %w", err)
	}
	return nil
}
