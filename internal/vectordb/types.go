package vectordb

import (
	"fmt"
	"strings"
	"time"
)

// IndexKind is the nearest-neighbor structure backing an index.
type IndexKind string

const (
	// KindFlat is exact brute-force search.
	KindFlat IndexKind = "flat"
	// KindIVF is an inverted-file index over k-means cells.
	KindIVF IndexKind = "ivf"
)

// ParseKind parses an index kind case-insensitively. An empty string is Flat.
func ParseKind(s string) (IndexKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindFlat):
		return KindFlat, nil
	case string(KindIVF):
		return KindIVF, nil
	default:
		return "", fmt.Errorf("unknown index kind %q: %w", s, ErrInvalidInput)
	}
}

// IndexDescriptor describes one built index.
type IndexDescriptor struct {
	Name           string    `json:"name"`
	Kind           IndexKind `json:"kind"`
	RequestedKind  IndexKind `json:"requested_kind,omitempty"`
	Dimension      int       `json:"dimension"`
	DocumentCount  int       `json:"document_count"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
	NCells         int       `json:"n_cells,omitempty"`
	FellBack       bool      `json:"fell_back,omitempty"`
}

// Record is one text to index together with its metadata.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// DocMetadata is the sidecar entry stored at the same ordinal as its vector.
type DocMetadata struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
	Distance float32           `json:"distance"`
	Score    float32           `json:"score"`
}

// Score converts a distance into a similarity in (0, 1].
func Score(distance float32) float32 {
	return 1 / (1 + distance)
}
