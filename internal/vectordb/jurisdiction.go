package vectordb

import (
	"context"
	"strings"
)

// SearchByJurisdiction runs Search over k*oversample candidates and keeps
// those whose jurisdiction metadata matches case-insensitively. When nothing
// matches it returns the unfiltered top k, so callers cannot tell "no data
// for this jurisdiction" from a match. An empty jurisdiction is a plain
// Search.
func (s *Store) SearchByJurisdiction(ctx context.Context, query, jurisdiction, indexName string, k int) []SearchResult {
	jurisdiction = strings.TrimSpace(jurisdiction)
	if jurisdiction == "" || k <= 0 {
		return s.Search(ctx, query, indexName, k)
	}

	n := k * s.opts.Oversample
	if n/s.opts.Oversample != k {
		n = k
	}
	candidates := s.Search(ctx, query, indexName, n)
	return filterJurisdiction(candidates, jurisdiction, k)
}

func filterJurisdiction(candidates []SearchResult, jurisdiction string, k int) []SearchResult {
	filtered := make([]SearchResult, 0, min(k, len(candidates)))
	for _, r := range candidates {
		if strings.EqualFold(r.Metadata["jurisdiction"], jurisdiction) {
			filtered = append(filtered, r)
			if len(filtered) == k {
				break
			}
		}
	}
	if len(filtered) == 0 {
		if len(candidates) > k {
			candidates = candidates[:k]
		}
		return candidates
	}
	return filtered
}
