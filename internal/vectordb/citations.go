package vectordb

import "github.com/ziadkadry99/lexsearch/internal/citation"

// Citations extracts and normalizes the citations found in search results,
// deduplicated across all of them.
func Citations(results []SearchResult) []citation.Citation {
	inputs := make([]citation.Input, len(results))
	for i, r := range results {
		inputs[i] = citation.FromResult(r.ID, r.Metadata)
	}
	return citation.ExtractAndNormalize(inputs)
}
