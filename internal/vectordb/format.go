package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (score: %.4f, distance: %.4f) ---\n", i+1, r.Score, r.Distance))
		sb.WriteString(fmt.Sprintf("ID: %s\n", r.ID))

		for _, key := range []string{"title", "citation", "jurisdiction", "category", "date", "source"} {
			if v := r.Metadata[key]; v != "" {
				sb.WriteString(fmt.Sprintf("%s%s: %s\n", strings.ToUpper(key[:1]), key[1:], v))
			}
		}

		sb.WriteString("\n")
		sb.WriteString(r.Metadata["text"])
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// FormatIndexes renders registry descriptors as a table.
func FormatIndexes(indexes []IndexDescriptor) string {
	if len(indexes) == 0 {
		return "No indexes found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-32s %-5s %6s %8s  %-28s %s\n", "NAME", "KIND", "DIM", "DOCS", "MODEL", "CREATED"))
	for _, d := range indexes {
		kind := string(d.Kind)
		if d.FellBack {
			kind += "*"
		}
		sb.WriteString(fmt.Sprintf("%-32s %-5s %6d %8d  %-28s %s\n",
			d.Name, kind, d.Dimension, d.DocumentCount, d.EmbeddingModel, d.CreatedAt.Format("2006-01-02 15:04")))
	}
	return sb.String()
}
