package corpus

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ziadkadry99/lexsearch/internal/chunker"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// Records chunks documents into index records, preserving document order.
func Records(docs []chunker.Document, maxLength, overlap int) []vectordb.Record {
	var records []vectordb.Record
	for _, doc := range docs {
		for _, p := range chunker.ChunkDocument(doc, maxLength, overlap) {
			records = append(records, vectordb.Record{
				ID:       p.ID,
				Text:     p.Text,
				Metadata: p.Metadata,
			})
		}
	}
	return records
}

// Group is the records destined for one per-jurisdiction index.
type Group struct {
	IndexName    string
	Jurisdiction string
	Records      []vectordb.Record
}

// GroupByJurisdiction splits records by their jurisdiction metadata into
// indexes named <base>_<jurisdiction-slug>, sorted by index name.
// Jurisdictions are compared case-insensitively; records without one go to
// <base>_unspecified.
func GroupByJurisdiction(records []vectordb.Record, base string) []Group {
	byName := make(map[string]*Group)
	for _, r := range records {
		j := strings.TrimSpace(r.Metadata["jurisdiction"])
		name := base + "_" + Slug(j)
		g, ok := byName[name]
		if !ok {
			g = &Group{IndexName: name, Jurisdiction: j}
			byName[name] = g
		}
		g.Records = append(g.Records, r)
	}

	groups := make([]Group, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].IndexName < groups[j].IndexName })
	return groups
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a jurisdiction into an index-name fragment, e.g.
// "New York" -> "new_york".
func Slug(jurisdiction string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(jurisdiction), "_"), "_")
	if s == "" {
		return "unspecified"
	}
	return s
}
