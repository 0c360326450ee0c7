package chunker

import (
	"fmt"
	"strconv"
	"strings"
)

// Chunk splits text into overlapping segments of at most maxLength runes,
// preferring to end each segment just after the last '.' or '\n' inside the
// window. Consecutive segments share up to overlap runes. A non-positive
// maxLength returns the whole text as a single segment.
func Chunk(text string, maxLength, overlap int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)
	if maxLength <= 0 || n <= maxLength {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	start := 0
	for {
		end := start + maxLength
		if end > n {
			end = n
		}
		if end < n {
			if bp := lastBreak(runes, start, end); bp > start {
				end = bp + 1
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// lastBreak returns the index of the last '.' or '\n' in runes[start:end],
// or -1.
func lastBreak(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}

// Metadata is the descriptive header carried by an ingested legal document.
type Metadata struct {
	Source       string `json:"source,omitempty"`
	Title        string `json:"title,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Category     string `json:"category,omitempty"`
	Date         string `json:"date,omitempty"`
	Citation     string `json:"citation,omitempty"`
}

// Document is one ingestion record.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Piece is a chunk of a Document ready for embedding.
type Piece struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// ChunkDocument splits doc into pieces. A document that fits in one chunk
// keeps its own ID; otherwise pieces are named <id>_chunk_<n>. Each piece's
// metadata carries the document header plus chunk_index and parent_id.
func ChunkDocument(doc Document, maxLength, overlap int) []Piece {
	texts := Chunk(doc.Text, maxLength, overlap)
	pieces := make([]Piece, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		id := doc.ID
		if len(texts) > 1 {
			id = fmt.Sprintf("%s_chunk_%d", doc.ID, i)
		}
		md := doc.Metadata.Map()
		md["chunk_index"] = strconv.Itoa(i)
		md["parent_id"] = doc.ID
		pieces = append(pieces, Piece{ID: id, Text: text, Metadata: md})
	}
	return pieces
}

// Map flattens the metadata into string keys, omitting empty values.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, 8)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("source", m.Source)
	set("title", m.Title)
	set("jurisdiction", m.Jurisdiction)
	set("category", m.Category)
	set("date", m.Date)
	set("citation", m.Citation)
	return out
}
