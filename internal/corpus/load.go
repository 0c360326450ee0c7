package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/lexsearch/internal/chunker"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// LoadFile parses an ingestion file into documents. JSON files hold an array
// of {id, text, metadata}; .jsonl files hold one such object per line; any
// other file is a single plain-text document whose ID is relPath and whose
// title is the base name. defaults fills metadata fields a record leaves
// empty. Invalid records fail the whole file with vectordb.ErrInvalidInput.
func LoadFile(f File, defaults chunker.Metadata) ([]chunker.Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.RelPath, err)
	}

	var docs []chunker.Document
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		docs, err = parseJSONArray(data, f.RelPath)
	case ".jsonl":
		docs, err = parseJSONLines(data, f.RelPath)
	default:
		docs, err = parsePlainText(data, f.RelPath)
	}
	if err != nil {
		return nil, err
	}

	for i := range docs {
		applyDefaults(&docs[i].Metadata, defaults)
		if docs[i].Metadata.Source == "" {
			docs[i].Metadata.Source = f.RelPath
		}
	}
	return docs, nil
}

func parseJSONArray(data []byte, name string) ([]chunker.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('[') {
		return nil, fmt.Errorf("%s: expected a JSON array of records: %w", name, vectordb.ErrInvalidInput)
	}

	var docs []chunker.Document
	for i := 0; dec.More(); i++ {
		var doc chunker.Document
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: record %d: %v: %w", name, i, err, vectordb.ErrInvalidInput)
		}
		if err := validate(doc); err != nil {
			return nil, fmt.Errorf("%s: record %d: %v: %w", name, i, err, vectordb.ErrInvalidInput)
		}
		docs = append(docs, doc)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%s: unterminated array: %w", name, vectordb.ErrInvalidInput)
	}
	return docs, nil
}

func parseJSONLines(data []byte, name string) ([]chunker.Document, error) {
	var docs []chunker.Document
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), int(DefaultMaxFileSize))
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var doc chunker.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s:%d: %v: %w", name, line, err, vectordb.ErrInvalidInput)
		}
		if err := validate(doc); err != nil {
			return nil, fmt.Errorf("%s:%d: %v: %w", name, line, err, vectordb.ErrInvalidInput)
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return docs, nil
}

func parsePlainText(data []byte, name string) ([]chunker.Document, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%s: empty text: %w", name, vectordb.ErrInvalidInput)
	}
	base := filepath.Base(name)
	return []chunker.Document{{
		ID:   name,
		Text: text,
		Metadata: chunker.Metadata{
			Title: strings.TrimSuffix(base, filepath.Ext(base)),
		},
	}}, nil
}

func validate(doc chunker.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("missing id")
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("record %q has empty text", doc.ID)
	}
	return nil
}

func applyDefaults(m *chunker.Metadata, d chunker.Metadata) {
	if m.Source == "" {
		m.Source = d.Source
	}
	if m.Title == "" {
		m.Title = d.Title
	}
	if m.Jurisdiction == "" {
		m.Jurisdiction = d.Jurisdiction
	}
	if m.Category == "" {
		m.Category = d.Category
	}
	if m.Date == "" {
		m.Date = d.Date
	}
}
