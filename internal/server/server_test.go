package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ziadkadry99/lexsearch/internal/catalog"
	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/db"
	"github.com/ziadkadry99/lexsearch/internal/embeddings"
	"github.com/ziadkadry99/lexsearch/internal/storage"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

const statuteText = "Negligence is governed by Cal. Civ. Code § 1714."

func newTestStore(t *testing.T) *vectordb.Store {
	t.Helper()
	ctx := context.Background()
	st, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := vectordb.NewStore(ctx, st, embeddings.NewHashingEmbedder(64), vectordb.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	records := []vectordb.Record{
		{ID: "c1", Text: "See Brown v. Board of Education, 347 U.S. 483 (1954). Segregated schools violate equal protection.", Metadata: map[string]string{"jurisdiction": "Federal"}},
		{ID: "s1", Text: statuteText, Metadata: map[string]string{"jurisdiction": "California"}},
		{ID: "r1", Text: "Claims arise under 42 U.S.C. § 1983 and 40 C.F.R. § 60.5 applies.", Metadata: map[string]string{"jurisdiction": "Federal"}},
	}
	if _, err := store.CreateIndex(ctx, "legal", records, 0, vectordb.KindFlat); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	return store
}

func newTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return catalog.NewStore(database)
}

func post(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Port: 0}, newTestStore(t), nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowedOrigins: []string{"*"}}, newTestStore(t), nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestIndexes(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	req := httptest.NewRequest("GET", "/api/indexes", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var indexes []vectordb.IndexDescriptor
	if err := json.Unmarshal(w.Body.Bytes(), &indexes); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(indexes) != 1 || indexes[0].Name != "legal" || indexes[0].DocumentCount != 3 {
		t.Errorf("indexes = %+v", indexes)
	}
}

func TestSearch(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	w := post(t, srv, "/api/search", map[string]any{
		"query":     statuteText,
		"index":     "legal",
		"k":         1,
		"citations": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "s1" {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Metadata["text"] != statuteText {
		t.Errorf("result text = %q", resp.Results[0].Metadata["text"])
	}
	if len(resp.Citations) != 1 || resp.Citations[0].Type != citation.TypeStatute {
		t.Errorf("citations = %+v", resp.Citations)
	}
}

func TestSearch_Jurisdiction(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	w := post(t, srv, "/api/search", map[string]any{
		"query":        statuteText,
		"index":        "legal",
		"k":            2,
		"jurisdiction": "federal",
	})
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Metadata["jurisdiction"] != "Federal" {
			t.Errorf("result %s has jurisdiction %q", r.ID, r.Metadata["jurisdiction"])
		}
	}
	if resp.Citations != nil {
		t.Error("citations should be omitted unless requested")
	}
}

func TestSearch_BadRequests(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing query", map[string]any{"index": "legal"}, http.StatusBadRequest},
		{"missing index", map[string]any{"query": "duty"}, http.StatusBadRequest},
		{"unknown index", map[string]any{"query": "duty", "index": "nope"}, http.StatusNotFound},
		{"not json", "just a string", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := post(t, srv, "/api/search", tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	w := post(t, srv, "/api/citations/extract", map[string]any{
		"text":         "Claims arise under 42 U.S.C. § 1983 and 40 C.F.R. § 60.5 applies.",
		"jurisdiction": "Federal",
		"source":       "memo-7",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var cits []citation.Citation
	if err := json.Unmarshal(w.Body.Bytes(), &cits); err != nil {
		t.Fatal(err)
	}
	if len(cits) != 2 {
		t.Fatalf("got %d citations, want 2", len(cits))
	}
	if cits[0].Type != citation.TypeStatute || cits[1].Type != citation.TypeRegulation {
		t.Errorf("types = %q, %q", cits[0].Type, cits[1].Type)
	}
	if cits[0].Source != "memo-7" {
		t.Errorf("source = %q", cits[0].Source)
	}

	if w := post(t, srv, "/api/citations/extract", map[string]any{"text": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", w.Code)
	}
	w = post(t, srv, "/api/citations/extract", map[string]any{"text": "No authorities here."})
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("no-citation body = %q", body)
	}
}

func TestExtract_SaveToCatalog(t *testing.T) {
	cat := newTestCatalog(t)
	srv := New(Config{}, newTestStore(t), cat)

	body := map[string]any{"text": statuteText, "jurisdiction": "California", "save": true}
	post(t, srv, "/api/citations/extract", body)
	post(t, srv, "/api/citations/extract", body)

	req := httptest.NewRequest("GET", "/api/citations?type=statute", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog list status = %d", w.Code)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Occurrences != 2 || entries[0].Text != "Cal. Civ. Code § 1714" {
		t.Errorf("catalog entries = %+v", entries)
	}
}

func TestCatalogRoutes_NotMountedWithoutCatalog(t *testing.T) {
	srv := New(Config{}, newTestStore(t), nil)

	req := httptest.NewRequest("GET", "/api/citations", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Error("catalog routes should not be mounted without a catalog")
	}
}
