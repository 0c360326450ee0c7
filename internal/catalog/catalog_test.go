package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func sampleCitations() []citation.Citation {
	return []citation.Citation{
		citation.Normalize("Smith v. Jones, 123 F.3d 456 (2018)", "California", "op1"),
		citation.Normalize("Cal. Civ. Code § 1714", "California", "op1"),
		citation.Normalize("40 C.F.R. § 60.5", "Federal", "reg1"),
		citation.Normalize("U.S. Const. art. IV, § 2", "Federal", "con1"),
	}
}

func TestRecordAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	cits := sampleCitations()

	if err := store.Record(ctx, cits); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, cits[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a recorded citation")
	}
	if got.Type != citation.TypeCaseLaw || got.Text != cits[0].Text || got.Occurrences != 1 {
		t.Errorf("entry = %+v", got)
	}
	if got.CaseLaw == nil || got.CaseLaw.CaseName != "Smith v. Jones" || got.CaseLaw.Year != "2018" {
		t.Errorf("case law fields = %+v", got.CaseLaw)
	}
	if got.URL != cits[0].URL {
		t.Errorf("URL = %q, want %q", got.URL, cits[0].URL)
	}

	reg, _ := store.Get(ctx, cits[2].ID)
	if reg == nil || reg.Regulation == nil || reg.Regulation.Part != "60" {
		t.Errorf("regulation entry = %+v", reg)
	}
	con, _ := store.Get(ctx, cits[3].ID)
	if con == nil || con.Constitution == nil || con.Constitution.ArticleNumber != 4 {
		t.Errorf("constitution entry = %+v", con)
	}
}

func TestGet_Missing(t *testing.T) {
	store := setupStore(t)
	got, err := store.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = %+v, %v; want nil, nil", got, err)
	}
}

func TestRecord_BumpsOccurrences(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	store.now = func() time.Time { return first }

	statute := citation.Normalize("Cal. Civ. Code § 1714", "California", "op1")
	if err := store.Record(ctx, []citation.Citation{statute}); err != nil {
		t.Fatal(err)
	}

	store.now = func() time.Time { return later }
	again := citation.Normalize("Cal. Civ. Code § 1714", "California", "op2")
	if err := store.Record(ctx, []citation.Citation{again, again}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, statute.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got.Occurrences != 3 {
		t.Errorf("Occurrences = %d, want 3", got.Occurrences)
	}
	if got.Source != "op1" {
		t.Errorf("Source = %q, want first source", got.Source)
	}
	if !got.FirstSeen.Equal(first) || !got.LastSeen.Equal(later) {
		t.Errorf("seen = %v / %v, want %v / %v", got.FirstSeen, got.LastSeen, first, later)
	}
}

func TestList_Filters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	cits := sampleCitations()
	if err := store.Record(ctx, cits); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, cits[2:3]); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List() returned %d entries, want 4", len(all))
	}
	if all[0].ID != cits[2].ID {
		t.Errorf("most frequent first: got %q", all[0].Text)
	}

	federal, _ := store.List(ctx, ListFilter{Jurisdiction: "federal"})
	if len(federal) != 2 {
		t.Errorf("federal entries = %d, want 2", len(federal))
	}

	statutes, _ := store.List(ctx, ListFilter{Type: citation.TypeStatute})
	if len(statutes) != 1 || statutes[0].Statute == nil {
		t.Errorf("statutes = %+v", statutes)
	}

	page, _ := store.List(ctx, ListFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != all[1].ID {
		t.Errorf("page = %+v", page)
	}
	tail, _ := store.List(ctx, ListFilter{Offset: 3})
	if len(tail) != 1 || tail[0].ID != all[3].ID {
		t.Errorf("offset without limit = %+v", tail)
	}
}

func TestRecord_Empty(t *testing.T) {
	store := setupStore(t)
	if err := store.Record(context.Background(), nil); err != nil {
		t.Errorf("Record(nil) = %v", err)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	cits := sampleCitations()
	if err := store.Record(context.Background(), cits); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest(http.MethodGet, "/api/citations?type=case_law", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].CaseLaw == nil {
		t.Errorf("entries = %+v", entries)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/citations/"+cits[1].ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var entry Entry
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatal(err)
	}
	if entry.Type != citation.TypeStatute || entry.Occurrences != 1 {
		t.Errorf("entry = %+v", entry)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/citations/missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/citations?jurisdiction=Nowhere", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty list body = %q", body)
	}
}
