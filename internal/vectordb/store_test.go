package vectordb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/lexsearch/internal/storage"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider unreachable")
}
func (failingEmbedder) Dimensions() int { return 64 }
func (failingEmbedder) Name() string    { return "failing" }

// countingStorage counts Get calls per key.
type countingStorage struct {
	storage.Storage
	mu   sync.Mutex
	gets map[string]int
}

func (c *countingStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	c.mu.Lock()
	c.gets[key]++
	c.mu.Unlock()
	return c.Storage.Get(ctx, key)
}

func newTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return st
}

func newTestStore(t *testing.T, st storage.Storage) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), st, newMockEmbedder(64), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func legalRecords() []Record {
	return []Record{
		{ID: "c1", Text: "Smith v. Jones, 123 F.3d 456 (2018) held the landlord owed a duty of care.", Metadata: map[string]string{"jurisdiction": "California", "category": "case_law"}},
		{ID: "c2", Text: "Negligence requires duty, breach, causation and damages.", Metadata: map[string]string{"jurisdiction": "California", "category": "treatise"}},
		{ID: "s1", Text: "Cal. Civ. Code § 1714 makes everyone responsible for injuries caused by want of ordinary care.", Metadata: map[string]string{"jurisdiction": "California", "category": "statute"}},
		{ID: "n1", Text: "N.Y. Gen. Oblig. Law § 5-1401 permits New York choice of law clauses.", Metadata: map[string]string{"jurisdiction": "New York", "category": "statute"}},
		{ID: "f1", Text: "42 U.S.C. § 1983 provides a federal civil rights remedy.", Metadata: map[string]string{"jurisdiction": "Federal", "category": "statute"}},
		{ID: "f2", Text: "40 C.F.R. § 60.5 governs determinations of construction.", Metadata: map[string]string{"jurisdiction": "Federal", "category": "regulation"}},
	}
}

func manyRecords(n int) []Record {
	topics := []string{"contract formation", "tort liability", "securities fraud", "zoning variance", "habeas petition", "trademark dilution", "antitrust merger"}
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ID:       fmt.Sprintf("r%03d", i),
			Text:     fmt.Sprintf("Opinion %d concerning %s, docket %05d, panel %c.", i, topics[i%len(topics)], i*7919%100000, 'A'+rune(i%26)),
			Metadata: map[string]string{"jurisdiction": []string{"California", "Texas", "Federal"}[i%3]},
		}
	}
	return records
}

func TestCreateIndex_EmptyInput(t *testing.T) {
	s := newTestStore(t, newTestStorage(t))
	_, err := s.CreateIndex(context.Background(), "empty", nil, 0, KindFlat)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestCreateIndex_InvalidInput(t *testing.T) {
	s := newTestStore(t, newTestStorage(t))
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", "has space", ".hidden"} {
		if _, err := s.CreateIndex(ctx, name, legalRecords(), 0, KindFlat); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("name %q: error = %v, want ErrInvalidInput", name, err)
		}
	}

	records := []Record{{ID: "x", Text: "   "}}
	if _, err := s.CreateIndex(ctx, "blank", records, 0, KindFlat); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty text: error = %v, want ErrInvalidInput", err)
	}

	if _, err := s.CreateIndex(ctx, "dims", legalRecords(), 128, KindFlat); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("dimension mismatch: error = %v, want ErrInvalidInput", err)
	}

	if _, err := s.CreateIndex(ctx, "kind", legalRecords(), 0, IndexKind("hnsw")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown kind: error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateIndex_EmbedFailure(t *testing.T) {
	s, err := NewStore(context.Background(), newTestStorage(t), failingEmbedder{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.CreateIndex(context.Background(), "fail", legalRecords(), 0, KindFlat)
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("error = %v, want ErrResourceUnavailable", err)
	}
	if len(s.Indexes()) != 0 {
		t.Error("failed build should not register an index")
	}
}

func TestFlat_SearchExactMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newTestStorage(t))
	records := legalRecords()

	desc, err := s.CreateIndex(ctx, "california", records, 64, KindFlat)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if desc.Kind != KindFlat || desc.DocumentCount != len(records) || desc.Dimension != 64 || desc.EmbeddingModel != "mock" {
		t.Errorf("descriptor = %+v", desc)
	}

	results := s.Search(ctx, records[2].Text, "california", 3)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != "s1" {
		t.Errorf("top result = %s, want s1", results[0].ID)
	}
	if results[0].Distance > 1e-4 {
		t.Errorf("exact match distance = %f, want ~0", results[0].Distance)
	}
	if math.Abs(float64(results[0].Score)-1) > 1e-4 {
		t.Errorf("exact match score = %f, want ~1", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not in ascending distance at %d", i)
		}
	}
	for _, r := range results {
		if r.Metadata["text"] == "" {
			t.Errorf("result %s missing text metadata", r.ID)
		}
		want := Score(r.Distance)
		if r.Score != want {
			t.Errorf("score %f != 1/(1+%f)", r.Score, r.Distance)
		}
	}
}

func TestSearch_Bounds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newTestStorage(t))
	if _, err := s.CreateIndex(ctx, "small", legalRecords(), 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	if got := s.Search(ctx, "duty of care", "small", 50); len(got) != len(legalRecords()) {
		t.Errorf("k > n: got %d results, want %d", len(got), len(legalRecords()))
	}
	if got := s.Search(ctx, "duty of care", "small", 0); len(got) != 0 {
		t.Errorf("k = 0: got %d results", len(got))
	}
}

func TestSearch_MissingIndex(t *testing.T) {
	s := newTestStore(t, newTestStorage(t))
	ctx := context.Background()

	if got := s.Search(ctx, "anything", "nope", 5); len(got) != 0 {
		t.Errorf("got %d results for a missing index", len(got))
	}
	if err := s.LoadIndex(ctx, "nope"); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("LoadIndex error = %v, want ErrResourceUnavailable", err)
	}
}

func TestSearch_EmbedFailureAtQuery(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := newTestStore(t, st).CreateIndex(ctx, "idx", legalRecords(), 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(ctx, st, failingEmbedder{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Search(ctx, "duty", "idx", 3); len(got) != 0 {
		t.Errorf("got %d results with a failing embedder", len(got))
	}
	if err := s.LoadIndex(ctx, "idx"); err != nil {
		t.Errorf("index should still load: %v", err)
	}
}

func TestSearch_PersistedAcrossStores(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	records := legalRecords()
	if _, err := newTestStore(t, st).CreateIndex(ctx, "persisted", records, 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	fresh := newTestStore(t, st)
	indexes := fresh.Indexes()
	if len(indexes) != 1 || indexes[0].Name != "persisted" {
		t.Fatalf("Indexes() = %+v", indexes)
	}
	results := fresh.Search(ctx, records[4].Text, "persisted", 1)
	if len(results) != 1 || results[0].ID != "f1" {
		t.Errorf("results = %+v, want f1", results)
	}
}

func TestSearch_UnregisteredArtifactsLoad(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	records := legalRecords()
	if _, err := newTestStore(t, st).CreateIndex(ctx, "orphan", records, 0, KindFlat); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, RegistryKey); err != nil {
		t.Fatal(err)
	}

	fresh := newTestStore(t, st)
	if len(fresh.Indexes()) != 0 {
		t.Fatal("registry should be empty")
	}
	results := fresh.Search(ctx, records[0].Text, "orphan", 1)
	if len(results) != 1 || results[0].ID != "c1" {
		t.Errorf("results = %+v, want c1", results)
	}
}

func TestSearch_ResultMetadataIsCopied(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newTestStorage(t))
	records := legalRecords()
	if _, err := s.CreateIndex(ctx, "copy", records, 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	first := s.Search(ctx, records[0].Text, "copy", 1)
	first[0].Metadata["jurisdiction"] = "mutated"

	second := s.Search(ctx, records[0].Text, "copy", 1)
	if second[0].Metadata["jurisdiction"] != "California" {
		t.Errorf("cached metadata was mutated: %q", second[0].Metadata["jurisdiction"])
	}
	if records[0].Metadata["text"] != "" {
		t.Error("CreateIndex should not modify the caller's metadata")
	}
}

func TestLoad_SidecarMismatch(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := newTestStore(t, st).CreateIndex(ctx, "broken", legalRecords(), 0, KindFlat); err != nil {
		t.Fatal(err)
	}
	sidecar := `[{"id":"c1","metadata":{}},{"id":"c2","metadata":{}}]`
	if err := st.Put(ctx, "broken_metadata.json", strings.NewReader(sidecar)); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t, st)
	if err := s.LoadIndex(ctx, "broken"); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("LoadIndex error = %v, want ErrInvariantViolation", err)
	}
	if got := s.Search(ctx, "duty", "broken", 3); len(got) != 0 {
		t.Errorf("got %d results from an inconsistent index", len(got))
	}
	// The failed load must not be cached.
	if err := s.LoadIndex(ctx, "broken"); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("second LoadIndex error = %v, want ErrInvariantViolation", err)
	}
}

func TestLoad_ConcurrentFirstSearchLoadsOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := newTestStore(t, st).CreateIndex(ctx, "shared", legalRecords(), 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	counting := &countingStorage{Storage: st, gets: make(map[string]int)}
	s := newTestStore(t, counting)

	var wg sync.WaitGroup
	var hits atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if len(s.Search(ctx, "federal civil rights", "shared", 2)) == 2 {
				hits.Add(1)
			}
		}()
	}
	wg.Wait()

	if hits.Load() != 16 {
		t.Errorf("%d of 16 searches returned results", hits.Load())
	}
	if n := counting.gets["shared_metadata.json"]; n != 1 {
		t.Errorf("sidecar read %d times, want 1", n)
	}

	s.Search(ctx, "again", "shared", 1)
	if n := counting.gets["shared_metadata.json"]; n != 1 {
		t.Errorf("cached index was reloaded (%d reads)", n)
	}
}

func TestCreateIndex_ReplacesCachedIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newTestStorage(t))

	if _, err := s.CreateIndex(ctx, "rebuild", legalRecords()[:2], 0, KindFlat); err != nil {
		t.Fatal(err)
	}
	if got := s.Search(ctx, "duty", "rebuild", 10); len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}

	if _, err := s.CreateIndex(ctx, "rebuild", legalRecords(), 0, KindFlat); err != nil {
		t.Fatal(err)
	}
	if got := s.Search(ctx, "duty", "rebuild", 10); len(got) != len(legalRecords()) {
		t.Errorf("after rebuild got %d results, want %d", len(got), len(legalRecords()))
	}
	if d, _ := s.Descriptor("rebuild"); d.DocumentCount != len(legalRecords()) {
		t.Errorf("descriptor count = %d", d.DocumentCount)
	}
}

// slowSidecarStorage delays the first sidecar write so concurrent builds
// of the same index overlap.
type slowSidecarStorage struct {
	storage.Storage
	once sync.Once
}

func (s *slowSidecarStorage) Put(ctx context.Context, key string, r io.Reader) error {
	if strings.HasSuffix(key, "_metadata.json") {
		s.once.Do(func() { time.Sleep(200 * time.Millisecond) })
	}
	return s.Storage.Put(ctx, key, r)
}

func TestCreateIndex_ConcurrentSameNameStaysConsistent(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	s := newTestStore(t, &slowSidecarStorage{Storage: st})

	var wg sync.WaitGroup
	for _, n := range []int{5, 50} {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := s.CreateIndex(ctx, "dup", manyRecords(n), 0, KindFlat); err != nil {
				t.Errorf("CreateIndex(%d records): %v", n, err)
			}
		}(n)
	}
	wg.Wait()

	fresh := newTestStore(t, st)
	if err := fresh.LoadIndex(ctx, "dup"); err != nil {
		t.Fatalf("fresh LoadIndex: %v", err)
	}
	desc, ok := fresh.Descriptor("dup")
	if !ok {
		t.Fatal("dup not registered")
	}
	if got := fresh.Search(ctx, "tort liability", "dup", 100); len(got) != desc.DocumentCount {
		t.Errorf("loaded %d documents, registry says %d", len(got), desc.DocumentCount)
	}
	if got := s.Search(ctx, "tort liability", "dup", 100); len(got) != desc.DocumentCount {
		t.Errorf("cached index has %d documents, registry says %d", len(got), desc.DocumentCount)
	}
}

// gatedStorage blocks the first sidecar read until release is closed.
type gatedStorage struct {
	storage.Storage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if strings.HasSuffix(key, "_metadata.json") {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Storage.Get(ctx, key)
}

func TestLoad_DoesNotReplaceNewerBuild(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := newTestStore(t, st).CreateIndex(ctx, "live", legalRecords()[:2], 0, KindFlat); err != nil {
		t.Fatal(err)
	}

	gated := &gatedStorage{Storage: st, entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestStore(t, gated)

	loaded := make(chan error, 1)
	go func() { loaded <- s.LoadIndex(ctx, "live") }()
	<-gated.entered

	built := make(chan error, 1)
	go func() {
		_, err := s.CreateIndex(ctx, "live", legalRecords(), 0, KindFlat)
		built <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(gated.release)

	if err := <-loaded; err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if err := <-built; err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if got := s.Search(ctx, "duty", "live", 10); len(got) != len(legalRecords()) {
		t.Errorf("search hit %d documents, want the rebuilt %d", len(got), len(legalRecords()))
	}
}

func TestScore(t *testing.T) {
	if Score(0) != 1 {
		t.Errorf("Score(0) = %f", Score(0))
	}
	if Score(1) != 0.5 {
		t.Errorf("Score(1) = %f", Score(1))
	}
	if Score(4) <= 0 {
		t.Error("score must stay positive")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    IndexKind
		wantErr bool
	}{
		{"", KindFlat, false},
		{"Flat", KindFlat, false},
		{"IVF", KindIVF, false},
		{"ivf", KindIVF, false},
		{"hnsw", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatResults(t *testing.T) {
	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("FormatResults(nil) = %q", got)
	}
	out := FormatResults([]SearchResult{{
		ID:       "s1",
		Metadata: map[string]string{"jurisdiction": "California", "text": "Cal. Civ. Code § 1714"},
		Distance: 0.25,
		Score:    0.8,
	}})
	for _, want := range []string{"Found 1 result(s)", "ID: s1", "Jurisdiction: California", "Cal. Civ. Code § 1714"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
