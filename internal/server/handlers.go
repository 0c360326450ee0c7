package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// maxK caps the number of results a single request may ask for.
const maxK = 100

type searchRequest struct {
	Query        string `json:"query"`
	Index        string `json:"index"`
	K            int    `json:"k"`
	Jurisdiction string `json:"jurisdiction"`
	Citations    bool   `json:"citations"`
	Save         bool   `json:"save"`
}

type searchResponse struct {
	Results   []vectordb.SearchResult `json:"results"`
	Citations []citation.Citation     `json:"citations,omitempty"`
}

type extractRequest struct {
	Text         string `json:"text"`
	Citation     string `json:"citation"`
	Jurisdiction string `json:"jurisdiction"`
	Source       string `json:"source"`
	Save         bool   `json:"save"`
}

func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	indexes := s.searcher.Indexes()
	if indexes == nil {
		indexes = []vectordb.IndexDescriptor{}
	}
	writeJSON(w, http.StatusOK, indexes)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" || req.Index == "" {
		writeError(w, http.StatusBadRequest, "query and index are required")
		return
	}
	if !s.hasIndex(req.Index) {
		writeError(w, http.StatusNotFound, "index "+req.Index+" not found")
		return
	}
	k := req.K
	if k <= 0 {
		k = s.cfg.DefaultK
	}
	k = min(k, maxK)

	results := s.searcher.SearchByJurisdiction(r.Context(), req.Query, req.Jurisdiction, req.Index, k)
	if results == nil {
		results = []vectordb.SearchResult{}
	}

	resp := searchResponse{Results: results}
	if req.Citations || req.Save {
		resp.Citations = vectordb.Citations(results)
		s.save(r, req.Save, resp.Citations)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.Citation) == "" {
		writeError(w, http.StatusBadRequest, "text or citation is required")
		return
	}

	cits := citation.ExtractAndNormalize([]citation.Input{{
		Citation:     req.Citation,
		Content:      req.Text,
		Jurisdiction: req.Jurisdiction,
		Source:       req.Source,
	}})
	if cits == nil {
		cits = []citation.Citation{}
	}
	s.save(r, req.Save, cits)
	writeJSON(w, http.StatusOK, cits)
}

// save records cits in the catalog when requested. Catalog failures are
// logged; the extraction result is still returned.
func (s *Server) save(r *http.Request, requested bool, cits []citation.Citation) {
	if !requested || s.catalog == nil || len(cits) == 0 {
		return
	}
	if err := s.catalog.Record(r.Context(), cits); err != nil {
		log.Printf("server: recording citations: %v", err)
	}
}

func (s *Server) hasIndex(name string) bool {
	for _, d := range s.searcher.Indexes() {
		if d.Name == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
