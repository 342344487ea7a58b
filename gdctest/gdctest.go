// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// This package contains testing utilities for the GDC client: a fake GDC API
// served over HTTP with fixed reference data and file metadata.
package gdctest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Enables DEBUG log messages for the structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// a data category entry in a project summary
type Category struct {
	DataCategory string `json:"data_category"`
	CaseCount    int    `json:"case_count"`
	FileCount    int    `json:"file_count"`
}

// reference data and file metadata served by a fake GDC API
type Fixture struct {
	// data category summaries for each project
	Projects map[string][]Category
	// data category summaries for the legacy namespace (if nil, Projects is
	// used)
	LegacyProjects map[string][]Category
	// file metadata records for each project
	Files map[string][]map[string]any
}

// a request received by the fake API
type Request struct {
	Method, Path string
	Query        map[string][]string
	Body         map[string]any
}

// This type implements a fake GDC API.
type Server struct {
	*httptest.Server
	Fixture Fixture
	// if non-zero, every request is answered with this status code
	FailStatus int

	mu       sync.Mutex
	requests []Request
}

// Starts a fake GDC API serving the given fixture. Call Close when done.
func NewServer(fixture Fixture) *Server {
	s := &Server{Fixture: fixture}
	router := mux.NewRouter()
	router.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	router.HandleFunc("/projects", s.getProjects).Methods(http.MethodGet)
	router.HandleFunc("/projects/{id}", s.getProject).Methods(http.MethodGet)
	router.HandleFunc("/legacy/projects/{id}", s.getProject).Methods(http.MethodGet)
	router.HandleFunc("/files", s.postFiles).Methods(http.MethodPost)
	router.HandleFunc("/legacy/files", s.postFiles).Methods(http.MethodPost)
	s.Server = httptest.NewServer(s.record(router))
	return s
}

// returns all requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// returns the number of requests received for the given path
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// returns the bodies of all file searches received so far
func (s *Server) FileSearches() []map[string]any {
	var bodies []map[string]any
	for _, r := range s.Requests() {
		if strings.HasSuffix(r.Path, "/files") {
			bodies = append(bodies, r.Body)
		}
	}
	return bodies
}

//-----------
// Internals
//-----------

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		}
		if r.Method == http.MethodPost {
			data, _ := io.ReadAll(r.Body)
			json.Unmarshal(data, &req.Body)
			r.Body = io.NopCloser(bytes.NewReader(data))
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		if s.FailStatus != 0 {
			writeJson(w, map[string]any{"message": http.StatusText(s.FailStatus)}, s.FailStatus)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJson(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJson(w, map[string]any{
		"commit":       "0123456789abcdef",
		"data_release": "Data Release 42.0 - October 2026",
		"status":       "OK",
		"tag":          "7.0.0",
		"version":      1,
	}, http.StatusOK)
}

func (s *Server) getProjects(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.Fixture.Projects))
	for id := range s.Fixture.Projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	total := len(ids)
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && size < len(ids) {
		ids = ids[:size]
	}

	hits := make([]map[string]any, len(ids))
	for i, id := range ids {
		hits[i] = map[string]any{"id": id, "project_id": id}
	}
	writeJson(w, map[string]any{
		"data": map[string]any{
			"hits": hits,
			"pagination": map[string]any{
				"count": len(hits),
				"total": total,
				"size":  len(hits),
				"from":  0,
			},
		},
	}, http.StatusOK)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	projects := s.Fixture.Projects
	if strings.HasPrefix(r.URL.Path, "/legacy/") && s.Fixture.LegacyProjects != nil {
		projects = s.Fixture.LegacyProjects
	}
	categories, found := projects[id]
	if !found {
		writeJson(w, map[string]any{"message": id + " not found"}, http.StatusNotFound)
		return
	}
	caseCount, fileCount := 0, 0
	for _, c := range categories {
		caseCount = max(caseCount, c.CaseCount)
		fileCount += c.FileCount
	}
	writeJson(w, map[string]any{
		"data": map[string]any{
			"project_id": id,
			"summary": map[string]any{
				"case_count":      caseCount,
				"file_count":      fileCount,
				"data_categories": categories,
			},
		},
	}, http.StatusOK)
}

func (s *Server) postFiles(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJson(w, map[string]any{"message": err.Error()}, http.StatusBadRequest)
		return
	}

	// find the project and the remaining predicates in the filter
	var project string
	var predicates []map[string]any
	if filters, ok := body["filters"].(map[string]any); ok {
		content, _ := filters["content"].([]any)
		for _, c := range content {
			predicate, ok := c.(map[string]any)
			if !ok {
				continue
			}
			inner, _ := predicate["content"].(map[string]any)
			if inner["field"] == "cases.project.project_id" {
				if values, ok := inner["value"].([]any); ok && len(values) > 0 {
					project, _ = values[0].(string)
				}
			} else {
				predicates = append(predicates, inner)
			}
		}
	}

	hits := make([]map[string]any, 0)
	for _, hit := range s.Fixture.Files[project] {
		// nil records are served as null hits regardless of the filter
		if hit == nil || matches(hit, predicates) {
			hits = append(hits, hit)
		}
	}
	total := len(hits)
	if size, ok := body["size"].(float64); ok && int(size) < len(hits) {
		hits = hits[:int(size)]
	}
	writeJson(w, map[string]any{
		"data": map[string]any{
			"hits": hits,
			"pagination": map[string]any{
				"count": len(hits),
				"total": total,
				"size":  len(hits),
				"from":  0,
			},
		},
		"warnings": map[string]any{},
	}, http.StatusOK)
}

// returns true if the given file record satisfies every "in" predicate
func matches(hit map[string]any, predicates []map[string]any) bool {
	for _, predicate := range predicates {
		field, _ := predicate["field"].(string)
		values, _ := predicate["value"].([]any)
		value := lookup(hit, strings.TrimPrefix(field, "files."))
		if !slices.Contains(values, value) {
			return false
		}
	}
	return true
}

// looks up a dotted field path in a file record
func lookup(record map[string]any, path string) any {
	var current any = record
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}
