package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/beluga/pkg/bookshelf"
)

// Server holds the API server state.
type Server struct {
	shelf   *bookshelf.Bookshelf
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server over shelf.
func NewServer(shelf *bookshelf.Bookshelf, config ServerConfig, metrics *Metrics) *Server {
	return &Server{shelf: shelf, config: config, metrics: metrics}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleAddDictionary godoc
//
//	@Summary		Register a dictionary
//	@Description	Opens the dictionary file at path and assigns it a handle
//	@Tags			dictionaries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddDictionaryRequest	true	"Path to a .bel file"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries [post]
func (s *Server) handleAddDictionary(w http.ResponseWriter, r *http.Request) {
	var req AddDictionaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		sendError(w, "path is required", http.StatusBadRequest)
		return
	}

	handle, metadata, err := s.shelf.Add(req.Path)
	if err != nil {
		sendError(w, fmt.Sprintf("failed to open dictionary: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]interface{}{
		"handle":   handle,
		"metadata": metadata,
	})
}

// handleRemoveDictionary godoc
//
//	@Summary		Remove a dictionary
//	@Tags			dictionaries
//	@Produce		json
//	@Param			handle	path		int	true	"Dictionary handle"
//	@Success		200		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries/{handle} [delete]
func (s *Server) handleRemoveDictionary(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandle(w, r)
	if !ok {
		return
	}
	s.shelf.Remove(handle)
	sendSuccess(w, map[string]string{"message": "dictionary removed"})
}

// handleSearch godoc
//
//	@Summary		Prefix and phrase search
//	@Tags			search
//	@Produce		json
//	@Param			handle			path		int		true	"Dictionary handle"
//	@Param			word			query		string	true	"Search word"
//	@Param			strict			query		bool	false	"Require raw-case prefix match"
//	@Param			prefix_limit	query		int		false	"Max prefix results"
//	@Param			phrase_limit	query		int		false	"Max token expansion results"
//	@Success		200				{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries/{handle}/search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle, ok := parseHandle(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	word := q.Get("word")
	strict := q.Get("strict") == "true"
	prefixLimit := queryInt(q, "prefix_limit", 20)
	phraseLimit := queryInt(q, "phrase_limit", 20)

	results := s.shelf.Search(handle, word, strict, prefixLimit, phraseLimit)
	s.metrics.RecordSearchOperation("search", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{"results": results})
}

// handleSearchEntry godoc
//
//	@Summary		Exact entry lookup
//	@Tags			search
//	@Produce		json
//	@Param			handle	path		int		true	"Dictionary handle"
//	@Param			name	query		string	true	"Headword"
//	@Success		200		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries/{handle}/entry [get]
func (s *Server) handleSearchEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle, ok := parseHandle(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")

	value, found := s.shelf.SearchEntry(handle, name)
	s.metrics.RecordSearchOperation("search_entry", found, time.Since(start))
	if !found {
		sendError(w, "entry not found", http.StatusNotFound)
		return
	}
	sendSuccess(w, map[string]string{"value": value})
}

// handleSearchResource godoc
//
//	@Summary		Resource lookup
//	@Description	name may be "{id}//{resource}" for per-file addressing
//	@Tags			search
//	@Produce		octet-stream
//	@Param			handle	path	int		true	"Dictionary handle"
//	@Param			name	query	string	true	"Resource name, optionally \"{id}//{name}\""
//	@Success		200
//	@Failure		404	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries/{handle}/resource [get]
func (s *Server) handleSearchResource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle, ok := parseHandle(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")

	value, found := s.shelf.SearchResource(handle, name)
	s.metrics.RecordSearchOperation("search_resource", found, time.Since(start))
	if !found {
		sendError(w, "resource not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

// handleStaticFiles godoc
//
//	@Summary		CSS/JS sidecars
//	@Tags			search
//	@Produce		json
//	@Param			handle	path		int	true	"Dictionary handle"
//	@Success		200		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/dictionaries/{handle}/static [get]
func (s *Server) handleStaticFiles(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandle(w, r)
	if !ok {
		return
	}
	css, js, found := s.shelf.StaticFiles(handle)
	if !found {
		sendError(w, "unknown handle", http.StatusNotFound)
		return
	}
	sendSuccess(w, map[string]string{"css": css, "js": js})
}

// handleResizeCache godoc
//
//	@Summary		Resize the shared node cache
//	@Tags			cache
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResizeCacheRequest	true	"New capacity in bytes"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/cache/resize [post]
func (s *Server) handleResizeCache(w http.ResponseWriter, r *http.Request) {
	var req ResizeCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.shelf.ResizeCache(req.CapacityBytes)
	sendSuccess(w, map[string]string{"message": "cache resized"})
}

func parseHandle(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	raw := chi.URLParam(r, "handle")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		sendError(w, "invalid handle", http.StatusBadRequest)
		return 0, false
	}
	return uint32(n), true
}

func queryInt(q map[string][]string, key string, def int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n <= 0 {
		return def
	}
	return n
}
