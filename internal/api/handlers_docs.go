package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
)

// handleListDocuments lists cached results, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cache": false, "documents": []deckstore.Entry{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.cache.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list cached documents", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cache": true, "documents": entries})
}

// handleDeleteDocument evicts one cached result.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if s.cache == nil {
		jsonError(w, "result cache is disabled", http.StatusNotFound)
		return
	}
	err := s.cache.Delete(r.Context(), hash)
	if errors.Is(err, deckstore.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete cached document", "hash", hash, "error", err)
		jsonError(w, "failed to delete document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": hash})
}
