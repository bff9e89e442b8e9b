package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/parser"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

// handleUpload processes one file synchronously.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	out, err := s.proc.ProcessFile(r.Context(), up, nil)
	if err != nil {
		s.processError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type sectionView struct {
	Path  string        `json:"path"`
	Level doctree.Level `json:"level"`
	Title string        `json:"title"`
	Chars int           `json:"chars"`
}

// handleStructure reports the detected hierarchy without generating cards.
// An optional level query parameter (MODULE, UNIT, ...) limits the section
// list to that level.
func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var (
		level    doctree.Level
		filtered bool
	)
	if name := r.URL.Query().Get("level"); name != "" {
		l, ok := doctree.ParseLevel(name)
		if !ok {
			jsonError(w, fmt.Sprintf("unknown level %q", name), http.StatusBadRequest)
			return
		}
		level, filtered = l, true
	}

	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ext, err := parser.Extract(bytes.NewReader(up.Data), up.Filename, s.proc.ParserOptions())
	if err != nil {
		s.processError(w, r, err)
		return
	}
	seg := s.proc.Segment(ext.Text)
	summary := structure.Summarize(seg.Structure)
	if ext.Title != "" {
		summary.DocumentTitle = ext.Title
	}
	sections := make([]sectionView, 0, len(seg.Sections))
	for _, sec := range seg.Sections {
		if filtered && sec.Level != level {
			continue
		}
		sections = append(sections, sectionView{Path: sec.Path, Level: sec.Level, Title: sec.Title, Chars: len(sec.Content)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"structure": summary,
		"stage":     seg.Stage,
		"sections":  sections,
		"hierarchy": seg.Structure.Hierarchy,
	})
}

// readUpload reads the multipart "file" field into memory and releases the
// multipart temp files. It writes the error response itself when it
// returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (pipeline.Upload, bool) {
	limit := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20) // form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", limit), http.StatusRequestEntityTooLarge)
			return pipeline.Upload{}, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return pipeline.Upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required", http.StatusBadRequest)
		return pipeline.Upload{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type %q, supported: %s",
			filepath.Ext(filename), strings.Join(parser.SupportedExtensions(), " ")), http.StatusUnsupportedMediaType)
		return pipeline.Upload{}, false
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return pipeline.Upload{}, false
	}
	if int64(len(data)) > limit {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", limit), http.StatusRequestEntityTooLarge)
		return pipeline.Upload{}, false
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return pipeline.Upload{}, false
	}
	return pipeline.Upload{Filename: filename, Data: data}, true
}

// processError maps pipeline failures to HTTP statuses.
func (s *Server) processError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		var ee *parser.ExtractionError
		if errors.As(err, &ee) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.log.Error("processing failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send full paths.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
