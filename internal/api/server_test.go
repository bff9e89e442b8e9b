package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
)

const biology = "Photosynthesis is the process by which plants convert light into energy. " +
	"Respiration is the process of releasing energy from food."

const filler = "Cells take in nutrients, turn them into energy and carry out specialised functions. " +
	"They also contain the hereditary material of the organism.\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	srv   *Server
	cache *deckstore.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	cache, err := deckstore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })

	m := metrics.New()
	proc := pipeline.NewProcessor(pipeline.ProcessorConfig{Cache: cache, Metrics: m}, discardLogger())
	orch := pipeline.NewOrchestrator(proc, pipeline.OrchestratorOptions{Workers: 1, QueueSize: 4}, discardLogger())
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	opts.Version = "test"
	return &testEnv{
		srv:   NewServer(orch, cache, m, ModelInfo{}, discardLogger(), opts),
		cache: cache,
	}
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, path, filename string, content []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, content)
	return e.do(t, http.MethodPost, path, body, ct, header)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodGet, "/health", nil, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" || body["llm"] != "none" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestIndexListsEndpoints(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodGet, "/", nil, "", nil)
	var body struct {
		Endpoints []string `json:"endpoints"`
	}
	decode(t, rec, &body)
	if len(body.Endpoints) != len(endpoints) {
		t.Errorf("endpoints = %v", body.Endpoints)
	}
}

func TestUpload_Text(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.upload(t, "/upload", "notes/bio.txt", []byte(biology), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var out pipeline.Output
	decode(t, rec, &out)
	if out.Metadata.FileName != "bio.txt" || out.Metadata.FlashcardCount != 2 || !out.Metadata.UsedFallback {
		t.Errorf("metadata = %+v", out.Metadata)
	}
	if len(out.Flashcards) != 2 || out.Flashcards[1].Question != "What is Respiration?" {
		t.Errorf("flashcards = %+v", out.Flashcards)
	}
	if out.Structure.TotalSections != 1 {
		t.Errorf("structure = %+v", out.Structure)
	}

	rec = e.upload(t, "/upload", "again.txt", []byte(biology), nil)
	decode(t, rec, &out)
	if !out.Metadata.Cached {
		t.Error("second upload of the same bytes should be served from cache")
	}
}

func TestUpload_Errors(t *testing.T) {
	e := newTestEnv(t, Options{MaxUploadBytes: 100})
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     int
	}{
		{"missing file", "", nil, http.StatusBadRequest},
		{"unsupported", "slides.pptx", []byte("x"), http.StatusUnsupportedMediaType},
		{"too large", "big.txt", bytes.Repeat([]byte("a"), 200), http.StatusRequestEntityTooLarge},
		{"empty", "empty.txt", []byte{}, http.StatusBadRequest},
		{"corrupt pdf", "broken.pdf", []byte("%PDF-1.4 not really"), http.StatusUnprocessableEntity},
		{"blank text", "blank.txt", []byte("   \n\n  "), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.upload(t, "/upload", tt.filename, tt.content, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			var body map[string]any
			decode(t, rec, &body)
			if body["error"] == nil {
				t.Errorf("expected error field, got %v", body)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	e := newTestEnv(t, Options{APIKey: "secret"})
	tests := []struct {
		header map[string]string
		want   int
	}{
		{nil, http.StatusUnauthorized},
		{map[string]string{"Authorization": "Bearer wrong"}, http.StatusUnauthorized},
		{map[string]string{"Authorization": "secret"}, http.StatusUnauthorized},
		{map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		if rec := e.do(t, http.MethodGet, "/api/documents", nil, "", tt.header); rec.Code != tt.want {
			t.Errorf("header %v: status = %d, want %d", tt.header, rec.Code, tt.want)
		}
	}
	if rec := e.do(t, http.MethodGet, "/health", nil, "", nil); rec.Code != http.StatusOK {
		t.Errorf("health should not require auth, got %d", rec.Code)
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.upload(t, "/api/jobs", "bio.txt", []byte(biology), nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var submitted map[string]string
	decode(t, rec, &submitted)
	id := submitted["job_id"]
	if id == "" || submitted["poll_url"] != "/api/jobs/"+id {
		t.Fatalf("submit body = %v", submitted)
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		decode(t, e.do(t, http.MethodGet, "/api/jobs/"+id, nil, "", nil), &snap)
		if snap.Status.Done() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted || snap.FlashcardCount != 2 {
		t.Fatalf("job = %+v", snap)
	}

	rec = e.do(t, http.MethodGet, "/api/jobs/"+id+"/result", nil, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d", rec.Code)
	}
	var out pipeline.Output
	decode(t, rec, &out)
	if len(out.Flashcards) != 2 {
		t.Errorf("result flashcards = %d", len(out.Flashcards))
	}

	if rec := e.do(t, http.MethodGet, "/api/jobs/missing", nil, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/jobs/missing/result", nil, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing job result status = %d", rec.Code)
	}
}

func TestJobs_FailedResultConflict(t *testing.T) {
	e := newTestEnv(t, Options{})
	job := pipeline.NewJob("broken.pdf", []byte("junk"))
	if err := e.srv.orch.Submit(job); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec := e.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/result", nil, "", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != string(pipeline.StatusFailed) {
		t.Errorf("body = %v", body)
	}
}

func TestStructure_Markdown(t *testing.T) {
	e := newTestEnv(t, Options{})
	doc := "# Field Guide\n\n" + filler + "\n## Setup Steps\n\n" + filler
	rec := e.upload(t, "/api/structure", "guide.md", []byte(doc), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Structure struct {
			DocumentTitle  string `json:"documentTitle"`
			TotalSections  int    `json:"totalSections"`
			HierarchyDepth int    `json:"hierarchyDepth"`
		} `json:"structure"`
		Stage    string `json:"stage"`
		Sections []struct {
			Path  string `json:"path"`
			Title string `json:"title"`
		} `json:"sections"`
	}
	decode(t, rec, &body)
	if body.Stage != "markers" || body.Structure.TotalSections != 2 || body.Structure.HierarchyDepth != 2 {
		t.Errorf("body = %+v", body)
	}
	if body.Structure.DocumentTitle != "Field Guide" {
		t.Errorf("title = %q", body.Structure.DocumentTitle)
	}
	if len(body.Sections) != 2 || body.Sections[1].Path != "1.1" || body.Sections[1].Title != "Setup Steps" {
		t.Errorf("sections = %+v", body.Sections)
	}
}

func TestStructure_LevelFilter(t *testing.T) {
	e := newTestEnv(t, Options{})
	doc := "# Field Guide\n\n" + filler + "\n## Setup Steps\n\n" + filler

	rec := e.upload(t, "/api/structure?level=unit", "guide.md", []byte(doc), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Structure struct {
			TotalSections int `json:"totalSections"`
		} `json:"structure"`
		Sections []struct {
			Level string `json:"level"`
			Title string `json:"title"`
		} `json:"sections"`
	}
	decode(t, rec, &body)
	if len(body.Sections) != 1 || body.Sections[0].Level != "UNIT" || body.Sections[0].Title != "Setup Steps" {
		t.Errorf("sections = %+v", body.Sections)
	}
	if body.Structure.TotalSections != 2 {
		t.Errorf("summary should count every section, got %d", body.Structure.TotalSections)
	}

	if rec := e.upload(t, "/api/structure?level=chapterish", "guide.md", []byte(doc), nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown level status = %d", rec.Code)
	}
}

func TestDocuments_ListAndDelete(t *testing.T) {
	e := newTestEnv(t, Options{})
	if rec := e.upload(t, "/upload", "bio.txt", []byte(biology), nil); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	var list struct {
		Cache     bool              `json:"cache"`
		Documents []deckstore.Entry `json:"documents"`
	}
	decode(t, e.do(t, http.MethodGet, "/api/documents", nil, "", nil), &list)
	if !list.Cache || len(list.Documents) != 1 || list.Documents[0].FileName != "bio.txt" {
		t.Fatalf("list = %+v", list)
	}

	hash := list.Documents[0].Hash
	if rec := e.do(t, http.MethodDelete, "/api/documents/"+hash, nil, "", nil); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodDelete, "/api/documents/"+hash, nil, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	e := newTestEnv(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})
	if rec := e.upload(t, "/upload", "bio.txt", []byte(biology), nil); rec.Code != http.StatusOK {
		t.Fatalf("first upload status = %d", rec.Code)
	}
	rec := e.upload(t, "/upload", "bio.txt", []byte(biology), nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second upload status = %d, want 429", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/health", nil, "", nil); rec.Code != http.StatusOK {
		t.Errorf("health is not rate limited, got %d", rec.Code)
	}
}

func TestIPLimiter_ForgetsIdleClients(t *testing.T) {
	l := newIPLimiter(0.001, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") || l.allow("10.0.0.1") {
		t.Fatal("expected one request then a block")
	}
	if !l.allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
	now = now.Add(2 * time.Minute)
	l.allow("10.0.0.3")
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Error("idle client should have been forgotten")
	}
}

func TestLLMStats_NoModel(t *testing.T) {
	e := newTestEnv(t, Options{})
	var body map[string]any
	decode(t, e.do(t, http.MethodGet, "/api/stats/llm", nil, "", nil), &body)
	if body["provider"] != "none" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["stats"]; ok {
		t.Error("no stats without a model")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.upload(t, "/upload", "bio.txt", []byte(biology), nil)
	rec := e.do(t, http.MethodGet, "/metrics", nil, "", nil)
	if !strings.Contains(rec.Body.String(), `flashcards_documents_total{path="fallback"} 1`) {
		t.Errorf("metrics missing fallback document count")
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodOptions, "/upload", nil, "", map[string]string{
		"Origin":                        "https://study.example",
		"Access-Control-Request-Method": "POST",
	})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"notes.txt":               "notes.txt",
		"../../etc/passwd.txt":    "passwd.txt",
		`C:\Users\me\lecture.pdf`: "lecture.pdf",
		"a..b.md":                 "a_b.md",
		"":                        "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
