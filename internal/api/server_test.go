package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/config"
	embed_mocks "github.com/ngocdv/vanban/internal/embed/mocks"
	"github.com/ngocdv/vanban/internal/pipeline"
	"github.com/ngocdv/vanban/internal/retrieve"
	"github.com/ngocdv/vanban/internal/store"
	"github.com/ngocdv/vanban/internal/vectorstore"
	vectorstore_mocks "github.com/ngocdv/vanban/internal/vectorstore/mocks"
)

const testToken = "test-token"

const testDocument = `THỦ TƯỚNG CHÍNH PHỦ
Số: 28/2023/CT-TTg
CHỈ THỊ
Về tăng cường công tác quản lý dữ liệu
I. Phạm vi điều chỉnh
1. Nội dung này quy định trách nhiệm của các cơ quan
a) Đối tượng áp dụng
- Cơ quan nhà nước
- Tổ chức, cá nhân
THỦ TƯỚNG
Phạm Minh Chính
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires the API against a throwaway registry and a
// single-worker orchestrator. searcher may be nil.
func newTestServer(t *testing.T, searcher *retrieve.Searcher) (*Server, store.DocumentStore) {
	t.Helper()

	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "vanban.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	docs := store.NewDocumentRepo(db)

	cfg := config.Config{
		APIToken:       testToken,
		OutputDir:      filepath.Join(dir, "out"),
		ChunkRuneLimit: 600,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	worker := pipeline.NewWorker(classify.DefaultRules(), classify.DefaultRegistry(), nil, docs, nil, testLogger(), cfg)
	orch := pipeline.NewOrchestrator(cfg, worker, testLogger())
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, docs, searcher, testLogger(), cfg), docs
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", body)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_WrongToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUploadAndJobStatus(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, contentType := multipartUpload(t, "chi-thi-28.txt", testDocument)
	req := authedRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accepted.JobID == "" || accepted.PollURL != "/v1/jobs/"+accepted.JobID {
		t.Fatalf("unexpected accept response %+v", accepted)
	}

	// Poll until the worker finishes.
	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authedRequest(http.MethodGet, accepted.PollURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected job to complete, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks == 0 {
		t.Error("expected chunks in the job snapshot")
	}
	if snap.DocumentID == "" {
		t.Error("expected a document ID in the job snapshot")
	}
}

func TestUpload_UnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, contentType := multipartUpload(t, "script.exe", "MZ")
	req := authedRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := authedRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/jobs/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListDocuments(t *testing.T) {
	srv, docs := newTestServer(t, nil)

	rec1 := &store.DocumentRecord{
		SourceFile:  "chi-thi-05.pdf",
		Number:      "05/CT-TTg",
		Type:        "CHỈ THỊ",
		Name:        "Chỉ thị 05/CT-TTg",
		ContentHash: "abc",
		ChunkCount:  12,
	}
	if err := docs.Upsert(context.Background(), rec1); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Documents []store.DocumentRecord `json:"documents"`
		Count     int                    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Documents) != 1 {
		t.Fatalf("expected 1 document, got %+v", resp)
	}
	if resp.Documents[0].SourceFile != "chi-thi-05.pdf" {
		t.Errorf("unexpected record %+v", resp.Documents[0])
	}
}

func TestGetDocument(t *testing.T) {
	srv, docs := newTestServer(t, nil)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "chi-thi-05.json")
	tree := `{"metadata":{"so_hieu":"05/CT-TTg"},"chapters":[]}`
	if err := os.WriteFile(jsonPath, []byte(tree), 0o644); err != nil {
		t.Fatalf("write tree: %v", err)
	}

	rec1 := &store.DocumentRecord{
		SourceFile:  "chi-thi-05.pdf",
		Number:      "05/CT-TTg",
		ContentHash: "abc",
		JSONPath:    jsonPath,
	}
	if err := docs.Upsert(context.Background(), rec1); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/documents/"+rec1.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Record   store.DocumentRecord `json:"record"`
		Document json.RawMessage      `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Record.Number != "05/CT-TTg" {
		t.Errorf("unexpected record %+v", resp.Record)
	}
	var doc struct {
		Metadata struct {
			Number string `json:"so_hieu"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(resp.Document, &doc); err != nil {
		t.Fatalf("decode embedded document: %v", err)
	}
	if doc.Metadata.Number != "05/CT-TTg" {
		t.Errorf("unexpected embedded document %s", resp.Document)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/documents/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv, docs := newTestServer(t, nil)

	for i, doctype := range []string{"CHỈ THỊ", "NGHỊ ĐỊNH"} {
		rec := &store.DocumentRecord{
			SourceFile:  fmt.Sprintf("file-%d.pdf", i),
			Type:        doctype,
			ContentHash: fmt.Sprintf("hash-%d", i),
			ChunkCount:  10,
		}
		if err := docs.Upsert(context.Background(), rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Corpus     store.CorpusStats `json:"corpus"`
		QueueDepth int               `json:"queue_depth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Corpus.Documents != 2 || resp.Corpus.Chunks != 20 {
		t.Errorf("unexpected corpus stats %+v", resp.Corpus)
	}
	if resp.Corpus.ByType["CHỈ THỊ"] != 1 {
		t.Errorf("unexpected per-type stats %+v", resp.Corpus.ByType)
	}
}

func TestSearch_DisabledWithoutIndexing(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := bytes.NewBufferString(`{"query":"phạm vi điều chỉnh"}`)
	req := authedRequest(http.MethodPost, "/v1/search", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := embed_mocks.NewMockEmbedder(ctrl)
	vectors := vectorstore_mocks.NewMockVectorIndex(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"phạm vi điều chỉnh"}).
		Return([][]float32{{0.1, 0.2}}, nil)
	vectors.EXPECT().Search(gomock.Any(), "vanban_chunks", []float32{0.1, 0.2}, 3, nil).
		Return([]vectorstore.SearchResult{
			{ID: "c1", Score: 0.91, Payload: map[string]any{
				"source":   "chi-thi-05.pdf",
				"location": "Chương I, Khoản a",
				"content":  "Phạm vi điều chỉnh của chỉ thị",
			}},
		}, nil)

	searcher := retrieve.NewSearcher(embedder, vectors, retrieve.Config{}, testLogger())
	srv, _ := newTestServer(t, searcher)

	body := bytes.NewBufferString(`{"query":"phạm vi điều chỉnh","top_k":3}`)
	req := authedRequest(http.MethodPost, "/v1/search", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Hits  []retrieve.Hit `json:"hits"`
		Count int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %+v", resp)
	}
	if resp.Hits[0].Source != "chi-thi-05.pdf" || resp.Hits[0].Score != 0.91 {
		t.Errorf("unexpected hit %+v", resp.Hits[0])
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := retrieve.NewSearcher(embed_mocks.NewMockEmbedder(ctrl), vectorstore_mocks.NewMockVectorIndex(ctrl), retrieve.Config{}, testLogger())
	srv, _ := newTestServer(t, searcher)

	body := bytes.NewBufferString(`{"query":"  "}`)
	req := authedRequest(http.MethodPost, "/v1/search", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
