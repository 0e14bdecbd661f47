package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ngocdv/vanban/internal/chunk"
	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/index"
	"github.com/ngocdv/vanban/internal/meta"
	"github.com/ngocdv/vanban/internal/parse"
	"github.com/ngocdv/vanban/internal/span"
	"github.com/ngocdv/vanban/internal/store"
)

// Worker processes a single document job: extract text units, parse
// the structure, flatten chunks, persist outputs and optionally push
// vectors. A nil indexer disables the indexing phase.
type Worker struct {
	meta      *meta.Extractor
	parser    *parse.Parser
	effective *meta.EffectiveDates
	docs      store.DocumentStore
	indexer   *index.Indexer
	log       *slog.Logger

	outputDir  string
	chunkLimit int
}

func NewWorker(rules *classify.RuleSet, grammars *classify.Registry, effective *meta.EffectiveDates, docs store.DocumentStore, indexer *index.Indexer, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		meta:       meta.NewExtractor(rules, grammars, log),
		parser:     parse.New(rules, grammars, log),
		effective:  effective,
		docs:       docs,
		indexer:    indexer,
		log:        log,
		outputDir:  cfg.OutputDir,
		chunkLimit: cfg.ChunkRuneLimit,
	}
}

// Process runs the full parse pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.SourceFile)

	data := job.FileData()
	hash := ContentHashHex(data)
	job.SetContentHash(hash)

	// Phase 0: Dedup. Unchanged bytes mean the registry, outputs and
	// vectors are already current.
	existing, err := w.docs.GetBySource(ctx, job.SourceFile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn("registry lookup failed, proceeding", "error", err)
	} else if err == nil && existing.ContentHash == hash {
		log.Info("content unchanged, skipping", "document_id", existing.ID)
		job.SetDocument(existing.ID, existing.Name)
		job.SetStatus(StatusSkipped, "dedup")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	ex, err := span.ForFile(job.SourceFile)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	units, err := ex.Extract(bytes.NewReader(data), job.SourceFile)
	if err != nil {
		log.Error("text extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if len(units) == 0 {
		log.Warn("no text units extracted")
		job.AddError("no extractable text")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	md := w.meta.Extract(units, job.SourceFile)
	if w.effective != nil {
		w.effective.Apply(&md)
	}

	doc := w.parser.Parse(units, md)
	for _, problem := range doctree.Validate(doc) {
		log.Warn("structure check", "problem", problem)
	}
	stats := doctree.Collect(doc)
	log.Info("parsed document",
		"name", md.DisplayName(),
		"chapters", stats.Chapters,
		"clauses", stats.Clauses,
		"points", stats.Points,
		"amendments", stats.Amendments)

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunk.Flatten(doc)
	chunks = chunk.Refine(chunks, w.chunkLimit, nil)
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no retainable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetResult(doc, chunks)

	// Phase 3: Store the parsed tree and the registry row.
	job.SetStatus(StatusStoring, "storing")
	jsonPath, err := w.writeDocumentJSON(doc, job.SourceFile)
	if err != nil {
		log.Error("document write failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	rec := &store.DocumentRecord{
		SourceFile:    job.SourceFile,
		Number:        md.Number,
		Type:          md.Type,
		Issuer:        md.Issuer,
		IssueDate:     md.IssueDate,
		EffectiveDate: md.EffectiveDate,
		Name:          md.DisplayName(),
		ContentHash:   hash,
		ChunkCount:    len(chunks),
		JSONPath:      jsonPath,
	}
	if err := w.docs.Upsert(ctx, rec); err != nil {
		log.Error("registry upsert failed", "error", err)
		job.AddError(fmt.Sprintf("registry: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.SetDocument(rec.ID, rec.Name)

	// Phase 4: Index vectors.
	if w.indexer == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	job.SetStatus(StatusIndexing, "indexing")
	indexed, err := w.indexWithRetry(ctx, job.SourceFile, chunks)
	job.SetChunksIndexed(indexed)
	if err != nil {
		log.Error("indexing failed", "indexed", indexed, "error", err)
		job.AddError(fmt.Sprintf("index: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}

	log.Info("job complete", "chunks", len(chunks), "indexed", indexed)
	job.SetStatus(StatusCompleted, "done")
}

// indexWithRetry replaces the document's vectors, retrying transient
// embeddings failures with backoff.
func (w *Worker) indexWithRetry(ctx context.Context, sourceFile string, chunks []chunk.Chunk) (int, error) {
	var indexed int
	var lastErr error
	for attempt := range MaxRetries {
		indexed, lastErr = w.indexer.ReplaceDocument(ctx, sourceFile, chunks)
		if lastErr == nil || !IsRetryable(lastErr) {
			return indexed, lastErr
		}
		w.log.Warn("retryable indexing error", "file", sourceFile, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return indexed, ctx.Err()
		}
	}
	return indexed, lastErr
}

// writeDocumentJSON writes the parsed tree under <output>/json and
// returns the path recorded in the registry.
func (w *Worker) writeDocumentJSON(doc *doctree.Document, sourceFile string) (string, error) {
	dir := filepath.Join(w.outputDir, "json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, docBaseName(sourceFile)+".json")
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// docBaseName strips the directory and extension from a source file.
func docBaseName(sourceFile string) string {
	base := filepath.Base(sourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
