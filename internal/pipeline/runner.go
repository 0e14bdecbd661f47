package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ngocdv/vanban/internal/chunk"
	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/span"
)

// Runner drives the worker over a folder of documents and writes the
// combined corpus JSON plus the chunk JSONL. Failures are isolated per
// file; one bad document never stops the batch.
type Runner struct {
	worker      *Worker
	log         *slog.Logger
	concurrency int
}

func NewRunner(worker *Worker, concurrency int, log *slog.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{worker: worker, log: log, concurrency: concurrency}
}

// RunSummary reports the outcome of one batch run.
type RunSummary struct {
	Files      int    `json:"files"`
	Parsed     int    `json:"parsed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Chunks     int    `json:"chunks"`
	CorpusPath string `json:"corpus_path,omitempty"`
	ChunksPath string `json:"chunks_path,omitempty"`
}

// Run parses every supported file under inputDir with bounded
// concurrency, then writes corpus.json and chunks.jsonl under the
// worker's output directory.
func (r *Runner) Run(ctx context.Context, inputDir string) (RunSummary, error) {
	files, err := listDocuments(inputDir)
	if err != nil {
		return RunSummary{}, err
	}
	if len(files) == 0 {
		r.log.Warn("no supported documents found", "dir", inputDir)
		return RunSummary{}, nil
	}

	jobs := make([]*Job, 0, len(files))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for _, path := range files {
		job := NewJob(filepath.Base(path))
		jobs = append(jobs, job)
		wg.Add(1)
		sem <- struct{}{}
		go func(path string, job *Job) {
			defer wg.Done()
			defer func() { <-sem }()
			data, err := os.ReadFile(path)
			if err != nil {
				r.log.Error("read failed", "file", path, "error", err)
				job.AddError(fmt.Sprintf("read: %s", err))
				job.SetStatus(StatusFailed, "read")
				return
			}
			job.SetFileData(data)
			r.worker.Process(ctx, job)
		}(path, job)
	}
	wg.Wait()

	summary := RunSummary{Files: len(files)}
	docs := make([]*doctree.Document, 0, len(jobs))
	var allChunks []chunk.Chunk

	for _, job := range jobs {
		snap := job.Snapshot()
		switch snap.Status {
		case StatusCompleted, StatusPartial:
			summary.Parsed++
			docs = append(docs, job.Document())
			allChunks = append(allChunks, job.Chunks()...)
		case StatusSkipped:
			summary.Skipped++
			doc, chunks, err := r.reloadExisting(ctx, job)
			if err != nil {
				r.log.Warn("could not reload unchanged document", "file", snap.SourceFile, "error", err)
				continue
			}
			docs = append(docs, doc)
			allChunks = append(allChunks, chunks...)
		default:
			summary.Failed++
			r.log.Error("file failed", "file", snap.SourceFile, "status", snap.Status, "errors", snap.Progress.Errors)
		}
	}
	summary.Chunks = len(allChunks)

	corpusPath, err := r.writeCorpus(docs)
	if err != nil {
		return summary, err
	}
	chunksPath, err := r.writeChunks(allChunks)
	if err != nil {
		return summary, err
	}
	summary.CorpusPath = corpusPath
	summary.ChunksPath = chunksPath

	r.log.Info("batch complete",
		"files", summary.Files,
		"parsed", summary.Parsed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"chunks", summary.Chunks)
	return summary, nil
}

// reloadExisting rebuilds the corpus entry for a file skipped as
// unchanged from the JSON its last parse wrote. Chunks are reflattened
// with fresh IDs; the indexed vectors keep their old ones.
func (r *Runner) reloadExisting(ctx context.Context, job *Job) (*doctree.Document, []chunk.Chunk, error) {
	snap := job.Snapshot()
	rec, err := r.worker.docs.GetBySource(ctx, snap.SourceFile)
	if err != nil {
		return nil, nil, err
	}
	if rec.JSONPath == "" {
		return nil, nil, fmt.Errorf("no stored JSON for %s", snap.SourceFile)
	}
	data, err := os.ReadFile(rec.JSONPath)
	if err != nil {
		return nil, nil, err
	}
	var doc doctree.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", rec.JSONPath, err)
	}
	chunks := chunk.Refine(chunk.Flatten(&doc), r.worker.chunkLimit, nil)
	return &doc, chunks, nil
}

func (r *Runner) writeCorpus(docs []*doctree.Document) (string, error) {
	if err := os.MkdirAll(r.worker.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(r.worker.outputDir, "corpus.json")
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return "", fmt.Errorf("marshal corpus: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (r *Runner) writeChunks(chunks []chunk.Chunk) (string, error) {
	path := filepath.Join(r.worker.outputDir, "chunks.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := chunk.WriteJSONL(f, chunks); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// listDocuments walks dir and returns supported files in walk order.
func listDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if span.IsSupportedExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
