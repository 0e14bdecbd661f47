package store

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks github.com/ngocdv/vanban/internal/store DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// DocumentRecord is one row of the parsed-document registry. The JSON
// form is what the HTTP API returns for document listings.
type DocumentRecord struct {
	ID            string    `json:"id"`          // UUID
	SourceFile    string    `json:"source_file"` // File name the document was parsed from
	Number        string    `json:"number"`      // Official document number ("05/CT-TTg")
	Type          string    `json:"doc_type"`    // Document type line ("CHỈ THỊ")
	Issuer        string    `json:"issuer"`
	IssueDate     string    `json:"issue_date"`
	EffectiveDate string    `json:"effective_date"`
	Name          string    `json:"name"`
	ContentHash   string    `json:"content_hash"` // SHA256 hex of the source file content
	ChunkCount    int       `json:"chunk_count"`
	JSONPath      string    `json:"-"` // Path of the per-document parse output
	ParsedAt      time.Time `json:"parsed_at"`
}

// CorpusStats summarizes the registry for the stats endpoint.
type CorpusStats struct {
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	ByType    map[string]int `json:"by_type"`
}

// DocumentStore defines the registry operations the pipeline and the
// HTTP API depend on.
type DocumentStore interface {
	// GetBySource gets a record by source file name. Returns
	// ErrNotFound if the file was never parsed.
	GetBySource(ctx context.Context, sourceFile string) (*DocumentRecord, error)
	// GetByID gets a record by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// Upsert inserts a new record or updates the existing one for
	// the same source file, preserving its ID.
	Upsert(ctx context.Context, rec *DocumentRecord) error
	// List returns all records ordered by source file name.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Stats returns document and chunk totals plus per-type counts.
	Stats(ctx context.Context) (CorpusStats, error)
}

// DocumentRepo implements DocumentStore on a SQLite database.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, source_file, number, doc_type, issuer, issue_date, effective_date, name, content_hash, chunk_count, json_path, parsed_at"

// GetBySource gets a record by source file name. Returns ErrNotFound
// if the file was never parsed.
func (r *DocumentRepo) GetBySource(ctx context.Context, sourceFile string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source_file = ?",
		sourceFile,
	)
	return scanDocument(row)
}

// GetByID gets a record by its ID. Returns ErrNotFound if absent.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?",
		id,
	)
	return scanDocument(row)
}

// Upsert inserts a new record or updates the existing one for the
// same source file. New records get a generated UUID; existing ones
// keep theirs.
func (r *DocumentRepo) Upsert(ctx context.Context, rec *DocumentRecord) error {
	existing, err := r.GetBySource(ctx, rec.SourceFile)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check existing document: %w", err)
	}

	if existing != nil {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_file, number, doc_type, issuer, issue_date, effective_date, name, content_hash, chunk_count, json_path, parsed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_file) DO UPDATE SET
		 number = excluded.number, doc_type = excluded.doc_type, issuer = excluded.issuer,
		 issue_date = excluded.issue_date, effective_date = excluded.effective_date,
		 name = excluded.name, content_hash = excluded.content_hash,
		 chunk_count = excluded.chunk_count, json_path = excluded.json_path,
		 parsed_at = CURRENT_TIMESTAMP`,
		rec.ID, rec.SourceFile, rec.Number, rec.Type, rec.Issuer,
		rec.IssueDate, rec.EffectiveDate, rec.Name, rec.ContentHash,
		rec.ChunkCount, rec.JSONPath,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	return nil
}

// List returns all records ordered by source file name.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY source_file",
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return records, nil
}

// Stats returns document and chunk totals plus per-type counts.
func (r *DocumentRepo) Stats(ctx context.Context) (CorpusStats, error) {
	stats := CorpusStats{ByType: make(map[string]int)}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(chunk_count), 0) FROM documents",
	).Scan(&stats.Documents, &stats.Chunks)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("query totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type",
	)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("query type counts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var docType string
		var count int
		if err := rows.Scan(&docType, &count); err != nil {
			return CorpusStats{}, fmt.Errorf("scan type count: %w", err)
		}
		if docType == "" {
			docType = "KHÔNG XÁC ĐỊNH"
		}
		stats.ByType[docType] = count
	}
	if err := rows.Err(); err != nil {
		return CorpusStats{}, fmt.Errorf("row iteration: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var rec DocumentRecord
	var parsedAt string

	err := row.Scan(&rec.ID, &rec.SourceFile, &rec.Number, &rec.Type, &rec.Issuer,
		&rec.IssueDate, &rec.EffectiveDate, &rec.Name, &rec.ContentHash,
		&rec.ChunkCount, &rec.JSONPath, &parsedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	// SQLite returns DATETIME as text in one of two layouts.
	rec.ParsedAt, err = time.Parse("2006-01-02 15:04:05", parsedAt)
	if err != nil {
		rec.ParsedAt, err = time.Parse(time.RFC3339, parsedAt)
		if err != nil {
			return nil, fmt.Errorf("parse parsed_at timestamp: %w", err)
		}
	}

	return &rec, nil
}
