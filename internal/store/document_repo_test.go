package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "vanban.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func sampleRecord() *DocumentRecord {
	return &DocumentRecord{
		SourceFile:    "chi-thi-05.pdf",
		Number:        "05/CT-TTg",
		Type:          "CHỈ THỊ",
		Issuer:        "THỦ TƯỚNG CHÍNH PHỦ",
		IssueDate:     "01/03/2024",
		EffectiveDate: "15/03/2024",
		Name:          "Chỉ thị 05/CT-TTg",
		ContentHash:   "aaaa1111",
		ChunkCount:    12,
		JSONPath:      "out/chi-thi-05.json",
	}
}

func TestDocumentRepo_UpsertAndGetBySource(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	rec := sampleRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated ID")
	}

	got, err := repo.GetBySource(ctx, "chi-thi-05.pdf")
	if err != nil {
		t.Fatalf("GetBySource: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("expected ID %q, got %q", rec.ID, got.ID)
	}
	if got.Number != "05/CT-TTg" {
		t.Errorf("expected number %q, got %q", "05/CT-TTg", got.Number)
	}
	if got.ChunkCount != 12 {
		t.Errorf("expected 12 chunks, got %d", got.ChunkCount)
	}
	if got.ParsedAt.IsZero() {
		t.Error("expected a parsed_at timestamp")
	}
}

func TestDocumentRepo_UpsertPreservesID(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	first := sampleRecord()
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := sampleRecord()
	second.ContentHash = "bbbb2222"
	second.ChunkCount = 15
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected ID %q preserved, got %q", first.ID, second.ID)
	}

	got, err := repo.GetBySource(ctx, "chi-thi-05.pdf")
	if err != nil {
		t.Fatalf("GetBySource: %v", err)
	}
	if got.ContentHash != "bbbb2222" {
		t.Errorf("expected updated hash %q, got %q", "bbbb2222", got.ContentHash)
	}
	if got.ChunkCount != 15 {
		t.Errorf("expected 15 chunks, got %d", got.ChunkCount)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after re-upsert, got %d", len(records))
	}
}

func TestDocumentRepo_GetBySource_NotFound(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))

	_, err := repo.GetBySource(context.Background(), "missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentRepo_GetByID(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	rec := sampleRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SourceFile != "chi-thi-05.pdf" {
		t.Errorf("expected source %q, got %q", "chi-thi-05.pdf", got.SourceFile)
	}

	if _, err := repo.GetByID(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentRepo_List_Ordering(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	for _, source := range []string{"b.pdf", "a.pdf", "c.pdf"} {
		rec := sampleRecord()
		rec.SourceFile = source
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %s: %v", source, err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if records[i].SourceFile != want {
			t.Errorf("record %d: expected %q, got %q", i, want, records[i].SourceFile)
		}
	}
}

func TestDocumentRepo_Stats(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	directive := sampleRecord()
	if err := repo.Upsert(ctx, directive); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	decree := sampleRecord()
	decree.SourceFile = "nghi-dinh-12.pdf"
	decree.Number = "12/2024/NĐ-CP"
	decree.Type = "NGHỊ ĐỊNH"
	decree.ChunkCount = 30
	if err := repo.Upsert(ctx, decree); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", stats.Documents)
	}
	if stats.Chunks != 42 {
		t.Errorf("expected 42 chunks, got %d", stats.Chunks)
	}
	if stats.ByType["CHỈ THỊ"] != 1 || stats.ByType["NGHỊ ĐỊNH"] != 1 {
		t.Errorf("unexpected type counts: %v", stats.ByType)
	}
}

func TestDocumentRepo_Stats_Empty(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 0 || stats.Chunks != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
