package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirLoaderReadsManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "intro.txt", "vector search basics")
	writeFile(t, dir, "notes.md", "# chunking\noverlap keeps context")
	writeFile(t, dir, "manifest.yaml", `documents:
  - id: intro
    path: intro.txt
    meta:
      topic: retrieval
  - id: chunking_notes
    path: notes.md
`)

	docs, err := NewDirLoader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "intro" || docs[0].Text != "vector search basics" {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if docs[0].Meta["topic"] != "retrieval" {
		t.Fatalf("manifest meta not carried: %+v", docs[0].Meta)
	}
	if docs[1].ID != "chunking_notes" {
		t.Fatalf("unexpected second document id: %s", docs[1].ID)
	}
}

func TestDirLoaderManifestValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", `documents:
  - id: missing_path
`)

	_, err := NewDirLoader(dir).Load(context.Background())
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for incomplete entry, got %v", err)
	}
}

func TestDirLoaderManifestMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", `documents:
  - id: ghost
    path: ghost.txt
`)

	if _, err := NewDirLoader(dir).Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing referenced file")
	}
}

func TestDirLoaderWithoutManifestScansDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.md", "first")
	writeFile(t, dir, "ignored.json", "{}")

	docs, err := NewDirLoader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("expected deterministic id order, got %s, %s", docs[0].ID, docs[1].ID)
	}
}

func TestBuiltinLoaderReturnsSixDocuments(t *testing.T) {
	docs, err := NewBuiltinLoader().Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 6 {
		t.Fatalf("expected 6 documents, got %d", len(docs))
	}
	for i, doc := range docs {
		if doc.ID == "" || doc.Text == "" {
			t.Fatalf("document %d is incomplete: %+v", i, doc)
		}
	}
}
