package corpus

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

const manifestName = "manifest.yaml"

// DirLoader reads source documents from a directory. When a
// manifest.yaml is present it names the documents, their files and
// extra metadata; otherwise every .txt/.md/.pdf file in the directory
// becomes one document keyed by its base name.
type DirLoader struct {
	root string
}

func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	ID   string         `yaml:"id"`
	Path string         `yaml:"path"`
	Meta map[string]any `yaml:"meta"`
}

func (l *DirLoader) Load(ctx context.Context) ([]domain.SourceDocument, error) {
	manifestPath := filepath.Join(l.root, manifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return l.loadFromManifest(ctx, manifestPath)
	}
	return l.loadDirectory(ctx)
}

func (l *DirLoader) loadFromManifest(ctx context.Context, path string) ([]domain.SourceDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read corpus manifest", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse corpus manifest", err)
	}
	if len(m.Documents) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse corpus manifest", fmt.Errorf("manifest lists no documents"))
	}

	docs := make([]domain.SourceDocument, 0, len(m.Documents))
	for _, entry := range m.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.ID == "" || entry.Path == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse corpus manifest", fmt.Errorf("document entry needs both id and path"))
		}
		text, err := l.extract(filepath.Join(l.root, entry.Path))
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.SourceDocument{ID: entry.ID, Text: text, Meta: entry.Meta})
	}
	return docs, nil
}

func (l *DirLoader) loadDirectory(ctx context.Context) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read corpus directory", err)
	}

	var docs []domain.SourceDocument
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !supportedExtension(entry.Name()) {
			continue
		}
		text, err := l.extract(filepath.Join(l.root, entry.Name()))
		if err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		docs = append(docs, domain.SourceDocument{ID: id, Text: text})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func supportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func (l *DirLoader) extract(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDF(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "read corpus file", err)
	}
	return string(raw), nil
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", err)
	}
	var b bytes.Buffer
	if _, err := b.ReadFrom(plain); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", err)
	}
	return b.String(), nil
}
