// Package testfixtures provides builder-style helpers for resolver tests.
package testfixtures

import (
	"os"
	"path/filepath"
	"testing"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/expression"
)

// ProjectBuilder assembles a Spring-style project layout on disk.
type ProjectBuilder struct {
	root  string
	files map[string]string
}

// NewProjectBuilder creates a builder rooted at the given directory,
// typically t.TempDir().
func NewProjectBuilder(root string) *ProjectBuilder {
	return &ProjectBuilder{root: root, files: make(map[string]string)}
}

// WithMainResource adds a file under src/main/resources.
func (b *ProjectBuilder) WithMainResource(name, content string) *ProjectBuilder {
	b.files[filepath.Join("src", "main", "resources", name)] = content
	return b
}

// WithTestResource adds a file under src/test/resources.
func (b *ProjectBuilder) WithTestResource(name, content string) *ProjectBuilder {
	b.files[filepath.Join("src", "test", "resources", name)] = content
	return b
}

// WithFile adds a file at an arbitrary project-relative path.
func (b *ProjectBuilder) WithFile(relPath, content string) *ProjectBuilder {
	b.files[relPath] = content
	return b
}

// MustBuild writes every file, failing the test on error, and returns the
// project root.
func (b *ProjectBuilder) MustBuild(t *testing.T) string {
	t.Helper()
	for relPath, content := range b.files {
		path := filepath.Join(b.root, relPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create fixture directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write fixture file %s: %v", relPath, err)
		}
	}
	return b.root
}

// DocumentBuilder builds config documents for merger and profile tests.
type DocumentBuilder struct {
	doc domain.ConfigDocument
}

// NewDocumentBuilder creates a builder with an empty unconditional document.
func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{doc: domain.ConfigDocument{
		Content:    map[string]any{},
		SourceFile: "application.yml",
	}}
}

// WithContent sets the document tree.
func (b *DocumentBuilder) WithContent(content map[string]any) *DocumentBuilder {
	b.doc.Content = content
	return b
}

// WithSource sets the origin file and document index.
func (b *DocumentBuilder) WithSource(file string, index int) *DocumentBuilder {
	b.doc.SourceFile = file
	b.doc.DocumentIndex = index
	return b
}

// WithActivation compiles and attaches an on-profile expression.
func (b *DocumentBuilder) WithActivation(t *testing.T, expr string) *DocumentBuilder {
	t.Helper()
	compiled, err := expression.Parse(expr)
	if err != nil {
		t.Fatalf("invalid activation expression %q: %v", expr, err)
	}
	b.doc.Activation = compiled
	b.doc.RawActivation = expr
	return b
}

// Build returns the assembled document.
func (b *DocumentBuilder) Build() *domain.ConfigDocument {
	return &b.doc
}
