package domain

import (
	"fmt"
	"path/filepath"
)

// ConfigSource tracks where a configuration value originated. Sources are
// value objects; equality is by file path and document index.
type ConfigSource struct {
	File          string
	DocumentIndex int
	Line          int
}

// NewConfigSource creates a source pointing at a document within a file.
func NewConfigSource(file string, documentIndex int) ConfigSource {
	return ConfigSource{File: file, DocumentIndex: documentIndex}
}

// Relative returns the source file path relative to base, falling back to the
// absolute path when it cannot be made relative.
func (s ConfigSource) Relative(base string) string {
	rel, err := filepath.Rel(base, s.File)
	if err != nil {
		return s.File
	}
	return rel
}

// String implements the Stringer interface.
func (s ConfigSource) String() string {
	if s.Line > 0 {
		return fmt.Sprintf("%s:%d", filepath.Base(s.File), s.Line)
	}
	return filepath.Base(s.File)
}

// SourceMap is a flat mapping from dot-path to the origin of the leaf
// currently occupying that path.
type SourceMap map[string]ConfigSource

// Clone returns a shallow copy; sources themselves are immutable values.
func (m SourceMap) Clone() SourceMap {
	out := make(SourceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
