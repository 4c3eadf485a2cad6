// Package imports expands spring.config.import directives, splicing
// imported documents into the stream immediately after the document that
// imported them.
package imports

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/infrastructure/parser"
)

// MaxDepth caps transitive import recursion.
const MaxDepth = 10

// Location is one parsed import directive.
type Location struct {
	Path     string
	Scheme   string // "file", "classpath", or "" (treated as classpath)
	Optional bool
	Raw      string
}

// Expander resolves import directives against the filesystem and the
// configured classpath roots.
type Expander struct {
	classpathRoots []string

	loaded   map[string]struct{}
	warnings []domain.Warning
}

// NewExpander creates an expander. classpathRoots are searched in order for
// classpath: targets.
func NewExpander(classpathRoots []string) *Expander {
	return &Expander{classpathRoots: classpathRoots}
}

// Expand returns the document stream with every import spliced in directly
// after its importing document, transitively. A cycle on the import stack
// or a non-optional target that cannot be resolved is fatal.
func (e *Expander) Expand(documents []*domain.ConfigDocument) ([]*domain.ConfigDocument, []domain.Warning, error) {
	e.loaded = make(map[string]struct{})
	e.warnings = nil
	for _, doc := range documents {
		e.loaded[absolute(doc.SourceFile)] = struct{}{}
	}

	var out []*domain.ConfigDocument
	for _, doc := range documents {
		expanded, err := e.expandDocument(doc, []string{absolute(doc.SourceFile)}, 0)
		if err != nil {
			return nil, e.warnings, err
		}
		out = append(out, expanded...)
	}
	return out, e.warnings, nil
}

// expandDocument returns the document followed by everything it imports.
func (e *Expander) expandDocument(doc *domain.ConfigDocument, stack []string, depth int) ([]*domain.ConfigDocument, error) {
	out := []*domain.ConfigDocument{doc}

	// Imports are only honoured in documents without an activation
	// condition, matching the framework restriction.
	if doc.Activation != nil {
		return out, nil
	}
	directives := extractDirectives(doc.Content)
	if len(directives) == 0 {
		return out, nil
	}

	if depth >= MaxDepth {
		e.warnings = append(e.warnings, domain.Warning{
			Category: domain.WarningImport,
			Message:  fmt.Sprintf("import depth limit (%d) exceeded at %s", MaxDepth, doc.SourceFile),
		})
		return out, nil
	}

	for _, loc := range directives {
		target, found := e.resolve(loc, filepath.Dir(doc.SourceFile))
		if !found {
			if loc.Optional {
				e.warnings = append(e.warnings, domain.Warning{
					Category: domain.WarningImport,
					Message:  fmt.Sprintf("optional import %q not found (from %s)", loc.Raw, filepath.Base(doc.SourceFile)),
				})
				continue
			}
			return nil, &domain.ImportError{Directive: loc.Raw, File: doc.SourceFile}
		}

		abs := absolute(target)
		if slices.Contains(stack, abs) {
			return nil, &domain.CycleError{Kind: domain.CycleImport, Chain: append(relativeChain(stack), filepath.Base(target))}
		}
		if _, ok := e.loaded[abs]; ok {
			continue
		}
		e.loaded[abs] = struct{}{}

		imported, parseWarnings, err := parser.ParseFile(target)
		e.warnings = append(e.warnings, parseWarnings...)
		if err != nil {
			if loc.Optional {
				e.warnings = append(e.warnings, domain.Warning{
					Category: domain.WarningImport,
					Message:  fmt.Sprintf("optional import %q failed to load: %v", loc.Raw, err),
				})
				continue
			}
			return nil, err
		}

		for _, importedDoc := range imported {
			nested, err := e.expandDocument(importedDoc, append(stack, abs), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}

// resolve maps a directive to an existing file path.
func (e *Expander) resolve(loc Location, baseDir string) (string, bool) {
	switch loc.Scheme {
	case "file":
		path := loc.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if fileExists(path) {
			return path, true
		}
	default:
		// classpath (explicit or bare): first configured root wins.
		for _, root := range e.classpathRoots {
			candidate := filepath.Join(root, loc.Path)
			if fileExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// extractDirectives reads spring.config.import, which may be a scalar or a
// sequence; scalar values may carry comma-separated targets.
func extractDirectives(content map[string]any) []Location {
	raw, ok := domain.GetPath(content, "spring.config.import")
	if !ok {
		return nil
	}

	var values []string
	switch v := raw.(type) {
	case string:
		values = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			values = append(values, fmt.Sprint(item))
		}
	default:
		return nil
	}

	var locations []Location
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		locations = append(locations, parseDirective(value))
	}
	return locations
}

// parseDirective parses "[optional:][scheme:]path".
func parseDirective(value string) Location {
	loc := Location{Raw: value, Path: value}
	rest := value
	if after, ok := strings.CutPrefix(rest, "optional:"); ok {
		loc.Optional = true
		rest = after
	}
	if after, ok := strings.CutPrefix(rest, "file:"); ok {
		loc.Scheme = "file"
		rest = after
	} else if after, ok := strings.CutPrefix(rest, "classpath:"); ok {
		loc.Scheme = "classpath"
		rest = after
	}
	loc.Path = rest
	return loc
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func relativeChain(stack []string) []string {
	out := make([]string, len(stack))
	for i, p := range stack {
		out[i] = filepath.Base(p)
	}
	return out
}
