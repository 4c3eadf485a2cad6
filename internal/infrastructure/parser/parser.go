// Package parser reads Spring-style configuration files (YAML and Java
// properties) into ordered lists of config documents.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/expression"
	"springresolver.dev/cli/internal/core/profiles"
)

// ParseFile parses a configuration file, dispatching on its extension.
// Returned warnings cover restriction violations and dropped documents.
func ParseFile(path string) ([]*domain.ConfigDocument, []domain.Warning, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return ParseYAMLFile(path)
	case ".properties":
		return ParsePropertiesFile(path)
	default:
		return nil, nil, fmt.Errorf("unsupported configuration file type: %s", filepath.Ext(path))
	}
}

// finishDocument applies activation extraction and the Spring restriction
// checks to a freshly parsed document. A nil return means the document was
// dropped.
func finishDocument(doc *domain.ConfigDocument, warnings *[]domain.Warning) *domain.ConfigDocument {
	raw, ok := takePath(doc.Content, "spring.config.activate.on-profile")
	if ok {
		if hasProfilesDirective(doc.Content) {
			*warnings = append(*warnings, domain.Warning{
				Category: domain.WarningRestriction,
				Message: fmt.Sprintf("%s (document %d): spring.config.activate.on-profile cannot be combined with spring.profiles.active/include; document dropped",
					filepath.Base(doc.SourceFile), doc.DocumentIndex),
			})
			return nil
		}

		expr, rawText, err := parseActivation(raw)
		if err != nil {
			*warnings = append(*warnings, domain.Warning{
				Category: domain.WarningRestriction,
				Message: fmt.Sprintf("%s (document %d): invalid profile expression %q: %v; document dropped",
					filepath.Base(doc.SourceFile), doc.DocumentIndex, rawText, err),
			})
			return nil
		}
		doc.Activation = expr
		doc.RawActivation = rawText
	}

	if platform, ok := takePath(doc.Content, "spring.config.activate.on-cloud-platform"); ok {
		if s, ok := platform.(string); ok {
			doc.OnCloudPlatform = s
		}
	}

	// Group definitions are only legal in documents without an activation
	// condition; an illegal directive is stripped, not fatal.
	if doc.Activation != nil && profiles.HasGroups(doc.Content) {
		*warnings = append(*warnings, domain.Warning{
			Category: domain.WarningRestriction,
			Message: fmt.Sprintf("%s (document %d): spring.profiles.group is not allowed in a profile-specific document; directive ignored",
				filepath.Base(doc.SourceFile), doc.DocumentIndex),
		})
		profiles.StripGroups(doc.Content)
	}

	return doc
}

// parseActivation compiles an on-profile value. A comma-separated list (or a
// YAML sequence) means logical OR of its elements.
func parseActivation(raw any) (expression.Expr, string, error) {
	switch v := raw.(type) {
	case string:
		if strings.Contains(v, ",") {
			expr, err := expression.ParseList(strings.Split(v, ","))
			return expr, v, err
		}
		expr, err := expression.Parse(v)
		return expr, v, err
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		expr, err := expression.ParseList(parts)
		return expr, strings.Join(parts, ","), err
	default:
		text := fmt.Sprint(raw)
		expr, err := expression.Parse(text)
		return expr, text, err
	}
}

// hasProfilesDirective reports whether the document sets
// spring.profiles.active or spring.profiles.include.
func hasProfilesDirective(content map[string]any) bool {
	if _, ok := domain.GetPath(content, "spring.profiles.active"); ok {
		return true
	}
	_, ok := domain.GetPath(content, "spring.profiles.include")
	return ok
}

// takePath removes and returns the value at a dot-path, pruning mapping
// nodes emptied by the removal.
func takePath(tree map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	parents := make([]map[string]any, 0, len(parts))
	current := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		parents = append(parents, current)
		current = next
	}
	leaf := parts[len(parts)-1]
	value, ok := current[leaf]
	if !ok {
		return nil, false
	}
	delete(current, leaf)

	for i := len(parents) - 1; i >= 0; i-- {
		child, _ := parents[i][parts[i]].(map[string]any)
		if len(child) == 0 {
			delete(parents[i], parts[i])
		}
	}
	return value, true
}
