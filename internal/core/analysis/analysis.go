// Package analysis hosts optional post-processors that inspect a resolved
// configuration and report issues. Analyzers observe the resolver result and
// never mutate it.
package analysis

import (
	"fmt"
	"sort"

	"springresolver.dev/cli/internal/core/domain"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityWarning  Severity = "warning"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Issue is one finding keyed by the property path it concerns.
type Issue struct {
	Severity       Severity
	PropertyPath   string
	Type           string
	Message        string
	Recommendation string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.PropertyPath, i.Message)
}

// Fatal reports whether the issue should fail the run.
func (i Issue) Fatal() bool {
	return i.Severity == SeverityCritical || i.Severity == SeverityError
}

// Analyzer consumes a resolved configuration and its source map.
type Analyzer interface {
	Name() string
	Analyze(config map[string]any, sources domain.SourceMap) []Issue
}

// Run applies each analyzer in order and returns the combined issues sorted
// by property path for stable reporting.
func Run(analyzers []Analyzer, config map[string]any, sources domain.SourceMap) []Issue {
	var issues []Issue
	for _, analyzer := range analyzers {
		issues = append(issues, analyzer.Analyze(config, sources)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].PropertyPath < issues[j].PropertyPath
	})
	return issues
}

// leafValues walks the tree yielding (dot-path, value) for every scalar and
// sequence leaf.
func leafValues(config map[string]any, prefix string, visit func(path string, value any)) {
	for key, value := range config {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if m, ok := value.(map[string]any); ok && len(m) > 0 {
			leafValues(m, path, visit)
			continue
		}
		visit(path, value)
	}
}
