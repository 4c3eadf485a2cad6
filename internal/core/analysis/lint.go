package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// renamedProperty maps a retired property path to its replacement.
type renamedProperty struct {
	old string
	new string
}

var renamedProperties = []renamedProperty{
	{"server.max-http-header-size", "server.max-http-request-header-size"},
	{"spring.datasource.initialization-mode", "spring.sql.init.mode"},
	{"spring.datasource.data", "spring.sql.init.data-locations"},
	{"spring.datasource.schema", "spring.sql.init.schema-locations"},
	{"management.metrics.export.prometheus.enabled", "management.prometheus.metrics.export.enabled"},
}

var kebabCase = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
var camelCase = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// maxRecommendedDepth flags configuration trees nested deeper than typical
// Spring property namespaces.
const maxRecommendedDepth = 8

// Linter checks naming conventions and deprecated property usage.
type Linter struct {
	strict bool
}

// NewLinter creates a linter. In strict mode warnings upgrade to errors.
func NewLinter(strict bool) *Linter { return &Linter{strict: strict} }

func (l *Linter) Name() string { return "lint" }

func (l *Linter) Analyze(config map[string]any, _ domain.SourceMap) []Issue {
	var issues []Issue

	for _, rename := range renamedProperties {
		if _, ok := domain.GetPath(config, rename.old); ok {
			issues = append(issues, Issue{
				Severity:       l.severity(SeverityWarning),
				PropertyPath:   rename.old,
				Type:           "deprecated-property",
				Message:        "property has been renamed",
				Recommendation: fmt.Sprintf("use %s instead", rename.new),
			})
		}
	}

	leafValues(config, "", func(path string, _ any) {
		keys := strings.Split(stripIndices(path), ".")
		key := keys[len(keys)-1]
		if key == "" || kebabCase.MatchString(key) {
			return
		}
		if camelCase.MatchString(key) {
			issues = append(issues, Issue{
				Severity:       SeverityInfo,
				PropertyPath:   path,
				Type:           "naming-convention",
				Message:        fmt.Sprintf("key %q uses camelCase", key),
				Recommendation: "prefer kebab-case for property names",
			})
		}
	})

	if depth := nestingDepth(config, 0); depth > maxRecommendedDepth {
		issues = append(issues, Issue{
			Severity:     SeverityInfo,
			PropertyPath: "",
			Type:         "deep-nesting",
			Message:      fmt.Sprintf("configuration nests %d levels deep", depth),
		})
	}

	return issues
}

func (l *Linter) severity(base Severity) Severity {
	if l.strict && base == SeverityWarning {
		return SeverityError
	}
	return base
}

var indexSuffix = regexp.MustCompile(`\[\d+\]`)

func stripIndices(path string) string {
	return indexSuffix.ReplaceAllString(path, "")
}

func nestingDepth(config map[string]any, depth int) int {
	max := depth
	for _, value := range config {
		if m, ok := value.(map[string]any); ok {
			if d := nestingDepth(m, depth+1); d > max {
				max = d
			}
		}
	}
	return max
}
