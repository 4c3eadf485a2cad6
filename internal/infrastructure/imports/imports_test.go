package imports

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/infrastructure/parser"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseFixture(t *testing.T, path string) []*domain.ConfigDocument {
	t.Helper()
	docs, _, err := parser.ParseFile(path)
	require.NoError(t, err)
	return docs
}

func TestExpand_FileImportSplicedAfterImporter(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "application.yml", `
spring:
  config:
    import: file:extra/db.yml
a: base
---
spring:
  config:
    activate:
      on-profile: prod
a: prod
`)
	writeConfig(t, dir, filepath.Join("extra", "db.yml"), "db: imported\n")

	docs := parseFixture(t, base)
	expanded, warnings, err := NewExpander(nil).Expand(docs)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, expanded, 3)
	assert.Equal(t, base, expanded[0].SourceFile)
	assert.Equal(t, filepath.Join(dir, "extra", "db.yml"), expanded[1].SourceFile, "import spliced immediately after importer")
	assert.Equal(t, "prod", expanded[2].RawActivation)
}

func TestExpand_ClasspathImportSearchesRoots(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "resources")
	base := writeConfig(t, dir, filepath.Join("elsewhere", "application.yml"), `
spring:
  config:
    import: classpath:shared/common.yml
`)
	writeConfig(t, root, filepath.Join("shared", "common.yml"), "shared: true\n")

	docs := parseFixture(t, base)
	expanded, _, err := NewExpander([]string{root}).Expand(docs)
	require.NoError(t, err)
	require.Len(t, expanded, 2)

	shared, _ := domain.GetPath(expanded[1].Content, "shared")
	assert.Equal(t, true, shared)
}

func TestExpand_TransitiveImports(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "application.yml", "spring:\n  config:\n    import: file:one.yml\n")
	writeConfig(t, dir, "one.yml", "spring:\n  config:\n    import: file:two.yml\none: 1\n")
	writeConfig(t, dir, "two.yml", "two: 2\n")

	docs := parseFixture(t, base)
	expanded, _, err := NewExpander(nil).Expand(docs)
	require.NoError(t, err)

	require.Len(t, expanded, 3)
	assert.Equal(t, filepath.Join(dir, "one.yml"), expanded[1].SourceFile)
	assert.Equal(t, filepath.Join(dir, "two.yml"), expanded[2].SourceFile)
}

func TestExpand_CycleIsFatal(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "application.yml", "spring:\n  config:\n    import: file:looper.yml\n")
	writeConfig(t, dir, "looper.yml", "spring:\n  config:\n    import: file:application.yml\n")

	docs := parseFixture(t, base)
	_, _, err := NewExpander(nil).Expand(docs)
	require.Error(t, err)

	var cycleErr *domain.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, domain.CycleImport, cycleErr.Kind)
}

func TestExpand_MissingImport(t *testing.T) {
	dir := t.TempDir()

	t.Run("RequiredIsFatal", func(t *testing.T) {
		base := writeConfig(t, dir, "application.yml", "spring:\n  config:\n    import: file:missing.yml\n")
		docs := parseFixture(t, base)

		_, _, err := NewExpander(nil).Expand(docs)
		require.Error(t, err)

		var importErr *domain.ImportError
		require.True(t, errors.As(err, &importErr))
		assert.Equal(t, "file:missing.yml", importErr.Directive)
	})

	t.Run("OptionalIsWarning", func(t *testing.T) {
		base := writeConfig(t, dir, "application2.yml", "spring:\n  config:\n    import: optional:file:missing.yml\n")
		docs := parseFixture(t, base)

		expanded, warnings, err := NewExpander(nil).Expand(docs)
		require.NoError(t, err)
		assert.Len(t, expanded, 1)
		require.Len(t, warnings, 1)
		assert.Equal(t, domain.WarningImport, warnings[0].Category)
	})
}

func TestExpand_SequenceOfImports(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "application.yml", `
spring:
  config:
    import:
      - file:one.yml
      - optional:file:absent.yml
      - file:two.yml
`)
	writeConfig(t, dir, "one.yml", "one: 1\n")
	writeConfig(t, dir, "two.yml", "two: 2\n")

	docs := parseFixture(t, base)
	expanded, warnings, err := NewExpander(nil).Expand(docs)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	require.Len(t, expanded, 3)
	assert.Equal(t, filepath.Join(dir, "one.yml"), expanded[1].SourceFile)
	assert.Equal(t, filepath.Join(dir, "two.yml"), expanded[2].SourceFile)
}

func TestExpand_ActivatedDocumentsDoNotImport(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "application.yml", `
spring:
  config:
    activate:
      on-profile: prod
    import: file:extra.yml
`)
	writeConfig(t, dir, "extra.yml", "extra: true\n")

	docs := parseFixture(t, base)
	expanded, _, err := NewExpander(nil).Expand(docs)
	require.NoError(t, err)
	assert.Len(t, expanded, 1, "imports in activated documents are ignored")
}

func TestParseDirective_Forms(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected Location
	}{
		{
			name:     "File",
			value:    "file:./config/extra.yml",
			expected: Location{Path: "./config/extra.yml", Scheme: "file", Raw: "file:./config/extra.yml"},
		},
		{
			name:     "OptionalFile",
			value:    "optional:file:maybe.yml",
			expected: Location{Path: "maybe.yml", Scheme: "file", Optional: true, Raw: "optional:file:maybe.yml"},
		},
		{
			name:     "Classpath",
			value:    "classpath:config/default.yml",
			expected: Location{Path: "config/default.yml", Scheme: "classpath", Raw: "classpath:config/default.yml"},
		},
		{
			name:     "BarePathActsAsClasspath",
			value:    "config/local.yml",
			expected: Location{Path: "config/local.yml", Raw: "config/local.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseDirective(tt.value))
		})
	}
}
