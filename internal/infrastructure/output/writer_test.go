package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"springresolver.dev/cli/internal/core/domain"
)

func TestRender_BlockCommentForUniformSection(t *testing.T) {
	base := string(filepath.Separator) + "project"
	prodFile := filepath.Join(base, "src", "main", "resources", "application-prod.yml")

	config := map[string]any{
		"server": map[string]any{"port": 80, "host": "prod.example.com"},
	}
	sources := domain.SourceMap{
		"server.port": domain.NewConfigSource(prodFile, 0),
		"server.host": domain.NewConfigSource(prodFile, 0),
	}

	rendered, err := NewAnnotator(sources, nil, base).Render(config)
	require.NoError(t, err)

	assert.Contains(t, rendered, "# From: "+filepath.Join("src", "main", "resources", "application-prod.yml"))
	assert.NotContains(t, rendered, "port: 80 #", "uniform sections do not repeat inline comments")
}

func TestRender_InlineCommentsWhenSourcesDiverge(t *testing.T) {
	base := string(filepath.Separator) + "project"
	baseFile := filepath.Join(base, "application.yml")
	prodFile := filepath.Join(base, "application-prod.yml")

	config := map[string]any{
		"server": map[string]any{"port": 80, "host": "localhost"},
	}
	sources := domain.SourceMap{
		"server.port": domain.NewConfigSource(prodFile, 0),
		"server.host": domain.NewConfigSource(baseFile, 0),
	}
	overridden := map[string]struct{}{"server.port": {}}

	rendered, err := NewAnnotator(sources, overridden, base).Render(config)
	require.NoError(t, err)

	assert.Contains(t, rendered, "port: 80 # application-prod.yml (overridden)")
	assert.Contains(t, rendered, "host: localhost # application.yml")
	assert.NotContains(t, rendered, "From:")
}

func TestRender_OutputParsesBackToSameTree(t *testing.T) {
	config := map[string]any{
		"app": map[string]any{
			"name":  "demo",
			"debug": false,
			"tags":  []any{"a", "b"},
			"limit": 10,
		},
	}
	sources := domain.SourceMap{
		"app.name":  domain.NewConfigSource("application.yml", 0),
		"app.debug": domain.NewConfigSource("application.yml", 0),
		"app.tags":  domain.NewConfigSource("application.yml", 0),
		"app.limit": domain.NewConfigSource("application.yml", 0),
	}

	rendered, err := NewAnnotator(sources, nil, ".").Render(config)
	require.NoError(t, err)

	var roundTripped map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &roundTripped))
	assert.Equal(t, config, roundTripped)
}

func TestRender_DeterministicKeyOrder(t *testing.T) {
	config := map[string]any{"zebra": 1, "alpha": 2, "mid": map[string]any{"b": 1, "a": 2}}
	sources := domain.SourceMap{
		"zebra": domain.NewConfigSource("application.yml", 0),
		"alpha": domain.NewConfigSource("application.yml", 0),
		"mid.a": domain.NewConfigSource("application.yml", 0),
		"mid.b": domain.NewConfigSource("application.yml", 0),
	}

	annotator := NewAnnotator(sources, nil, ".")
	first, err := annotator.Render(config)
	require.NoError(t, err)
	second, err := annotator.Render(config)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "alpha"), strings.Index(first, "zebra"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "application-prod-computed.yml", Filename([]string{"prod"}))
	assert.Equal(t, "application-prod-aws-computed.yml", Filename([]string{"prod", "aws"}))
	assert.Equal(t, "application-computed.yml", Filename(nil))
}

func TestWriteFile_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".computed")

	path, err := WriteFile(dir, "application-prod-computed.yml", "a: 1\n")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))
}
