package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springresolver.dev/cli/internal/core/domain"
)

func TestParseProperties_DottedKeysBuildNestedShape(t *testing.T) {
	docs, warnings, err := parseProperties(
		"server.port=8080\nserver.host=localhost\napp.name: demo\n",
		"application.properties")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, docs, 1)

	port, _ := domain.GetPath(docs[0].Content, "server.port")
	assert.Equal(t, 8080, port)
	host, _ := domain.GetPath(docs[0].Content, "server.host")
	assert.Equal(t, "localhost", host)
	name, _ := domain.GetPath(docs[0].Content, "app.name")
	assert.Equal(t, "demo", name)
}

func TestParseProperties_MultiDocumentSeparators(t *testing.T) {
	content := "server.port=8080\n" +
		"#---\n" +
		"#spring.config.activate.on-profile=dev\n" +
		"server.port=9000\n" +
		"!---\n" +
		"!spring.config.activate.on-profile=prod\n" +
		"server.port=80\n"

	docs, _, err := parseProperties(content, "application.properties")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Nil(t, docs[0].Activation)
	assert.True(t, docs[1].Matches([]string{"dev"}))
	assert.False(t, docs[1].Matches([]string{"prod"}))
	assert.True(t, docs[2].Matches([]string{"prod"}))

	port, _ := domain.GetPath(docs[2].Content, "server.port")
	assert.Equal(t, 80, port)
}

func TestParseProperties_ActivationAsPropertyKey(t *testing.T) {
	content := "spring.config.activate.on-profile=staging\nserver.port=7000\n"

	docs, _, err := parseProperties(content, "application.properties")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.True(t, docs[0].Matches([]string{"staging"}))
	_, present := domain.GetPath(docs[0].Content, "spring.config.activate.on-profile")
	assert.False(t, present, "activation key removed from the tree")
}

func TestParseProperties_SeparatorVariants(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		key      string
		expected any
	}{
		{"Equals", "key=value", "key", "value"},
		{"EqualsSpaced", "key = value", "key", "value"},
		{"Colon", "key:value", "key", "value"},
		{"ColonSpaced", "key: value", "key", "value"},
		{"SpaceSeparator", "key value", "key", "value"},
		{"FirstSeparatorWins", "key=a:b=c", "key", "a:b=c"},
		{"EmptyValue", "key=", "key", ""},
		{"NoSeparator", "flagonly", "flagonly", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, _, err := parseProperties(tt.line+"\n", "test.properties")
			require.NoError(t, err)
			require.Len(t, docs, 1)
			value, ok := domain.GetPath(docs[0].Content, tt.key)
			require.True(t, ok, "key %s missing", tt.key)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestParseProperties_LineContinuation(t *testing.T) {
	content := "long.value=first \\\n    second \\\n    third\n"

	docs, _, err := parseProperties(content, "test.properties")
	require.NoError(t, err)

	value, _ := domain.GetPath(docs[0].Content, "long.value")
	assert.Equal(t, "first second third", value)
}

func TestParseProperties_Escapes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		key      string
		expected string
	}{
		{"Newline", `message=line1\nline2`, "message", "line1\nline2"},
		{"Tab", `message=a\tb`, "message", "a\tb"},
		{"UnicodeEscape", `message=caf\u00e9`, "message", "café"},
		{"Backslash", `path=C\\temp`, "path", `C\temp`},
		{"SurrogateLeftAlone", `bad=\ud800`, "bad", `\ud800`},
		{"UnknownEscapeKeepsChar", `v=a\qb`, "v", "aqb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, _, err := parseProperties(tt.line+"\n", "test.properties")
			require.NoError(t, err)
			value, ok := domain.GetPath(docs[0].Content, tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestParseProperties_CommentsIgnored(t *testing.T) {
	content := "# a comment\n! another comment\nkey=value\n\n"

	docs, _, err := parseProperties(content, "test.properties")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Content, 1)
}

func TestParseProperties_IndexKeysBecomeSequences(t *testing.T) {
	content := "servers[0]=alpha\nservers[1]=beta\ncluster.nodes[0].host=n1\ncluster.nodes[1].host=n2\n"

	docs, _, err := parseProperties(content, "test.properties")
	require.NoError(t, err)

	servers, ok := domain.GetPath(docs[0].Content, "servers")
	require.True(t, ok)
	assert.Equal(t, []any{"alpha", "beta"}, servers)

	nodes, ok := domain.GetPath(docs[0].Content, "cluster.nodes")
	require.True(t, ok)
	list := nodes.([]any)
	require.Len(t, list, 2)
	assert.Equal(t, map[string]any{"host": "n1"}, list[0])
	assert.Equal(t, map[string]any{"host": "n2"}, list[1])
}

func TestParseProperties_ValueTyping(t *testing.T) {
	content := "int=42\nfloat=2.5\nbool=true\nupper=TRUE\nstring=8080abc\n"

	docs, _, err := parseProperties(content, "test.properties")
	require.NoError(t, err)

	expectations := map[string]any{
		"int":    42,
		"float":  2.5,
		"bool":   true,
		"upper":  true,
		"string": "8080abc",
	}
	for key, expected := range expectations {
		value, ok := domain.GetPath(docs[0].Content, key)
		require.True(t, ok, key)
		assert.Equal(t, expected, value, key)
	}
}

func TestParseProperties_EmptySectionsSkipped(t *testing.T) {
	content := "a=1\n#---\n#---\nb=2\n"

	docs, _, err := parseProperties(content, "test.properties")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
