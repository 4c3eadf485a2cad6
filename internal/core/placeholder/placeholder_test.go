package placeholder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/vcap"
)

// mapLookup is a test double for the environment overlay.
type mapLookup map[string]string

func (m mapLookup) Lookup(propertyPath string) (string, bool) {
	v, ok := m[propertyPath]
	return v, ok
}

func resolve(t *testing.T, config map[string]any, env mapLookup) (map[string]any, []domain.Warning) {
	t.Helper()
	engine := New(env, vcap.Bindings{})
	return engine.Resolve(config)
}

func TestResolve_ChainWithDefault(t *testing.T) {
	config := map[string]any{
		"database": map[string]any{
			"host": "localhost",
			"port": 5432,
			"url":  "jdbc:postgresql://${database.host}:${database.port}/${database.name:app}",
		},
	}

	resolved, warnings := resolve(t, config, nil)

	url, _ := domain.GetPath(resolved, "database.url")
	assert.Equal(t, "jdbc:postgresql://localhost:5432/app", url)
	assert.Empty(t, warnings)
}

func TestResolve_TreeWinsOverEnvironment(t *testing.T) {
	config := map[string]any{
		"database": map[string]any{"host": "from-tree"},
		"url":      "${database.host}",
	}

	resolved, _ := resolve(t, config, mapLookup{"database.host": "from-env"})

	url, _ := domain.GetPath(resolved, "url")
	assert.Equal(t, "from-tree", url)
}

func TestResolve_EnvironmentFallback(t *testing.T) {
	config := map[string]any{"url": "${database.host}"}

	resolved, warnings := resolve(t, config, mapLookup{"database.host": "db.internal"})

	url, _ := domain.GetPath(resolved, "url")
	assert.Equal(t, "db.internal", url)
	assert.Empty(t, warnings)
}

func TestResolve_DefaultMayContainPlaceholders(t *testing.T) {
	config := map[string]any{
		"fallback": "standby",
		"target":   "${missing.host:${fallback}}",
	}

	resolved, _ := resolve(t, config, nil)

	target, _ := domain.GetPath(resolved, "target")
	assert.Equal(t, "standby", target)
}

func TestResolve_NestedPlaceholderInName(t *testing.T) {
	config := map[string]any{
		"key":        "prod",
		"outer":      map[string]any{"prod": "selected"},
		"indirected": "${outer.${key}:fallback}",
	}

	resolved, _ := resolve(t, config, nil)

	value, _ := domain.GetPath(resolved, "indirected")
	assert.Equal(t, "selected", value)
}

func TestResolve_ValueExpandingToPlaceholderIsRescanned(t *testing.T) {
	config := map[string]any{
		"a": "${b}",
		"b": "${c}",
		"c": "final",
	}

	resolved, _ := resolve(t, config, nil)

	a, _ := domain.GetPath(resolved, "a")
	assert.Equal(t, "final", a)
}

func TestResolve_UnresolvedLeftVerbatimWithWarning(t *testing.T) {
	config := map[string]any{
		"url": "${missing.host}",
	}

	resolved, warnings := resolve(t, config, nil)

	url, _ := domain.GetPath(resolved, "url")
	assert.Equal(t, "${missing.host}", url)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningPlaceholder, warnings[0].Category)
	assert.Contains(t, warnings[0].Message, "url")
	assert.Contains(t, warnings[0].Message, "${missing.host}")
}

func TestResolve_CycleWarnsAndLeavesLiteral(t *testing.T) {
	config := map[string]any{
		"a": "${b}",
		"b": "${a}",
	}

	_, warnings := resolve(t, config, nil)

	require.NotEmpty(t, warnings)
	var sawCycle bool
	for _, w := range warnings {
		if w.Category == domain.WarningPlaceholder && strings.Contains(w.Message, "Circular") {
			sawCycle = true
		}
	}
	assert.True(t, sawCycle, "expected a circular-reference warning, got %v", warnings)
}

func TestResolve_ScalarTyping(t *testing.T) {
	tests := []struct {
		name     string
		config   map[string]any
		path     string
		expected any
	}{
		{
			name:     "WholeValueInteger",
			config:   map[string]any{"port": 8080, "copy": "${port}"},
			path:     "copy",
			expected: 8080,
		},
		{
			name:     "WholeValueBoolean",
			config:   map[string]any{"flag": true, "copy": "${flag}"},
			path:     "copy",
			expected: true,
		},
		{
			name:     "WholeValueFloat",
			config:   map[string]any{"ratio": 0.5, "copy": "${ratio}"},
			path:     "copy",
			expected: 0.5,
		},
		{
			name:     "DefaultTypedWhenWhole",
			config:   map[string]any{"copy": "${missing:42}"},
			path:     "copy",
			expected: 42,
		},
		{
			name:     "PartialSubstitutionStaysString",
			config:   map[string]any{"port": 8080, "addr": "host:${port}"},
			path:     "addr",
			expected: "host:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, _ := resolve(t, tt.config, nil)
			value, ok := domain.GetPath(resolved, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestResolve_SequencesResolveElementwise(t *testing.T) {
	config := map[string]any{
		"host":  "db1",
		"hosts": []any{"${host}", "static", map[string]any{"name": "${host}"}},
	}

	resolved, _ := resolve(t, config, nil)

	hosts, _ := domain.GetPath(resolved, "hosts")
	list := hosts.([]any)
	assert.Equal(t, "db1", list[0])
	assert.Equal(t, "static", list[1])
	assert.Equal(t, map[string]any{"name": "db1"}, list[2])
}

func TestResolve_VcapNamespace(t *testing.T) {
	bindings := vcap.Parse(`{"p.mysql":[{"name":"orders-db","credentials":{"hostname":"db.cf.local","port":3306}}]}`, "")
	engine := New(nil, bindings)

	resolved, warnings := engine.Resolve(map[string]any{
		"datasource": "${vcap.services.orders-db.credentials.hostname}",
	})

	value, _ := domain.GetPath(resolved, "datasource")
	assert.Equal(t, "db.cf.local", value)
	assert.Empty(t, warnings)
}

func TestResolve_InputNotMutated(t *testing.T) {
	config := map[string]any{"host": "x", "url": "${host}"}

	_, _ = resolve(t, config, nil)

	assert.Equal(t, "${host}", config["url"])
}

// TestResolve_IdempotenceProperty: resolving an already-resolved tree is a
// no-op.
func TestResolve_IdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		config := map[string]any{
			"a": rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "a"),
			"b": "${a}",
			"c": "${missing:" + rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "def") + "}",
			"d": rapid.IntRange(0, 99).Draw(t, "d"),
		}

		first, _ := New(nil, vcap.Bindings{}).Resolve(config)
		second, _ := New(nil, vcap.Bindings{}).Resolve(first)
		assert.Equal(t, first, second)
	})
}

func TestResolve_IterationLimitStops(t *testing.T) {
	// A self-growing chain cannot converge; the engine must stop and report.
	config := map[string]any{
		"a": "x${a}",
	}

	engine := New(nil, vcap.Bindings{}, WithMaxIterations(3))
	resolved, _ := engine.Resolve(config)
	require.NotNil(t, resolved)
}
