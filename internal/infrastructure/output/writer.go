// Package output emits the merged configuration tree as YAML annotated
// with source attribution comments.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"springresolver.dev/cli/internal/core/domain"
)

// Annotator renders a merged tree with per-source comments. When every leaf
// beneath a mapping key shares one source, the mapping gets a block comment;
// diverging leaves get inline comments instead.
type Annotator struct {
	sources    domain.SourceMap
	overridden map[string]struct{}
	baseDir    string
}

// NewAnnotator creates an annotator. baseDir anchors the relative paths
// used in comments, typically the project root.
func NewAnnotator(sources domain.SourceMap, overridden map[string]struct{}, baseDir string) *Annotator {
	if overridden == nil {
		overridden = make(map[string]struct{})
	}
	return &Annotator{sources: sources, overridden: overridden, baseDir: baseDir}
}

// Render produces the annotated YAML document.
func (a *Annotator) Render(config map[string]any) (string, error) {
	root := a.buildMapping(config, "", false)

	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	return sb.String(), nil
}

// buildMapping renders a mapping node with keys in lexicographic order so
// output is byte-for-byte deterministic.
func (a *Annotator) buildMapping(tree map[string]any, prefix string, suppress bool) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range domain.SortedKeys(tree) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		value := tree[key]

		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		childSuppress := suppress

		if m, isMap := value.(map[string]any); isMap && len(m) > 0 && !suppress {
			if src, uniform := a.uniformSource(path); uniform {
				keyNode.HeadComment = "From: " + src.Relative(a.baseDir)
				childSuppress = true
			}
		}

		valueNode := a.buildValue(value, path, childSuppress)

		if _, isMap := value.(map[string]any); !isMap && !suppress {
			if src, ok := a.sources[path]; ok {
				comment := src.Relative(a.baseDir)
				if _, over := a.overridden[path]; over {
					comment += " (overridden)"
				}
				valueNode.LineComment = comment
			}
		}

		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node
}

func (a *Annotator) buildValue(value any, path string, suppress bool) *yaml.Node {
	switch v := value.(type) {
	case map[string]any:
		return a.buildMapping(v, path, suppress)
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range v {
			node.Content = append(node.Content, a.buildValue(item, fmt.Sprintf("%s[%d]", path, i), true))
		}
		return node
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			node.Kind = yaml.ScalarNode
			node.SetString(fmt.Sprint(v))
		}
		return node
	}
}

// uniformSource reports whether every source entry at or beneath the path
// points at the same origin.
func (a *Annotator) uniformSource(path string) (domain.ConfigSource, bool) {
	prefix := path + "."
	var found bool
	var src domain.ConfigSource
	for key, candidate := range a.sources {
		if key != path && !strings.HasPrefix(key, prefix) {
			continue
		}
		if !found {
			src, found = candidate, true
			continue
		}
		if candidate.File != src.File || candidate.DocumentIndex != src.DocumentIndex {
			return domain.ConfigSource{}, false
		}
	}
	return src, found
}

// Filename derives the default output file name from the requested
// profiles, e.g. application-prod-aws-computed.yml.
func Filename(profiles []string) string {
	if len(profiles) == 0 {
		return "application-computed.yml"
	}
	return fmt.Sprintf("application-%s-computed.yml", strings.Join(profiles, "-"))
}

// WriteFile writes the rendered document under dir, creating the directory
// if missing, and returns the full output path.
func WriteFile(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}
