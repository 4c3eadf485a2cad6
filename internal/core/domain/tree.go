package domain

import (
	"sort"
	"strings"
)

// DeepCopyTree clones a config tree so merged results never share nested
// structures with their input documents.
func DeepCopyTree(tree map[string]any) map[string]any {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyTree(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

// GetPath descends a dot-path through mapping nodes. It returns the value at
// the path, or false when any segment is missing or crosses a non-mapping.
func GetPath(tree map[string]any, path string) (any, bool) {
	var current any = tree
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetPath creates mapping nodes as needed and sets the leaf at the dot-path.
func SetPath(tree map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// LeafPaths returns the sorted dot-paths of every leaf in the tree. Sequences
// count as leaves; they are attributed as a whole.
func LeafPaths(tree map[string]any) []string {
	var paths []string
	collectLeafPaths(tree, "", &paths)
	sort.Strings(paths)
	return paths
}

func collectLeafPaths(tree map[string]any, prefix string, out *[]string) {
	for key, value := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if m, ok := value.(map[string]any); ok {
			if len(m) == 0 {
				// Empty mapping: path exists, no children.
				*out = append(*out, path)
				continue
			}
			collectLeafPaths(m, path, out)
			continue
		}
		*out = append(*out, path)
	}
}

// SortedKeys returns the keys of a mapping node in lexicographic order so
// traversal over the merged tree is deterministic.
func SortedKeys(tree map[string]any) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
