// Package merge folds config documents into a single tree while maintaining
// a parallel flat source map attributing every leaf to its origin document.
package merge

import (
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// Result carries the merged tree, the per-leaf source map, and the set of
// dot-paths whose value was replaced at least once during the fold.
type Result struct {
	Config     map[string]any
	Sources    domain.SourceMap
	Overridden map[string]struct{}
}

// Documents folds the given documents left to right. Later documents win
// strictly; sequences replace as units; mappings merge key-wise.
func Documents(documents []*domain.ConfigDocument) Result {
	res := Result{
		Config:     make(map[string]any),
		Sources:    make(domain.SourceMap),
		Overridden: make(map[string]struct{}),
	}
	for _, doc := range documents {
		res.apply(res.Config, doc.Content, doc.Source(), "")
	}
	return res
}

// apply merges override into acc in place, attributing new leaves to source.
func (r *Result) apply(acc, override map[string]any, source domain.ConfigSource, prefix string) {
	for key, overrideValue := range override {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		existing, exists := acc[key]
		accMap, accIsMap := existing.(map[string]any)
		overrideMap, overrideIsMap := overrideValue.(map[string]any)

		switch {
		case !exists:
			acc[key] = deepCopy(overrideValue)
			r.track(overrideValue, path, source)
		case accIsMap && overrideIsMap:
			// Empty mapping values mean "path exists, no children" and do
			// not blank out prior subtrees. An empty accumulator mapping was
			// recorded as a leaf; gaining children turns it interior.
			if len(overrideMap) > 0 {
				delete(r.Sources, path)
			}
			r.apply(accMap, overrideMap, source, path)
		default:
			r.removeUnder(path)
			r.Overridden[path] = struct{}{}
			acc[key] = deepCopy(overrideValue)
			r.track(overrideValue, path, source)
		}
	}
}

// track records source entries for a value and all its leaf descendants.
// Sequences are attributed as a whole at the sequence path.
func (r *Result) track(value any, path string, source domain.ConfigSource) {
	if m, ok := value.(map[string]any); ok && len(m) > 0 {
		for k, v := range m {
			r.track(v, path+"."+k, source)
		}
		return
	}
	r.Sources[path] = source
}

// removeUnder drops source entries at the path and every path beneath it.
func (r *Result) removeUnder(path string) {
	prefix := path + "."
	for k := range r.Sources {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(r.Sources, k)
		}
	}
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return domain.DeepCopyTree(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
