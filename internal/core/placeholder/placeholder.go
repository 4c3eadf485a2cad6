// Package placeholder resolves ${...} property references in a merged
// configuration tree.
//
// A placeholder names a dot-path that resolves against the merged tree
// first, then the VCAP namespace, then the environment overlay; a trailing
// ":default" supplies a fallback. Placeholders nest inside both the name and
// the default, resolving innermost-first, and a value that expands to
// another placeholder is re-scanned. A per-value resolution stack guards
// against reference cycles.
package placeholder

import (
	"fmt"
	"strconv"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/vcap"
)

// DefaultMaxIterations bounds full resolution passes over the tree.
const DefaultMaxIterations = 10

// EnvLookup resolves a property path against the environment overlay.
type EnvLookup interface {
	Lookup(propertyPath string) (string, bool)
}

// Engine performs placeholder resolution over one tree. Engines are cheap
// and single-use; construct a fresh one per resolver invocation.
type Engine struct {
	env           EnvLookup
	vcapTree      map[string]any
	maxIterations int

	root     map[string]any
	warnings []domain.Warning
	warned   map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations overrides the resolution pass limit.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// New creates an engine backed by the given environment overlay and VCAP
// bindings. Either may be empty.
func New(env EnvLookup, bindings vcap.Bindings, opts ...Option) *Engine {
	e := &Engine{
		env:           env,
		vcapTree:      bindings.Tree(),
		maxIterations: DefaultMaxIterations,
		warned:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve returns a resolved copy of config plus any warnings. The input
// tree is never mutated.
func (e *Engine) Resolve(config map[string]any) (map[string]any, []domain.Warning) {
	result := domain.DeepCopyTree(config)
	e.root = result

	for range e.maxIterations {
		if !e.resolveTree(result, "") {
			break
		}
	}
	e.reportUnresolved(result, "")
	return result, e.warnings
}

// resolveTree walks one pass over a mapping node in sorted key order, so
// warning order is deterministic, reporting whether any textual change was
// produced.
func (e *Engine) resolveTree(tree map[string]any, prefix string) bool {
	changed := false
	for _, key := range domain.SortedKeys(tree) {
		value := tree[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			if e.resolveTree(v, path) {
				changed = true
			}
		case []any:
			if e.resolveSequence(v, path) {
				changed = true
			}
		case string:
			resolved, valueChanged := e.resolveLeaf(v, path)
			if valueChanged {
				tree[key] = resolved
				changed = true
			}
		}
	}
	return changed
}

func (e *Engine) resolveSequence(seq []any, path string) bool {
	changed := false
	for i, item := range seq {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		switch v := item.(type) {
		case map[string]any:
			if e.resolveTree(v, itemPath) {
				changed = true
			}
		case []any:
			if e.resolveSequence(v, itemPath) {
				changed = true
			}
		case string:
			resolved, itemChanged := e.resolveLeaf(v, itemPath)
			if itemChanged {
				seq[i] = resolved
				changed = true
			}
		}
	}
	return changed
}

// resolveLeaf substitutes placeholders in one scalar. When the whole scalar
// was a single placeholder and it fully resolved, the replacement re-types
// as integer, float, or boolean where it parses as one; partial
// substitutions stay strings.
func (e *Engine) resolveLeaf(value, path string) (any, bool) {
	if !strings.Contains(value, "${") {
		return value, false
	}
	stack := make(map[string]struct{})
	resolved, changed := e.resolveText(value, path, stack)
	if !changed || resolved == value {
		return value, false
	}
	if wholePlaceholder(value) && !strings.Contains(resolved, "${") {
		return typeScalar(resolved), true
	}
	return resolved, true
}

// resolveText rewrites every placeholder in text, innermost-first.
func (e *Engine) resolveText(text, path string, stack map[string]struct{}) (string, bool) {
	var out strings.Builder
	changed := false
	i := 0
	for i < len(text) {
		if !strings.HasPrefix(text[i:], "${") {
			out.WriteByte(text[i])
			i++
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			out.WriteString(text[i:])
			break
		}

		original := text[i : end+1]
		inner, _ := e.resolveText(text[i+2:end], path, stack)
		name, fallback, hasFallback := splitFallback(inner)

		frame := path + "\x00${" + inner + "}"
		if _, cycling := stack[frame]; cycling {
			e.warnOnce(domain.Warning{
				Category: domain.WarningPlaceholder,
				Message:  fmt.Sprintf("Circular placeholder reference at %s: ${%s}", path, inner),
			})
			out.WriteString(original)
			i = end + 1
			continue
		}

		if value, ok := e.lookup(name); ok {
			str := stringify(value)
			if strings.Contains(str, "${") {
				stack[frame] = struct{}{}
				str, _ = e.resolveText(str, path, stack)
				delete(stack, frame)
			}
			out.WriteString(str)
			changed = true
		} else if hasFallback {
			out.WriteString(fallback)
			changed = true
		} else {
			// Left verbatim; reported once after the final pass.
			out.WriteString(original)
		}
		i = end + 1
	}
	return out.String(), changed
}

// lookup resolves a property name against the merged tree, then the VCAP
// namespace, then the environment overlay. Interior mapping nodes are not
// substitutable and fall through.
func (e *Engine) lookup(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	if v, ok := domain.GetPath(e.root, name); ok {
		if _, isMap := v.(map[string]any); !isMap {
			return v, true
		}
	}
	if v, ok := domain.GetPath(e.vcapTree, name); ok {
		if _, isMap := v.(map[string]any); !isMap {
			return v, true
		}
	}
	if e.env != nil {
		if s, ok := e.env.Lookup(name); ok {
			return s, true
		}
	}
	return nil, false
}

func (e *Engine) warnOnce(w domain.Warning) {
	if _, ok := e.warned[w.Message]; ok {
		return
	}
	e.warned[w.Message] = struct{}{}
	e.warnings = append(e.warnings, w)
}

// reportUnresolved records one warning per distinct (path, placeholder)
// still present after the final pass.
func (e *Engine) reportUnresolved(tree map[string]any, prefix string) {
	for _, key := range domain.SortedKeys(tree) {
		value := tree[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			e.reportUnresolved(v, path)
		case []any:
			e.reportUnresolvedSequence(v, path)
		case string:
			e.reportUnresolvedValue(v, path)
		}
	}
}

func (e *Engine) reportUnresolvedSequence(seq []any, path string) {
	for i, item := range seq {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		switch v := item.(type) {
		case map[string]any:
			e.reportUnresolved(v, itemPath)
		case []any:
			e.reportUnresolvedSequence(v, itemPath)
		case string:
			e.reportUnresolvedValue(v, itemPath)
		}
	}
}

func (e *Engine) reportUnresolvedValue(value, path string) {
	i := 0
	for i < len(value) {
		if !strings.HasPrefix(value[i:], "${") {
			i++
			continue
		}
		end := matchBrace(value, i)
		if end < 0 {
			return
		}
		e.warnOnce(domain.Warning{
			Category: domain.WarningPlaceholder,
			Message:  fmt.Sprintf("Unresolved placeholder at %s: %s", path, value[i:end+1]),
		})
		i = end + 1
	}
}

// matchBrace returns the index of the '}' closing the "${" at start,
// honouring nested placeholders, or -1 when unterminated.
func matchBrace(text string, start int) int {
	depth := 0
	i := start
	for i < len(text) {
		if strings.HasPrefix(text[i:], "${") {
			depth++
			i += 2
			continue
		}
		if text[i] == '}' {
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// splitFallback separates "name:default" at the first colon. The default may
// itself contain colons.
func splitFallback(inner string) (name, fallback string, ok bool) {
	if idx := strings.IndexByte(inner, ':'); idx >= 0 {
		return inner[:idx], inner[idx+1:], true
	}
	return inner, "", false
}

// wholePlaceholder reports whether the value is exactly one placeholder with
// no surrounding text.
func wholePlaceholder(value string) bool {
	return strings.HasPrefix(value, "${") && matchBrace(value, 0) == len(value)-1
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// typeScalar converts a fully substituted value back to a typed scalar.
func typeScalar(value string) any {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
