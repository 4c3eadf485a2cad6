package parser

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// Full-line multi-document separator, "#---" or "!---".
var propertiesSeparator = regexp.MustCompile(`^[#!]---\s*$`)

// Spring also accepts the activation directive as a marker comment.
var propertiesActivationComment = regexp.MustCompile(`^[#!]\s*spring\.config\.activate\.on-profile\s*[=:]\s*(.+)$`)

// ParsePropertiesFile parses a Java properties file, splitting documents on
// #--- / !--- markers.
func ParsePropertiesFile(path string) ([]*domain.ConfigDocument, []domain.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return parseProperties(string(data), path)
}

func parseProperties(content, path string) ([]*domain.ConfigDocument, []domain.Warning, error) {
	var documents []*domain.ConfigDocument
	var warnings []domain.Warning

	for index, section := range splitPropertySections(strings.Split(content, "\n")) {
		flat := parsePropertyLines(section.lines)

		if section.activation != "" {
			// The comment marker wins; an in-document key would be a
			// duplicate directive.
			flat["spring.config.activate.on-profile"] = section.activation
		}

		tree := make(map[string]any)
		for _, key := range sortedPropertyKeys(flat) {
			setPropertyPath(tree, key, convertPropertyValue(flat[key]))
		}

		if len(tree) == 0 && section.activation == "" {
			continue
		}

		doc := &domain.ConfigDocument{
			Content:       tree,
			SourceFile:    path,
			DocumentIndex: index,
		}
		if doc = finishDocument(doc, &warnings); doc != nil {
			documents = append(documents, doc)
		}
	}

	return documents, warnings, nil
}

type propertySection struct {
	lines      []string
	activation string
}

func splitPropertySections(lines []string) []propertySection {
	var sections []propertySection
	current := propertySection{}
	flush := func() {
		if len(current.lines) > 0 || current.activation != "" {
			sections = append(sections, current)
		}
		current = propertySection{}
	}

	for _, line := range lines {
		if propertiesSeparator.MatchString(line) {
			flush()
			continue
		}
		if m := propertiesActivationComment.FindStringSubmatch(line); m != nil {
			current.activation = strings.TrimSpace(m[1])
			continue
		}
		current.lines = append(current.lines, line)
	}
	flush()
	return sections
}

// parsePropertyLines parses one section into a flat key/value map, honouring
// comments, blank lines, and trailing-backslash continuations.
func parsePropertyLines(lines []string) map[string]string {
	props := make(map[string]string)
	var pendingKey string
	var pendingValue strings.Builder
	continuing := false

	for _, line := range lines {
		if continuing {
			part := strings.TrimLeft(line, " \t")
			if strings.HasSuffix(part, "\\") && !strings.HasSuffix(part, "\\\\") {
				pendingValue.WriteString(part[:len(part)-1])
				continue
			}
			pendingValue.WriteString(part)
			props[pendingKey] = unescapeProperty(pendingValue.String())
			pendingKey = ""
			pendingValue.Reset()
			continuing = false
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		key, value := splitPropertyLine(trimmed)
		if key == "" {
			continue
		}
		if strings.HasSuffix(value, "\\") && !strings.HasSuffix(value, "\\\\") {
			pendingKey = key
			pendingValue.WriteString(value[:len(value)-1])
			continuing = true
			continue
		}
		props[key] = unescapeProperty(value)
	}

	if continuing && pendingKey != "" {
		props[pendingKey] = unescapeProperty(pendingValue.String())
	}
	return props
}

// splitPropertyLine separates a property line at the first unescaped '=',
// ':', or run of whitespace. Keys keep their escapes for unescaping by the
// caller alongside the value.
func splitPropertyLine(line string) (string, string) {
	sepIdx := -1
	var sep byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '=' || c == ':' {
			sepIdx, sep = i, c
			break
		}
		if c == ' ' || c == '\t' {
			sepIdx, sep = i, ' '
			break
		}
	}

	if sepIdx < 0 {
		return unescapeProperty(strings.TrimSpace(line)), ""
	}

	key := unescapeProperty(strings.TrimSpace(line[:sepIdx]))
	value := strings.TrimLeft(line[sepIdx+1:], " \t")
	if sep == ' ' && value != "" && (value[0] == '=' || value[0] == ':') {
		value = strings.TrimLeft(value[1:], " \t")
	}
	return key, value
}

// unescapeProperty handles \n, \t, \r, \f, \\, and \uXXXX escapes. Unicode
// surrogate code points are left untouched rather than producing invalid
// UTF-8.
func unescapeProperty(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; next {
		case 'n':
			out.WriteByte('\n')
			i++
		case 't':
			out.WriteByte('\t')
			i++
		case 'r':
			out.WriteByte('\r')
			i++
		case 'f':
			out.WriteByte('\f')
			i++
		case '\\':
			out.WriteByte('\\')
			i++
		case 'u':
			if i+5 < len(s) {
				if code, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil && (code < 0xD800 || code > 0xDFFF) {
					out.WriteRune(rune(code))
					i += 5
					continue
				}
			}
			out.WriteByte(s[i])
		default:
			out.WriteByte(next)
			i++
		}
	}
	return out.String()
}

// sortedPropertyKeys orders keys deterministically so sequence indices
// apply in ascending order regardless of declaration order.
func sortedPropertyKeys(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setPropertyPath splits a dotted key into the nested shape, turning
// array-index segments (list[0]) into ordered sequences.
func setPropertyPath(tree map[string]any, key string, value any) {
	steps := parsePropertyKey(key)
	if len(steps) == 0 {
		return
	}
	assignStep(tree, steps, value)
}

// assignStep descends one step, creating containers of the shape the next
// step demands, and returns the (possibly reallocated) container.
func assignStep(container any, steps []any, value any) any {
	if len(steps) == 0 {
		return value
	}
	switch step := steps[0].(type) {
	case string:
		m, ok := container.(map[string]any)
		if !ok {
			m = make(map[string]any)
		}
		m[step] = assignStep(m[step], steps[1:], value)
		return m
	case int:
		list, _ := container.([]any)
		for len(list) <= step {
			list = append(list, nil)
		}
		list[step] = assignStep(list[step], steps[1:], value)
		return list
	default:
		return value
	}
}

// parsePropertyKey expands "server.hosts[0].name" into the step list
// ["server", "hosts", 0, "name"].
func parsePropertyKey(key string) []any {
	var steps []any
	for _, part := range strings.Split(key, ".") {
		if part == "" {
			continue
		}
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					steps = append(steps, part)
				}
				break
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				steps = append(steps, part)
				break
			}
			idx, err := strconv.Atoi(part[open+1 : open+end])
			if err != nil || idx < 0 {
				steps = append(steps, part)
				break
			}
			if open > 0 {
				steps = append(steps, part[:open])
			}
			steps = append(steps, idx)
			part = part[open+end+1:]
		}
	}
	return steps
}

// convertPropertyValue types a property value the way YAML would: booleans,
// integers, floats, else string.
func convertPropertyValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
