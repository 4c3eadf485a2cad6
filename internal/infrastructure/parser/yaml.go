package parser

import (
	"bytes"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"springresolver.dev/cli/internal/core/domain"
)

var yamlErrLine = regexp.MustCompile(`line (\d+)`)

// ParseYAMLFile parses a YAML file, splitting on --- document separators in
// declaration order. Malformed YAML is a hard error carrying file and line.
func ParseYAMLFile(path string) ([]*domain.ConfigDocument, []domain.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return parseYAML(data, path)
}

func parseYAML(data []byte, path string) ([]*domain.ConfigDocument, []domain.Warning, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	type rawDoc struct {
		content map[string]any
		empty   bool
	}
	var raw []rawDoc

	for {
		var value any
		err := decoder.Decode(&value)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, yamlParseError(path, err)
		}
		switch v := value.(type) {
		case nil:
			raw = append(raw, rawDoc{content: map[string]any{}, empty: true})
		case map[string]any:
			raw = append(raw, rawDoc{content: v})
		default:
			return nil, nil, &domain.ParseError{File: path, Detail: "document root must be a mapping"}
		}
	}

	// A trailing separator parses as an empty document; skip it. Interior
	// empty documents are kept, they may still carry an activation.
	for len(raw) > 0 && raw[len(raw)-1].empty {
		raw = raw[:len(raw)-1]
	}

	var documents []*domain.ConfigDocument
	var warnings []domain.Warning
	for index, r := range raw {
		doc := &domain.ConfigDocument{
			Content:       r.content,
			SourceFile:    path,
			DocumentIndex: index,
		}
		if doc = finishDocument(doc, &warnings); doc != nil {
			documents = append(documents, doc)
		}
	}
	return documents, warnings, nil
}

func yamlParseError(path string, err error) error {
	perr := &domain.ParseError{File: path, Detail: err.Error()}
	if m := yamlErrLine.FindStringSubmatch(err.Error()); m != nil {
		perr.Line, _ = strconv.Atoi(m[1])
	}
	return perr
}
