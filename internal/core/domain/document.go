package domain

import (
	"path/filepath"
	"strings"

	"springresolver.dev/cli/internal/core/expression"
)

// ConfigDocument is a single logical document produced by parsing one YAML
// document or one properties section. Documents are created by the parser,
// enriched by import expansion, filtered by profile applicability, consumed
// by the merger, and never mutated thereafter.
type ConfigDocument struct {
	// Content is the parsed tree: string-keyed mappings descending to
	// scalars and sequences.
	Content map[string]any

	// Activation gates the document on the active-profile set. Nil means
	// unconditionally active.
	Activation expression.Expr

	// RawActivation preserves the on-profile text for diagnostics.
	RawActivation string

	// OnCloudPlatform is parsed for diagnostics only. Matches does not
	// consult it, so platform-gated documents are always active.
	OnCloudPlatform string

	SourceFile    string
	DocumentIndex int
}

// Source returns the origin pointer for values contributed by this document.
func (d *ConfigDocument) Source() ConfigSource {
	return NewConfigSource(d.SourceFile, d.DocumentIndex)
}

// Matches reports whether the document applies to the active profiles.
func (d *ConfigDocument) Matches(active []string) bool {
	if d.Activation == nil {
		return true
	}
	return d.Activation.Eval(expression.ActiveSet(active))
}

// FileProfile extracts the profile suffix from the document's file name,
// e.g. "prod" for application-prod.yml. Empty for base files.
func (d *ConfigDocument) FileProfile() string {
	return ProfileFromFilename(d.SourceFile)
}

// ProfileFromFilename returns the profile suffix of a config file name, or
// the empty string for base application files.
func ProfileFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "application" {
		return ""
	}
	if rest, ok := strings.CutPrefix(stem, "application-"); ok {
		return rest
	}
	return ""
}

// IsBaseConfigFile reports whether the path names a base (non
// profile-specific) application config file.
func IsBaseConfigFile(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return stem == "application"
}
