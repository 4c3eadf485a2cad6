// Package services contains the application-level orchestration of the
// resolver pipeline.
package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/merge"
	"springresolver.dev/cli/internal/core/placeholder"
	"springresolver.dev/cli/internal/core/profiles"
	"springresolver.dev/cli/internal/core/vcap"
	"springresolver.dev/cli/internal/infrastructure/discovery"
	"springresolver.dev/cli/internal/infrastructure/environment"
	"springresolver.dev/cli/internal/infrastructure/imports"
	"springresolver.dev/cli/internal/infrastructure/parser"
)

// Options configures one resolver invocation.
type Options struct {
	ProjectPath string

	// Profiles are the requested profile names, order significant.
	Profiles []string

	// ResourceDirs adds extra main resource roots, relative to the
	// project, after the standard src/main/resources.
	ResourceDirs []string

	// IncludeTest also loads src/test/resources, applied last.
	IncludeTest bool

	// Env is the environment overlay for placeholder resolution.
	Env *environment.Overlay

	// Vcap carries Cloud Foundry bindings for the vcap.* namespace.
	Vcap vcap.Bindings

	// IgnoreVcapWarnings suppresses the local-development warning for
	// vcap.* references without VCAP data.
	IgnoreVcapWarnings bool

	// MaxIterations bounds placeholder passes; zero means the default.
	MaxIterations int
}

// Result extends the resolver result with the override set consumed by the
// output annotator.
type Result struct {
	domain.ResolverResult
	Overridden map[string]struct{}
	MainRoots  []string
}

// ResolverService runs the resolve pipeline. The service is stateless
// across invocations; every call builds fresh structures from its inputs.
type ResolverService struct {
	scanner *discovery.Scanner
	logger  *zap.Logger
}

// NewResolverService creates a resolver service. A nil logger disables
// tracing.
func NewResolverService(logger *zap.Logger) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolverService{scanner: discovery.NewScanner(), logger: logger}
}

// Resolve runs discovery, parsing, import expansion, profile expansion,
// applicability filtering, merging, and placeholder resolution.
func (s *ResolverService) Resolve(opts Options) (*Result, error) {
	roots := s.resourceRoots(opts)
	files := s.scanner.Scan(roots)
	s.logger.Debug("discovered config files", zap.Int("count", len(files)), zap.Strings("roots", roots.Main))

	result := &Result{MainRoots: roots.Main}
	result.ActiveProfiles = opts.Profiles

	if len(files) == 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Category: domain.WarningParse,
			Message:  fmt.Sprintf("no application config found under %s", strings.Join(roots.Main, ", ")),
		})
	}

	var documents []*domain.ConfigDocument
	for _, file := range files {
		docs, warnings, err := parser.ParseFile(file)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, warnings...)
		documents = append(documents, docs...)
	}

	allRoots := append(append([]string{}, roots.Main...), roots.Test...)
	expander := imports.NewExpander(allRoots)
	documents, importWarnings, err := expander.Expand(documents)
	result.Warnings = append(result.Warnings, importWarnings...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("parsed documents", zap.Int("count", len(documents)))

	groups := s.collectGroups(documents, roots.Main)
	active, err := profiles.Expand(opts.Profiles, groups)
	if err != nil {
		return nil, err
	}
	result.ActiveProfiles = active
	s.logger.Debug("expanded profiles", zap.Strings("active", active))

	result.Warnings = append(result.Warnings, unknownProfileWarnings(opts.Profiles, groups, documents)...)
	result.Warnings = append(result.Warnings, cloudPlatformWarnings(documents)...)

	applicable := profiles.Applicable(documents, active, roots.Test)
	merged := merge.Documents(applicable)
	s.logger.Debug("merged documents", zap.Int("applicable", len(applicable)), zap.Int("leaves", len(merged.Sources)))

	if !opts.IgnoreVcapWarnings {
		result.Warnings = append(result.Warnings, vcapAvailabilityWarnings(merged.Config, opts.Vcap)...)
	}

	var engineOpts []placeholder.Option
	if opts.MaxIterations > 0 {
		engineOpts = append(engineOpts, placeholder.WithMaxIterations(opts.MaxIterations))
	}
	engine := placeholder.New(opts.Env, opts.Vcap, engineOpts...)
	resolved, placeholderWarnings := engine.Resolve(merged.Config)
	result.Warnings = append(result.Warnings, placeholderWarnings...)

	result.Config = resolved
	result.Sources = merged.Sources
	result.Overridden = merged.Overridden
	return result, nil
}

// resourceRoots derives the scan roots: the standard main root, any extra
// roots in the order supplied, then the test root when requested.
func (s *ResolverService) resourceRoots(opts Options) discovery.Roots {
	roots := discovery.Roots{
		Main: []string{filepath.Join(opts.ProjectPath, "src", "main", "resources")},
	}
	for _, dir := range opts.ResourceDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(opts.ProjectPath, dir)
		}
		roots.Main = append(roots.Main, dir)
	}
	if opts.IncludeTest {
		roots.Test = append(roots.Test, filepath.Join(opts.ProjectPath, "src", "test", "resources"))
	}
	return roots
}

// collectGroups merges group tables from base documents of main-root base
// files. Tables merge later-wins when two roots define the same group.
func (s *ResolverService) collectGroups(documents []*domain.ConfigDocument, mainRoots []string) profiles.GroupTable {
	groups := make(profiles.GroupTable)
	for _, doc := range documents {
		if doc.Activation != nil || !domain.IsBaseConfigFile(doc.SourceFile) {
			continue
		}
		if !underAny(doc.SourceFile, mainRoots) {
			continue
		}
		for name, members := range profiles.ParseGroups(doc.Content) {
			groups[name] = members
		}
	}
	return groups
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// unknownProfileWarnings flags requested profiles that match no config file
// suffix, no group, and no activation expression.
func unknownProfileWarnings(requested []string, groups profiles.GroupTable, documents []*domain.ConfigDocument) []domain.Warning {
	referenced := make(map[string]struct{})
	for _, doc := range documents {
		if fp := doc.FileProfile(); fp != "" {
			referenced[fp] = struct{}{}
		}
		if doc.Activation != nil {
			for _, name := range doc.Activation.Profiles(nil) {
				referenced[name] = struct{}{}
			}
		}
	}

	var warnings []domain.Warning
	for _, profile := range requested {
		if _, ok := groups[profile]; ok {
			continue
		}
		if _, ok := referenced[profile]; ok {
			continue
		}
		warnings = append(warnings, domain.Warning{
			Category: domain.WarningProfile,
			Message:  fmt.Sprintf("requested profile %q matches no configuration document and no group", profile),
		})
	}
	return warnings
}

// cloudPlatformWarnings notes documents gated on a cloud platform; without
// a platform hint they are treated as unconditionally active.
func cloudPlatformWarnings(documents []*domain.ConfigDocument) []domain.Warning {
	var warnings []domain.Warning
	seen := make(map[string]struct{})
	for _, doc := range documents {
		if doc.OnCloudPlatform == "" {
			continue
		}
		key := fmt.Sprintf("%s#%d", doc.SourceFile, doc.DocumentIndex)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		warnings = append(warnings, domain.Warning{
			Category: domain.WarningPlatform,
			Message: fmt.Sprintf("%s (document %d) activates on cloud platform %q; no platform hint supplied, treating as active",
				filepath.Base(doc.SourceFile), doc.DocumentIndex, doc.OnCloudPlatform),
		})
	}
	return warnings
}

var vcapReference = regexp.MustCompile(`\$\{vcap\.(services|application)\.[^}:]+`)

// vcapAvailabilityWarnings flags vcap.* placeholder references when no VCAP
// data is available, a common local-development gotcha.
func vcapAvailabilityWarnings(config map[string]any, bindings vcap.Bindings) []domain.Warning {
	if !bindings.Empty() {
		return nil
	}
	var serviceRefs, appRefs int
	countRefs(config, &serviceRefs, &appRefs)

	var warnings []domain.Warning
	if serviceRefs > 0 {
		warnings = append(warnings, domain.Warning{
			Category: domain.WarningVcap,
			Message: fmt.Sprintf("configuration references VCAP_SERVICES properties (%d references) but VCAP_SERVICES is not set; "+
				"these placeholders will not resolve locally", serviceRefs),
		})
	}
	if appRefs > 0 {
		warnings = append(warnings, domain.Warning{
			Category: domain.WarningVcap,
			Message: fmt.Sprintf("configuration references VCAP_APPLICATION properties (%d references) but VCAP_APPLICATION is not set; "+
				"these placeholders will not resolve locally", appRefs),
		})
	}
	return warnings
}

func countRefs(node any, serviceRefs, appRefs *int) {
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			countRefs(child, serviceRefs, appRefs)
		}
	case []any:
		for _, child := range v {
			countRefs(child, serviceRefs, appRefs)
		}
	case string:
		for _, m := range vcapReference.FindAllStringSubmatch(v, -1) {
			if m[1] == "services" {
				*serviceRefs++
			} else {
				*appRefs++
			}
		}
	}
}
