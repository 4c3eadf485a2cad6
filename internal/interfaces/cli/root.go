// Package cli wires the resolver pipeline to its command-line surface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"springresolver.dev/cli/internal/application/services"
	"springresolver.dev/cli/internal/core/analysis"
	"springresolver.dev/cli/internal/core/domain"
	"springresolver.dev/cli/internal/core/vcap"
	"springresolver.dev/cli/internal/infrastructure/environment"
	"springresolver.dev/cli/internal/infrastructure/output"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// rootFlags holds the command-line flags for the resolver.
type rootFlags struct {
	Profiles     string
	Resources    string
	IncludeTest  bool
	OutputDir    string
	ToStdout     bool
	EnvFiles     []string
	EnvOverrides []string
	NoSystemEnv  bool

	VcapServicesFile    string
	VcapApplicationFile string
	IgnoreVcap          bool

	SecurityScan bool
	Lint         bool
	StrictLint   bool
	Debug        bool
}

// NewRootCommand builds the spring-profile-resolver command.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "spring-profile-resolver <project-path>",
		Short: "Compute the effective Spring configuration for a set of profiles",
		Long: `spring-profile-resolver merges the configuration tree a Spring-Boot-style
application would observe at runtime for a chosen set of active profiles.

It parses application*.yml/.yaml/.properties files under the project's
resource roots, expands profile groups, evaluates activation expressions,
deep-merges the applicable documents in order, resolves ${...} placeholders
against the merged tree and the environment, and writes the result as YAML
annotated with the source file of every value.`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], flags)
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\n",
		BuildTime, goVersion()))

	cmd.Flags().StringVarP(&flags.Profiles, "profiles", "p", "", "Comma-separated list of profiles to activate (required)")
	cmd.Flags().StringVarP(&flags.Resources, "resources", "r", "", "Comma-separated extra resource roots (relative to project)")
	cmd.Flags().BoolVarP(&flags.IncludeTest, "include-test", "t", false, "Also load src/test/resources (applied last)")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Output directory (default: .computed/)")
	cmd.Flags().BoolVar(&flags.ToStdout, "stdout", false, "Write the result to stdout instead of a file")
	cmd.Flags().StringArrayVar(&flags.EnvFiles, "env-file", nil, "KEY=VAL file for placeholder resolution; later files win (repeatable)")
	cmd.Flags().StringArrayVar(&flags.EnvOverrides, "env", nil, "Explicit KEY=VAL override (repeatable)")
	cmd.Flags().BoolVar(&flags.NoSystemEnv, "no-system-env", false, "Ignore the process environment during placeholder resolution")
	cmd.Flags().StringVar(&flags.VcapServicesFile, "vcap-services-file", "", "JSON file with VCAP_SERVICES content (Cloud Foundry)")
	cmd.Flags().StringVar(&flags.VcapApplicationFile, "vcap-application-file", "", "JSON file with VCAP_APPLICATION content (Cloud Foundry)")
	cmd.Flags().BoolVar(&flags.IgnoreVcap, "ignore-vcap", false, "Suppress warnings about missing VCAP data")
	cmd.Flags().BoolVar(&flags.SecurityScan, "security-scan", false, "Scan the resolved configuration for secrets and insecure flags")
	cmd.Flags().BoolVar(&flags.Lint, "lint", false, "Lint the resolved configuration")
	cmd.Flags().BoolVar(&flags.StrictLint, "strict-lint", false, "Upgrade lint warnings to errors")
	cmd.Flags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("profiles")

	return cmd
}

// runResolve executes the full pipeline for one invocation.
func runResolve(cmd *cobra.Command, projectPath string, flags *rootFlags) error {
	info, err := os.Stat(projectPath)
	if err != nil || !info.IsDir() {
		return &domain.UsageError{Message: fmt.Sprintf("project path %q is not a directory", projectPath)}
	}

	profiles := splitCSV(flags.Profiles)
	if len(profiles) == 0 {
		return &domain.UsageError{Message: "at least one profile must be specified"}
	}

	overlay, err := environment.Build(flags.EnvFiles, !flags.NoSystemEnv, flags.EnvOverrides)
	if err != nil {
		return err
	}

	bindings, err := loadVcap(flags)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if flags.Debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
			defer logger.Sync()
		}
	}

	resolver := services.NewResolverService(logger)
	result, err := resolver.Resolve(services.Options{
		ProjectPath:        projectPath,
		Profiles:           profiles,
		ResourceDirs:       splitCSV(flags.Resources),
		IncludeTest:        flags.IncludeTest,
		Env:                overlay,
		Vcap:               bindings,
		IgnoreVcapWarnings: flags.IgnoreVcap,
	})
	if err != nil {
		return err
	}

	annotator := output.NewAnnotator(result.Sources, result.Overridden, projectPath)
	rendered, err := annotator.Render(result.Config)
	if err != nil {
		return err
	}

	var outputPath string
	if flags.ToStdout {
		fmt.Fprint(cmd.OutOrStdout(), rendered)
	} else {
		dir := flags.OutputDir
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = filepath.Join(cwd, ".computed")
		}
		outputPath, err = output.WriteFile(dir, output.Filename(profiles), rendered)
		if err != nil {
			return err
		}
	}

	issues := runAnalyzers(flags, result)
	renderReport(cmd.ErrOrStderr(), result, issues, outputPath)

	for _, issue := range issues {
		if issue.Fatal() {
			return &domain.UsageError{Message: "configuration has critical issues that must be addressed"}
		}
	}
	return nil
}

func runAnalyzers(flags *rootFlags, result *services.Result) []analysis.Issue {
	var analyzers []analysis.Analyzer
	if flags.SecurityScan {
		analyzers = append(analyzers, analysis.NewSecurityScanner())
	}
	if flags.Lint || flags.StrictLint {
		analyzers = append(analyzers, analysis.NewLinter(flags.StrictLint))
	}
	if len(analyzers) == 0 {
		return nil
	}
	return analysis.Run(analyzers, result.Config, result.Sources)
}

// loadVcap reads VCAP payloads from the given files, falling back to the
// process environment.
func loadVcap(flags *rootFlags) (vcap.Bindings, error) {
	servicesJSON := os.Getenv("VCAP_SERVICES")
	applicationJSON := os.Getenv("VCAP_APPLICATION")

	if flags.VcapServicesFile != "" {
		data, err := os.ReadFile(flags.VcapServicesFile)
		if err != nil {
			return vcap.Bindings{}, &domain.UsageError{Message: fmt.Sprintf("cannot read VCAP_SERVICES file: %v", err)}
		}
		servicesJSON = string(data)
	}
	if flags.VcapApplicationFile != "" {
		data, err := os.ReadFile(flags.VcapApplicationFile)
		if err != nil {
			return vcap.Bindings{}, &domain.UsageError{Message: fmt.Sprintf("cannot read VCAP_APPLICATION file: %v", err)}
		}
		applicationJSON = string(data)
	}

	return vcap.Parse(servicesJSON, applicationJSON), nil
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the root command and maps error kinds to exit codes:
// 0 success, 1 user error, 2 configuration error.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var parseErr *domain.ParseError
	var cycleErr *domain.CycleError
	var importErr *domain.ImportError
	if errors.As(err, &parseErr) || errors.As(err, &cycleErr) || errors.As(err, &importErr) {
		return 2
	}
	return 1
}
