package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// secretPattern matches value shapes that look like embedded credentials.
type secretPattern struct {
	name     string
	pattern  *regexp.Regexp
	severity Severity
}

var secretPatterns = []secretPattern{
	{"AWS access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), SeverityCritical},
	{"private key", regexp.MustCompile(`-----BEGIN (?:RSA|DSA|EC|OPENSSH) PRIVATE KEY-----`), SeverityCritical},
	{"JWT token", regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`), SeverityHigh},
	{"connection string with credentials", regexp.MustCompile(`(?i)(jdbc|mongodb|postgresql|mysql)://[^:]+:[^@]+@`), SeverityHigh},
}

// suspiciousKeywords flags property names that commonly hold secrets.
var suspiciousKeywords = []string{
	"password", "secret", "token", "api-key", "apikey", "api_key",
	"private-key", "privatekey", "access-key", "accesskey", "credentials",
}

// insecureFlag is a property whose literal value weakens the deployment.
type insecureFlag struct {
	property       string
	value          any
	message        string
	severity       Severity
	recommendation string
}

var insecureFlags = []insecureFlag{
	{"spring.h2.console.enabled", true, "H2 console is enabled, database exposed via web interface", SeverityHigh, "disable in production or restrict access"},
	{"spring.jpa.show-sql", true, "SQL queries are being logged and may expose sensitive data", SeverityMedium, "disable in production"},
	{"management.security.enabled", false, "management endpoint security is disabled", SeverityHigh, "enable security for management endpoints"},
	{"server.ssl.enabled", false, "TLS is explicitly disabled", SeverityMedium, "enable TLS for production traffic"},
	{"spring.devtools.restart.enabled", true, "devtools restart is enabled", SeverityLow, "remove devtools from production builds"},
}

// SecurityScanner detects hardcoded secrets and insecure flags in the
// resolved configuration.
type SecurityScanner struct{}

func NewSecurityScanner() *SecurityScanner { return &SecurityScanner{} }

func (s *SecurityScanner) Name() string { return "security" }

func (s *SecurityScanner) Analyze(config map[string]any, _ domain.SourceMap) []Issue {
	var issues []Issue

	leafValues(config, "", func(path string, value any) {
		text, isString := value.(string)
		if isString && !strings.Contains(text, "${") {
			for _, sp := range secretPatterns {
				if sp.pattern.MatchString(text) {
					issues = append(issues, Issue{
						Severity:       sp.severity,
						PropertyPath:   path,
						Type:           "hardcoded-secret",
						Message:        fmt.Sprintf("value matches %s pattern", sp.name),
						Recommendation: "move the secret to an environment variable or secret store",
					})
					break
				}
			}
			if looksLikeSecretProperty(path) && text != "" {
				issues = append(issues, Issue{
					Severity:       SeverityHigh,
					PropertyPath:   path,
					Type:           "literal-credential",
					Message:        "credential-like property holds a literal value",
					Recommendation: "reference it via a placeholder backed by the environment",
				})
			}
		}
	})

	for _, flag := range insecureFlags {
		value, ok := domain.GetPath(config, flag.property)
		if !ok || value != flag.value {
			continue
		}
		issues = append(issues, Issue{
			Severity:       flag.severity,
			PropertyPath:   flag.property,
			Type:           "insecure-configuration",
			Message:        flag.message,
			Recommendation: flag.recommendation,
		})
	}

	return issues
}

func looksLikeSecretProperty(path string) bool {
	lower := strings.ToLower(path)
	for _, keyword := range suspiciousKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
