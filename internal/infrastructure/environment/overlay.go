// Package environment builds the immutable environment overlay consulted
// during placeholder resolution.
//
// The overlay is assembled once at CLI startup, in order of increasing
// precedence: env files, the process environment (unless disabled), then
// explicit --env overrides. Reading the process environment once keeps
// resolution deterministic for a fixed set of inputs.
package environment

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"springresolver.dev/cli/internal/core/domain"
)

// Overlay maps normalized environment keys to values.
type Overlay struct {
	values map[string]string
}

// Build assembles the overlay. Later env files win over earlier ones, the
// process environment wins over files, and explicit KEY=VAL pairs win over
// everything.
func Build(envFiles []string, includeSystem bool, explicit []string) (*Overlay, error) {
	o := &Overlay{values: make(map[string]string)}

	for _, file := range envFiles {
		vars, err := godotenv.Read(file)
		if err != nil {
			return nil, &domain.UsageError{Message: fmt.Sprintf("cannot read env file %s: %v", file, err)}
		}
		for k, v := range vars {
			o.put(k, v)
		}
	}

	if includeSystem {
		for _, entry := range os.Environ() {
			if k, v, ok := strings.Cut(entry, "="); ok {
				o.put(k, v)
			}
		}
	}

	for _, pair := range explicit {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, &domain.UsageError{Message: fmt.Sprintf("invalid --env override %q, expected KEY=VAL", pair)}
		}
		o.put(k, v)
	}

	return o, nil
}

func (o *Overlay) put(key, value string) {
	o.values[strings.ToUpper(key)] = value
}

// Lookup resolves a property path against the overlay. Matching is
// case-insensitive after translating dots and hyphens to underscores, so
// database.host matches DATABASE_HOST and my-app.name matches MY_APP_NAME.
func (o *Overlay) Lookup(propertyPath string) (string, bool) {
	v, ok := o.values[NormalizeKey(propertyPath)]
	return v, ok
}

// Len reports how many distinct keys the overlay holds.
func (o *Overlay) Len() int { return len(o.values) }

// Get returns the raw value for an environment variable name, matched
// case-insensitively.
func (o *Overlay) Get(name string) (string, bool) {
	v, ok := o.values[strings.ToUpper(name)]
	return v, ok
}

var keyNormalizer = strings.NewReplacer(".", "_", "-", "_")

// NormalizeKey converts a property path to its canonical environment form.
func NormalizeKey(propertyPath string) string {
	return strings.ToUpper(keyNormalizer.Replace(propertyPath))
}
