// Package discovery enumerates Spring-style configuration files under the
// configured resource roots.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// Roots holds the resource roots to scan. Main roots load in the order
// supplied; test roots load last.
type Roots struct {
	Main []string
	Test []string
}

// Scanner finds application config files on the filesystem.
type Scanner struct {
	extensions []string
}

// NewScanner creates a scanner matching application.{yml,yaml,properties}
// and application-*.{yml,yaml,properties}.
func NewScanner() *Scanner {
	return &Scanner{extensions: []string{".yml", ".yaml", ".properties"}}
}

// Scan returns the ordered list of config files across all roots. Missing
// roots are skipped. Entries within a root sort lexicographically so two
// otherwise-equivalent filesystems produce identical output; the base file
// sorts first and .properties sorts after same-stem YAML.
func (s *Scanner) Scan(roots Roots) []string {
	var files []string
	for _, root := range roots.Main {
		files = append(files, s.scanRoot(root)...)
	}
	for _, root := range roots.Test {
		files = append(files, s.scanRoot(root)...)
	}
	return files
}

func (s *Scanner) scanRoot(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if s.matches(entry.Name()) {
			files = append(files, filepath.Join(root, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		ri, rj := sortKey(files[i]), sortKey(files[j])
		if ri.base != rj.base {
			return ri.base < rj.base
		}
		if ri.stem != rj.stem {
			return ri.stem < rj.stem
		}
		return ri.ext < rj.ext
	})
	return files
}

func (s *Scanner) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	var known bool
	for _, e := range s.extensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return stem == "application" || strings.HasPrefix(stem, "application-")
}

type fileRank struct {
	base int // 0 for application.*, 1 for profile-specific
	stem string
	ext  int // .properties overrides same-stem YAML, so it sorts later
}

func sortKey(path string) fileRank {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	rank := fileRank{stem: strings.TrimSuffix(name, filepath.Ext(name))}
	if !domain.IsBaseConfigFile(path) {
		rank.base = 1
	}
	if ext == ".properties" {
		rank.ext = 1
	}
	return rank
}
