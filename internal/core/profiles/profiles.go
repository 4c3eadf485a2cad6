// Package profiles implements profile group expansion and document
// applicability filtering.
package profiles

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"springresolver.dev/cli/internal/core/domain"
)

// GroupTable maps a group name to its member profiles in declaration order.
type GroupTable map[string][]string

// ParseGroups extracts spring.profiles.group.* definitions from a document
// tree. Member lists may be comma-separated strings or YAML sequences.
func ParseGroups(content map[string]any) GroupTable {
	groups := make(GroupTable)
	raw, ok := domain.GetPath(content, "spring.profiles.group")
	if !ok {
		return groups
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return groups
	}
	for name, members := range table {
		switch m := members.(type) {
		case string:
			var list []string
			for _, part := range strings.Split(m, ",") {
				if part = strings.TrimSpace(part); part != "" {
					list = append(list, part)
				}
			}
			groups[name] = list
		case []any:
			var list []string
			for _, item := range m {
				if s, ok := item.(string); ok && s != "" {
					list = append(list, s)
				}
			}
			groups[name] = list
		}
	}
	return groups
}

// HasGroups reports whether a document tree carries any group directives.
func HasGroups(content map[string]any) bool {
	raw, ok := domain.GetPath(content, "spring.profiles.group")
	if !ok {
		return false
	}
	table, ok := raw.(map[string]any)
	return ok && len(table) > 0
}

// StripGroups removes the spring.profiles.group subtree from a document tree,
// pruning the emptied parents. Used when the directive is illegal in context.
func StripGroups(content map[string]any) {
	spring, ok := content["spring"].(map[string]any)
	if !ok {
		return
	}
	prof, ok := spring["profiles"].(map[string]any)
	if !ok {
		return
	}
	delete(prof, "group")
	if len(prof) == 0 {
		delete(spring, "profiles")
	}
	if len(spring) == 0 {
		delete(content, "spring")
	}
}

// Expand resolves the requested profile list against the group table,
// depth-first with the parent emitted before its members. Duplicates are
// suppressed keeping the first occurrence. A cycle is a hard error naming
// the offending chain.
func Expand(requested []string, groups GroupTable) ([]string, error) {
	var emit []string
	seen := make(map[string]struct{})

	var expand func(profile string, path []string) error
	expand = func(profile string, path []string) error {
		if slices.Contains(path, profile) {
			return &domain.CycleError{Kind: domain.CycleProfileGroup, Chain: append(path, profile)}
		}
		if _, ok := seen[profile]; ok {
			return nil
		}
		seen[profile] = struct{}{}
		emit = append(emit, profile)
		for _, member := range groups[profile] {
			if err := expand(member, append(path, profile)); err != nil {
				return err
			}
		}
		return nil
	}

	for _, profile := range requested {
		if err := expand(profile, nil); err != nil {
			return nil, err
		}
	}
	return emit, nil
}

// Applicable filters documents to those active under the expanded profile
// list and sorts them into merge order. Within a file, documents keep their
// declaration order; profile-suffixed files apply only when their profile is
// active and merge in active-list position order; test-root documents merge
// after main-root documents; .properties files override same-stem YAML.
func Applicable(documents []*domain.ConfigDocument, active []string, testRoots []string) []*domain.ConfigDocument {
	var applicable []*domain.ConfigDocument
	for _, doc := range documents {
		if fp := doc.FileProfile(); fp != "" && !slices.Contains(active, fp) {
			continue
		}
		if !doc.Matches(active) {
			continue
		}
		applicable = append(applicable, doc)
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		ri := mergeRank(applicable[i], active, testRoots)
		rj := mergeRank(applicable[j], active, testRoots)
		for k := range ri {
			if ri[k] != rj[k] {
				return ri[k] < rj[k]
			}
		}
		return false
	})
	return applicable
}

// mergeRank packs the merge ordering dimensions into one comparable value.
// Dimensions, most significant first: main/test location, base/profile file,
// profile position in the active list, extension precedence, document index.
func mergeRank(doc *domain.ConfigDocument, active []string, testRoots []string) [5]int {
	var rank [5]int
	for _, root := range testRoots {
		if strings.HasPrefix(doc.SourceFile, root+string(filepath.Separator)) {
			rank[0] = 1
			break
		}
	}
	if fp := doc.FileProfile(); fp != "" {
		rank[1] = 1
		rank[2] = slices.Index(active, fp)
	}
	if strings.EqualFold(filepath.Ext(doc.SourceFile), ".properties") {
		rank[3] = 1
	}
	rank[4] = doc.DocumentIndex
	return rank
}
