package domain

// WarningCategory groups warnings for the end-of-run stderr report.
type WarningCategory string

const (
	WarningRestriction WarningCategory = "restriction"
	WarningProfile     WarningCategory = "profile"
	WarningPlaceholder WarningCategory = "placeholder"
	WarningImport      WarningCategory = "import"
	WarningPlatform    WarningCategory = "platform"
	WarningParse       WarningCategory = "parse"
	WarningVcap        WarningCategory = "vcap"
)

// Warning is a non-fatal diagnostic accumulated during resolution.
type Warning struct {
	Category WarningCategory
	Message  string
}

// ResolverResult is the outcome of a resolver run: the merged tree, the
// per-leaf source map, accumulated warnings, and the expanded active list.
type ResolverResult struct {
	Config         map[string]any
	Sources        SourceMap
	Warnings       []Warning
	ActiveProfiles []string
}

// WarningsByCategory returns warnings grouped for display, preserving the
// order in which categories were first seen.
func (r *ResolverResult) WarningsByCategory() ([]WarningCategory, map[WarningCategory][]string) {
	var order []WarningCategory
	grouped := make(map[WarningCategory][]string)
	for _, w := range r.Warnings {
		if _, ok := grouped[w.Category]; !ok {
			order = append(order, w.Category)
		}
		grouped[w.Category] = append(grouped[w.Category], w.Message)
	}
	return order, grouped
}
