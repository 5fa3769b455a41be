package archive

import "strings"

// Filter narrows discovery results by keyword. Include keywords match
// identifier or title (empty list matches everything); exclude keywords
// reject outright and win over includes.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter creates a filter from config keyword lists.
func NewFilter(include, exclude []string) *Filter {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, kw := range in {
			out[i] = strings.ToLower(kw)
		}
		return out
	}
	return &Filter{include: lower(include), exclude: lower(exclude)}
}

// Match reports whether a recording passes the filter.
func (f *Filter) Match(identifier, title string) bool {
	text := strings.ToLower(identifier + " " + title)

	for _, kw := range f.exclude {
		if strings.Contains(text, kw) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, kw := range f.include {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
