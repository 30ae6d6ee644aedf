package models

import "sort"

// ThemeLabels returns the unified label set for a puzzle: the union of
// its tactical themes and opening tags, deduplicated and sorted. Both
// sets may be empty; an empty result is valid, not an error.
func ThemeLabels(p Puzzle) []string {
	seen := make(map[string]struct{}, len(p.Themes)+len(p.OpeningTags))
	var labels []string
	for _, t := range p.Themes {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			labels = append(labels, t)
		}
	}
	for _, t := range p.OpeningTags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			labels = append(labels, t)
		}
	}
	sort.Strings(labels)
	return labels
}

// UnifiedTags returns the card-facing tag list: themes first, then
// opening tags, preserving source order. This is the Tags column of the
// exported card record.
func UnifiedTags(p Puzzle) []string {
	tags := make([]string, 0, len(p.Themes)+len(p.OpeningTags))
	for _, t := range p.Themes {
		if t != "" {
			tags = append(tags, t)
		}
	}
	for _, t := range p.OpeningTags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// themeIndex maps each theme label to the indices of the puzzles that
// carry it. A puzzle with N labels appears in N buckets; the relation is
// many-to-many, not a hierarchy.
func themeIndex(puzzles []Puzzle) map[string][]int {
	index := make(map[string][]int)
	for i, p := range puzzles {
		for _, theme := range ThemeLabels(p) {
			index[theme] = append(index[theme], i)
		}
	}
	return index
}

// themeSet returns the set of theme labels present across a slice of
// puzzles.
func themeSet(puzzles []Puzzle) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range puzzles {
		for _, theme := range ThemeLabels(p) {
			set[theme] = struct{}{}
		}
	}
	return set
}

// sortedKeys returns the keys of a string set in ascending order.
// Sampler and reporter iterate sets in sorted order so repeated runs
// are byte-identical.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
