package mustache

import (
	"slices"

	"github.com/sahilm/fuzzy"
)

// suggest returns the candidate closest to name, for "did you mean"
// diagnostics. A candidate matches when name is a fuzzy subsequence of it
// (a dropped character) or it is a fuzzy subsequence of name (an extra
// one); the former is preferred.
func suggest(name string, candidates []string) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}

	sorted := slices.Clone(candidates)
	slices.Sort(sorted)

	if matches := fuzzy.Find(name, sorted); len(matches) > 0 {
		return matches[0].Str, true
	}

	best := ""

	for _, c := range sorted {
		if len(c) > len(best) && len(fuzzy.Find(c, []string{name})) > 0 {
			best = c
		}
	}

	return best, best != ""
}
