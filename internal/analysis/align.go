package analysis

import "sort"

// AlignedSet is every strategy's rolling summaries cut down to the window start
// months that all strategies share.
type AlignedSet struct {
	// Common holds the shared start months ("YYYY-MM"), ascending.
	Common []string `json:"common_starts"`
	// Labels lists the strategies in presentation order.
	Labels []string             `json:"labels"`
	Sets   map[string][]Summary `json:"sets"`
}

// Align intersects start months across strategies and filters each set to them,
// preserving each set's order. Labels follow order for the names it contains,
// then the rest alphabetically. A strategy with no windows empties the result.
func Align(sets map[string][]Summary, order ...string) AlignedSet {
	out := AlignedSet{
		Common: []string{},
		Labels: labelOrder(sets, order),
		Sets:   make(map[string][]Summary, len(sets)),
	}
	if len(sets) == 0 {
		return out
	}

	counts := make(map[string]int)
	for _, summaries := range sets {
		seen := make(map[string]bool, len(summaries))
		for _, s := range summaries {
			if !seen[s.StartDate] {
				seen[s.StartDate] = true
				counts[s.StartDate]++
			}
		}
	}
	common := make(map[string]bool)
	for start, n := range counts {
		if n == len(sets) {
			common[start] = true
			out.Common = append(out.Common, start)
		}
	}
	sort.Strings(out.Common)

	for label, summaries := range sets {
		kept := make([]Summary, 0, len(out.Common))
		for _, s := range summaries {
			if common[s.StartDate] {
				kept = append(kept, s)
			}
		}
		out.Sets[label] = kept
	}
	return out
}

func labelOrder(sets map[string][]Summary, order []string) []string {
	labels := make([]string, 0, len(sets))
	used := make(map[string]bool, len(sets))
	for _, l := range order {
		if _, ok := sets[l]; ok && !used[l] {
			labels = append(labels, l)
			used[l] = true
		}
	}
	var rest []string
	for l := range sets {
		if !used[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(labels, rest...)
}
