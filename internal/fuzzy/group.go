package fuzzy

import "sort"

// Pattern is a cluster of log bodies sharing a normalized template.
type Pattern struct {
	Template string   `json:"template"`
	Count    int      `json:"count"`
	Samples  []string `json:"samples"`
}

const DefaultSimilarityThreshold = 0.85
const maxSamplesPerPattern = 3

func Group(messages []string) []Pattern {
	return GroupWithThreshold(messages, DefaultSimilarityThreshold)
}

// GroupWithThreshold clusters messages by exact normalized template, then
// merges templates whose edit-distance similarity reaches threshold. Result
// is ordered by count, ties in first-seen order.
func GroupWithThreshold(messages []string, threshold float64) []Pattern {
	var patterns []*Pattern
	byTemplate := make(map[string]*Pattern)

	for _, msg := range messages {
		tmpl := Normalize(msg)
		if p, ok := byTemplate[tmpl]; ok {
			p.Count++
			if len(p.Samples) < maxSamplesPerPattern {
				p.Samples = append(p.Samples, msg)
			}
			continue
		}
		p := &Pattern{Template: tmpl, Count: 1, Samples: []string{msg}}
		byTemplate[tmpl] = p
		patterns = append(patterns, p)
	}

	merge(patterns, threshold)

	result := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Count > 0 {
			result = append(result, *p)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	return result
}

// merge folds later patterns into earlier similar ones, zeroing the merged.
func merge(patterns []*Pattern, threshold float64) {
	for i := 0; i < len(patterns); i++ {
		if patterns[i].Count == 0 {
			continue
		}
		for j := i + 1; j < len(patterns); j++ {
			if patterns[j].Count == 0 {
				continue
			}
			if similarity(patterns[i].Template, patterns[j].Template) < threshold {
				continue
			}
			patterns[i].Count += patterns[j].Count
			for _, s := range patterns[j].Samples {
				if len(patterns[i].Samples) < maxSamplesPerPattern {
					patterns[i].Samples = append(patterns[i].Samples, s)
				}
			}
			patterns[j].Count = 0
			patterns[j].Samples = nil
		}
	}
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
