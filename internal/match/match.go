// Package match provides the deterministic approximate-matching helpers
// shared by the location resolver and the sector mapper. The metric and
// thresholds are supplied by the caller; nothing here is hardcoded.
package match

// Distance computes the Damerau-Levenshtein edit distance (optimal string
// alignment variant) between two strings, counted in runes. Adjacent
// transpositions cost one edit, so the common "Norht" typo sits at
// distance 1 from "north".
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				curr[j] = min(curr[j], prev2[j-2]+1)
			}
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(rb)]
}

// Closest returns every distinct candidate at the minimal distance from
// input, provided that distance is within maxDistance. The caller decides
// what a non-unique result means; this function never guesses.
func Closest(input string, candidates []string, maxDistance int) ([]string, int) {
	bestDist := maxDistance + 1
	var best []string
	seen := map[string]bool{}
	for _, c := range candidates {
		d := Distance(input, c)
		if d > maxDistance || d > bestDist {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = best[:0]
			seen = map[string]bool{}
		}
		if !seen[c] {
			seen[c] = true
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return nil, 0
	}
	return best, bestDist
}
