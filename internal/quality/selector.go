// Package quality chooses one encoding variant among those a catalog item
// offers.
package quality

import (
	"strconv"
	"strings"

	"showgrab/internal/catalog"
)

// Select returns the variant whose name exactly equals the preference. When
// no name matches, the variant with the highest numeric resolution wins;
// variants whose resolution label cannot be parsed rank lowest. Ties keep
// the last of the equal-maximum group in input order. The second return is
// false only for an empty input list.
func Select(variants []catalog.QualityVariant, preferred string) (catalog.QualityVariant, bool) {
	if len(variants) == 0 {
		return catalog.QualityVariant{}, false
	}

	for _, v := range variants {
		if v.Name == preferred {
			return v, true
		}
	}

	best := variants[0]
	bestValue := parseResolution(best.Resolution)
	for _, v := range variants[1:] {
		if value := parseResolution(v.Resolution); value >= bestValue {
			best = v
			bestValue = value
		}
	}
	return best, true
}

// parseResolution extracts the first run of digits from a resolution label
// such as "1080p". Labels without digits rank below every parsed value.
func parseResolution(label string) int {
	label = strings.TrimSpace(label)
	start, end := -1, -1
	for i, r := range label {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			end = i + 1
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return -1
	}
	value, err := strconv.Atoi(label[start:end])
	if err != nil {
		return -1
	}
	return value
}
