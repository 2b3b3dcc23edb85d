package synthesizer

import "strings"

// complexityMarkers each add one signal when present in the markup.
var complexityMarkers = []string{
	`class="complex`,
	"data-step=",
	"multi-step",
	"javascript:",
	"onclick=",
	"data-validation=",
}

// inputThreshold is the number of <input occurrences above which a form
// counts as large.
const inputThreshold = 5

// IsComplex reports whether at least two of seven signals hold: each of the
// complexity markers counts once, and more than five inputs counts once.
func IsComplex(html string) bool {
	signals := 0
	for _, m := range complexityMarkers {
		if strings.Contains(html, m) {
			signals++
		}
	}
	if strings.Count(html, "<input") > inputThreshold {
		signals++
	}
	return signals >= 2
}
