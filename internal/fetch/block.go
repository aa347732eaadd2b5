package fetch

import "strings"

// Challenge signatures observed on the tracker site. These are empirical
// and recalibrated from time to time, so keep them in one place.
var challengeMarkers = []string{
	"just a moment",
	"attention required",
	"enable javascript and cookies to continue",
	"cf-chl",
	"challenge-platform",
	"cf_chl_opt",
}

// IsChallenge reports whether page content is an anti-bot challenge
// rather than a profile page.
func IsChallenge(content string) bool {
	if content == "" {
		return false
	}
	lower := strings.ToLower(content)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
