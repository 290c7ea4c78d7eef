package analytics

import "strings"

// blockerKeywords is the fixed keyword set scanned for in transcripts.
var blockerKeywords = []string{
	"blocked", "stuck", "waiting", "can't proceed", "dependency", "issue", "problem", "blocker",
}

// DetectBlockers scans transcript text line by line and returns the lines
// mentioning any blocker keyword. Matching is case-insensitive substring
// search with no stemming or negation handling, so "no longer blocked"
// still matches. A line hitting several keywords appears once.
func DetectBlockers(transcript string) []string {
	var hits []string
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range blockerKeywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, strings.TrimSpace(line))
				break
			}
		}
	}
	return hits
}
