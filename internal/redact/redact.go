// Package redact masks secrets and contact details in assessment notes
// before they are written out with gap records.
package redact

import (
	"regexp"

	"github.com/dshills/csfgap/internal/gap"
)

// Mask replaces every redacted span.
const Mask = "[REDACTED]"

type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret", regexp.MustCompile(`(?i)(aws_secret_access_key|aws_secret)\s*[:=]\s*[A-Za-z0-9/+=]{40}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`)},
	{"bearer-token", regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`)},
	{"credential", regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`)},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
}

// Redact replaces secret patterns in text with Mask.
func Redact(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, Mask)
	}
	return text
}

// Findings names the rules that match text, in rule order.
func Findings(text string) []string {
	var names []string
	for _, r := range rules {
		if r.re.MatchString(text) {
			names = append(names, r.name)
		}
	}
	return names
}

// Gaps returns a copy of gaps with redacted notes, and how many notes
// changed. The input slice is not modified.
func Gaps(gaps []gap.Gap) ([]gap.Gap, int) {
	if gaps == nil {
		return nil, 0
	}
	out := make([]gap.Gap, len(gaps))
	changed := 0
	for i, g := range gaps {
		if g.Notes != "" {
			if red := Redact(g.Notes); red != g.Notes {
				g.Notes = red
				changed++
			}
		}
		out[i] = g
	}
	return out, changed
}
