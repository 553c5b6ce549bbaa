package pipeline

import (
	"regexp"
	"strings"
)

var (
	listMarkerRE = regexp.MustCompile(`^(\d+\.|\*|-)\s+`)
	emphasisRE   = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// An AI-search answer rarely has more than a handful of usable findings;
// anything past this is citation noise.
const maxFindings = 10

// ParseFindings splits an AI-search answer into titled findings. A line with
// a list marker (ordinal, asterisk or dash) opens a candidate; following
// non-blank lines join into its body; a blank line or end of input closes it.
// Malformed input degrades to zero candidates, never an error.
func ParseFindings(content string) []Candidate {
	var (
		out []Candidate
		cur *Candidate
	)

	flush := func() {
		if cur != nil && cur.Title != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if listMarkerRE.MatchString(line) {
			flush()
			title := listMarkerRE.ReplaceAllString(line, "")
			title = emphasisRE.ReplaceAllString(title, "$1")
			cur = &Candidate{Title: strings.TrimSpace(title), Source: SourceAISearch}
			continue
		}

		if cur != nil {
			if cur.Body == "" {
				cur.Body = line
			} else {
				cur.Body += " " + line
			}
		}
	}
	flush()

	if len(out) > maxFindings {
		out = out[:maxFindings]
	}
	return out
}
