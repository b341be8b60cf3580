// Package parser implements the Revert/Reference Parser (C2): pure text
// routines with no port dependencies, grounded on the original webhook
// handler's extract_issue_reference and the reactive ELO service's
// revert/bug-reference extraction.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// maxMessageLen caps how much of a commit message or issue body is
// inspected, so adversarial input (an enormous single-line message) cannot
// force unbounded work (SPEC_FULL.md §4.2).
const maxMessageLen = 64 * 1024

var (
	revertMarker  = "This reverts commit "
	revertLineTag = "Revert "

	shaRe = regexp.MustCompile(`[0-9a-fA-F]{7,}`)

	prRefRe = regexp.MustCompile(`(?:PR\s*)?#(\d+)`)

	bugTitleRe = regexp.MustCompile(`(?i)\b(bug|crash(?:es|ed)?|error|regression|broken|fail(?:ure|ed)?)\b`)
)

// ParseRevert returns the first hex-only SHA of length >= 7 appearing after
// "This reverts commit ", falling back to a line beginning with "Revert "
// (git's own auto-generated revert message shape). The marker match is
// case-sensitive. Returns ("", false) on no match.
func ParseRevert(message string) (string, bool) {
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}

	if idx := strings.Index(message, revertMarker); idx >= 0 {
		rest := message[idx+len(revertMarker):]
		if loc := shaRe.FindString(rest); loc != "" {
			return loc, true
		}
	}

	for _, line := range strings.Split(message, "\n") {
		if strings.HasPrefix(line, revertLineTag) {
			if loc := shaRe.FindString(line[len(revertLineTag):]); loc != "" {
				return loc, true
			}
		}
	}

	return "", false
}

// ParsePRReferences returns every integer N >= 1 captured by the pattern
// (?:PR\s*)?#(\d+) in occurrence order; duplicates are preserved.
func ParsePRReferences(body string) []int64 {
	if len(body) > maxMessageLen {
		body = body[:maxMessageLen]
	}

	matches := prRefRe.FindAllStringSubmatch(body, -1)
	refs := make([]int64, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n < 1 {
			continue
		}
		refs = append(refs, n)
	}
	return refs
}

// IsLikelyBugReport gates bug-reference extraction on an issue title
// keyword heuristic (supplemented module: see SPEC_FULL.md "is_bug
// issue-title heuristic gate").
func IsLikelyBugReport(title string) bool {
	return bugTitleRe.MatchString(title)
}

// competingPRPatterns are the textual issue-reference shapes the Moment
// Curator's competing-PR detection (SPEC_FULL.md §4.7) scans PR titles and
// head-branch names for.
var competingPRPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`(?i)fix[-_](\d+)`),
	regexp.MustCompile(`(?i)issue[-_](\d+)`),
	regexp.MustCompile(`(?i)(?:close[s]?|fix(?:es)?|resolve[s]?)\s*#?(\d+)`),
}

// ExtractIssueReference returns the first issue number referenced by text
// (a PR title or head-branch name), trying each competing-PR pattern in
// turn. Returns (0, false) if none match.
func ExtractIssueReference(text string) (int64, bool) {
	for _, re := range competingPRPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err == nil && n >= 1 {
				return n, true
			}
		}
	}
	return 0, false
}
