package parser

import (
	"reflect"
	"testing"
)

func TestParseRevert_ThisRevertsCommitMarker(t *testing.T) {
	sha := "abc1234def5678901234567890123456789012"
	msg := "Revert \"add feature\"\n\nThis reverts commit " + sha + ".\n"

	got, ok := ParseRevert(msg)
	if !ok {
		t.Fatalf("expected a match")
	}
	if got != sha {
		t.Fatalf("got %q want %q", got, sha)
	}
}

func TestParseRevert_NoMatch(t *testing.T) {
	if _, ok := ParseRevert("just a normal commit message"); ok {
		t.Fatalf("expected no match")
	}
}

func TestParseRevert_ShortShaRejected(t *testing.T) {
	// fewer than 7 hex chars after the marker should not match
	if _, ok := ParseRevert("This reverts commit ab12"); ok {
		t.Fatalf("expected no match for short sha")
	}
}

func TestParsePRReferences_OrderAndDuplicates(t *testing.T) {
	got := ParsePRReferences("See PR #12 and #34, also referenced again in #12")
	want := []int64{12, 34, 12}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParsePRReferences_NoMatches(t *testing.T) {
	got := ParsePRReferences("nothing to see here")
	if len(got) != 0 {
		t.Fatalf("expected no references, got %v", got)
	}
}

func TestIsLikelyBugReport(t *testing.T) {
	cases := map[string]bool{
		"App crashes on startup":      true,
		"Regression in login flow":    true,
		"NullPointerException thrown": false, // no keyword match
		"Add dark mode":               false,
		"Fix flaky test failure":      true,
	}
	for title, want := range cases {
		if got := IsLikelyBugReport(title); got != want {
			t.Errorf("IsLikelyBugReport(%q) = %v, want %v", title, got, want)
		}
	}
}

func TestExtractIssueReference(t *testing.T) {
	cases := []struct {
		text string
		want int64
		ok   bool
	}{
		{"fixes #42", 42, true},
		{"fix-17-headless-crash", 17, true},
		{"issue-9", 9, true},
		{"closes #101", 101, true},
		{"no reference here", 0, false},
	}
	for _, c := range cases {
		got, ok := ExtractIssueReference(c.text)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ExtractIssueReference(%q) = (%d, %v), want (%d, %v)", c.text, got, ok, c.want, c.ok)
		}
	}
}
