// Package safety implements the crisis detector: a case-insensitive
// substring scan over a fixed list of distress phrases. When it fires, the
// reply composer bypasses model generation entirely and returns the fixed
// crisis-safety message.
//
// The matcher is deliberately simple. Partial-word hits are intentional
// ("hopelessness" matches "hopeless"); false negatives are the accepted
// trade-off of keyword matching at this scale.
package safety

import (
	"regexp"
	"strings"
)

// crisisPhrases is the fixed distress phrase list. Order is irrelevant;
// each phrase matches anywhere in the text, case-insensitively.
var crisisPhrases = []string{
	"suicide",
	"kill myself",
	"end my life",
	"worthless",
	"hopeless",
	"want to die",
	"self harm",
	"cut myself",
}

var crisisRE = regexp.MustCompile(`(?i)` + strings.Join(quoteAll(crisisPhrases), "|"))

// DetectsCrisis reports whether text contains any crisis phrase.
func DetectsCrisis(text string) bool {
	return crisisRE.MatchString(text)
}

// Phrases returns a copy of the phrase list, mainly for tests and docs.
func Phrases() []string {
	out := make([]string, len(crisisPhrases))
	copy(out, crisisPhrases)
	return out
}

func quoteAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = regexp.QuoteMeta(p)
	}
	return out
}
