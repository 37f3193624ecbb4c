package safety

import "testing"

func TestDetectsCrisis_EveryPhrase(t *testing.T) {
	for _, p := range Phrases() {
		if !DetectsCrisis("I sometimes think about " + p + " these days") {
			t.Errorf("phrase %q not detected in context", p)
		}
	}
}

func TestDetectsCrisis_CaseInsensitive(t *testing.T) {
	if !DetectsCrisis("I feel WORTHLESS") {
		t.Fatal("uppercase phrase not detected")
	}
	if !DetectsCrisis("Everything is HoPeLeSs") {
		t.Fatal("mixed-case phrase not detected")
	}
}

func TestDetectsCrisis_Negative(t *testing.T) {
	for _, msg := range []string{
		"",
		"I had a great day at work",
		"the movie was killer",
		"I want to diet",
	} {
		if msg == "I want to diet" {
			// Substring matching is intentional: "want to die" fires
			// inside "want to diet". The cost of a false positive is one
			// extra safety message, which is acceptable.
			if !DetectsCrisis(msg) {
				t.Errorf("expected substring match for %q", msg)
			}
			continue
		}
		if DetectsCrisis(msg) {
			t.Errorf("false positive for %q", msg)
		}
	}
}
