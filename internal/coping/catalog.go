// Package coping holds the static self-help catalogs: the deterministic
// coping suggestions appended to every non-crisis reply, and the self-care
// tips surfaced by the mood summary.
package coping

import (
	"math/rand"

	"github.com/mindmate-labs/go-mindmate-backend/internal/emotion"
)

// suggestions maps each explicit emotion label to exactly three fixed
// strings. The default list covers everything else.
var suggestions = map[emotion.Label][]string{
	emotion.Sadness: {
		"Try a short journaling session about what's been heavy on your heart.",
		"Spend a few minutes focusing on your breath — in slowly, out slowly.",
		"Remind yourself that it's okay to feel low sometimes; it always passes.",
	},
	emotion.Anger: {
		"Take a deep breath in for 4 seconds, hold for 4, exhale for 4 — repeat.",
		"Go for a short walk to clear your mind before responding to others.",
		"Try writing down what made you upset, then note one positive action.",
	},
	emotion.Joy: {
		"Write down three things you're grateful for right now.",
		"Share your good mood — send a kind message to a friend.",
		"Pause to savor the feeling — it's important to celebrate good moments.",
	},
	emotion.Optimism: {
		"Keep focusing on the bright side, but allow yourself rest too.",
		"Note one goal you can take action on today.",
		"Gratitude journaling amplifies optimism — give it a try tonight.",
	},
}

var defaultSuggestions = []string{
	"Take a few slow, deep breaths and observe how you feel.",
	"A 5-minute mindfulness pause can reset your mood.",
	"Small steps today can bring big changes tomorrow.",
}

// SuggestionsFor returns the ordered suggestion list for a label. Unknown
// labels (including Default) get the generic mindfulness list. The result
// is a copy; callers may not mutate the catalog.
func SuggestionsFor(label emotion.Label) []string {
	src, ok := suggestions[label]
	if !ok {
		src = defaultSuggestions
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// selfCareTips backs the mood summary's tip box. Unlike the coping
// suggestions these are picked at random, one per summary.
var selfCareTips = map[emotion.Label][]string{
	emotion.Sadness: {
		"Take a deep breath — it's okay to feel. 🌧️",
		"Write your thoughts — it brings clarity. 🖊️",
		"Reach out to someone you trust. 💌",
		"Step outside for fresh air. 🍃",
	},
	emotion.Anger: {
		"Pause and breathe slowly — peace over anger. 🌿",
		"Go for a short walk to release tension. 🏃‍♂️",
		"Reflect — what triggered it? ✨",
		"Let it pass gently. ☁️",
	},
	emotion.Joy: {
		"Celebrate small wins! 🎉",
		"Share your happiness with others. 💛",
		"Take a gratitude moment. 🌈",
		"Smile — you're glowing! 😄",
	},
	emotion.Default: {
		"Take a mindful minute — breathe. 🕊️",
		"Stretch a bit to refresh. 🌱",
		"Journal your thoughts. ✍️",
		"You're doing great. 🌻",
	},
}

// RandomTip picks one self-care tip for the label, falling back to the
// neutral list when the label has no tips of its own.
func RandomTip(label emotion.Label) string {
	tips, ok := selfCareTips[label]
	if !ok {
		tips = selfCareTips[emotion.Default]
	}
	return tips[rand.Intn(len(tips))]
}

// TipsFor exposes the tip list for a label (neutral fallback included);
// used by tests to assert membership without pinning the random choice.
func TipsFor(label emotion.Label) []string {
	tips, ok := selfCareTips[label]
	if !ok {
		tips = selfCareTips[emotion.Default]
	}
	out := make([]string, len(tips))
	copy(out, tips)
	return out
}
