// Package services – ReplyComposer
//
// This file implements the reply composition policy: crisis override
// first, then tone-prefixed model generation, then the deterministic
// coping-suggestion block. The composer owns the only generation call in
// the pipeline and bounds it with a per-call deadline.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mindmate-labs/go-mindmate-backend/internal/coping"
	"github.com/mindmate-labs/go-mindmate-backend/internal/emotion"
	"github.com/mindmate-labs/go-mindmate-backend/internal/ml"
	"github.com/mindmate-labs/go-mindmate-backend/internal/safety"
)

// CrisisMessage is returned verbatim whenever the crisis detector fires.
// It short-circuits generation and coping suggestions entirely.
const CrisisMessage = "It sounds like you're in a very difficult moment right now. 💛\n" +
	"You are not alone — please reach out to someone right away.\n\n" +
	"📞 **India:** AASRA Helpline — 91-9820466726\n" +
	"📞 **USA:** National Suicide Prevention Lifeline — 988\n" +
	"📞 **UK:** Samaritans — 116 123\n\n" +
	"If you're in immediate danger, please contact your local emergency services."

// CopingTipHeading labels the suggestion block appended to every
// non-crisis reply.
const CopingTipHeading = "💡 *Coping Tip:*"

// tonePrefixes select the persona the generator is prompted with, keyed by
// the closed emotion set. Default covers optimism-adjacent and unknown
// labels alike via the fallback in prefixFor.
var tonePrefixes = map[emotion.Label]string{
	emotion.Sadness:  "You are a gentle listener offering comfort and reassurance: ",
	emotion.Anger:    "You are calm and understanding. Help the user regain peace: ",
	emotion.Joy:      "You are cheerful and kind. Celebrate their happiness: ",
	emotion.Optimism: "You are encouraging and positive. Reinforce their hopeful outlook: ",
}

const defaultTonePrefix = "You are supportive and mindful. Offer empathy and understanding: "

// ReplyComposer turns (message, emotion) into the bot's reply text.
type ReplyComposer struct {
	Generator ml.Generator

	// GenTimeout bounds each generation call. <= 0 falls back to 60s; the
	// original imposed no deadline at all, which let a slow model hold the
	// request forever.
	GenTimeout time.Duration
}

// Compose produces the reply for message under the detected emotion label.
//
// Order matters: the crisis check takes absolute precedence and returns
// the fixed safety text with no generation and no suggestions. Otherwise
// the tone prefix for the label is prepended to the message, the generator
// is invoked under a deadline, and the coping block for the label is
// appended after a blank line.
func (rc *ReplyComposer) Compose(ctx context.Context, message string, label emotion.Label) (string, error) {
	if safety.DetectsCrisis(message) {
		return CrisisMessage, nil
	}

	timeout := rc.GenTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	botReply, err := rc.Generator.Generate(genCtx, prefixFor(label)+message)
	if err != nil {
		return "", fmt.Errorf("compose reply: %w", err)
	}
	botReply = strings.TrimSpace(botReply)

	suggestions := strings.Join(coping.SuggestionsFor(label), "\n")
	return fmt.Sprintf("%s\n\n%s\n%s", botReply, CopingTipHeading, suggestions), nil
}

func prefixFor(label emotion.Label) string {
	if p, ok := tonePrefixes[label]; ok {
		return p
	}
	return defaultTonePrefix
}
