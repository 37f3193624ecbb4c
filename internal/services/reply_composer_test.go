package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindmate-labs/go-mindmate-backend/internal/coping"
	"github.com/mindmate-labs/go-mindmate-backend/internal/emotion"
)

// fakeGenerator returns a canned reply and records the prompt it saw.
type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func TestCompose_CrisisOverridesEverything(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	rc := &ReplyComposer{Generator: gen}

	got, err := rc.Compose(context.Background(), "I feel hopeless about everything", emotion.Sadness)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != CrisisMessage {
		t.Fatalf("crisis input must return the fixed safety text, got %q", got)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("generator must not be called on crisis input")
	}
	if strings.Contains(got, CopingTipHeading) {
		t.Fatal("crisis reply must not carry coping suggestions")
	}
}

func TestCompose_TonePrefixPerLabel(t *testing.T) {
	cases := map[emotion.Label]string{
		emotion.Sadness:          tonePrefixes[emotion.Sadness],
		emotion.Anger:            tonePrefixes[emotion.Anger],
		emotion.Joy:              tonePrefixes[emotion.Joy],
		emotion.Optimism:         tonePrefixes[emotion.Optimism],
		emotion.Default:          defaultTonePrefix,
		emotion.Label("unknown"): defaultTonePrefix,
	}
	for label, prefix := range cases {
		gen := &fakeGenerator{reply: "ok"}
		rc := &ReplyComposer{Generator: gen}
		if _, err := rc.Compose(context.Background(), "hello there", label); err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if len(gen.prompts) != 1 || gen.prompts[0] != prefix+"hello there" {
			t.Errorf("%s: prompt = %q, want prefix %q", label, gen.prompts[0], prefix)
		}
	}
}

func TestCompose_AppendsCopingBlock(t *testing.T) {
	gen := &fakeGenerator{reply: "  That sounds hard.  "}
	rc := &ReplyComposer{Generator: gen}

	got, err := rc.Compose(context.Background(), "rough week", emotion.Sadness)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	want := "That sounds hard.\n\n" + CopingTipHeading + "\n" +
		strings.Join(coping.SuggestionsFor(emotion.Sadness), "\n")
	if got != want {
		t.Fatalf("composed reply mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestCompose_GeneratorError(t *testing.T) {
	genErr := errors.New("model down")
	rc := &ReplyComposer{Generator: &fakeGenerator{err: genErr}}

	_, err := rc.Compose(context.Background(), "hello", emotion.Joy)
	if !errors.Is(err, genErr) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
}

func TestCompose_AppliesDeadline(t *testing.T) {
	rc := &ReplyComposer{
		Generator: generatorFunc(func(ctx context.Context, prompt string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		}),
		GenTimeout: 10 * time.Millisecond,
	}

	_, err := rc.Compose(context.Background(), "hello", emotion.Joy)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
