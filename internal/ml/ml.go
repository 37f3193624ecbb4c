// Package ml wraps the pretrained third-party models the pipeline depends
// on: an emotion classifier and an empathetic text generator. Both are
// remote inference calls; there is no local inference, batching, or
// caching here.
//
// Providers are constructed once at process start and injected into the
// services that need them. Construction validates configuration and a
// Warmup call lets main fail fast when a model endpoint is unreachable;
// per-request failures after that are recoverable errors.
package ml

import (
	"context"
	"errors"
	"time"
)

// Classifier maps free text to a raw emotion label string. Output is one
// of the underlying model's fixed labels; callers normalize it with
// emotion.Parse.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Generator produces an empathetic reply for a fully composed prompt
// (tone prefix + user message). Decoding parameters are fixed at
// construction time.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Warmer is implemented by providers that can cheaply verify the backing
// models are reachable. main treats a warmup failure as fatal.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// GenParams are the decoding parameters for the generation model. The
// defaults mirror the original deployment and are not request-tunable.
type GenParams struct {
	MaxLength   int
	NumBeams    int
	Temperature float64
	TopP        float64
}

// DefaultGenParams returns the fixed decoding configuration.
func DefaultGenParams() GenParams {
	return GenParams{
		MaxLength:   150,
		NumBeams:    5,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// Config carries provider settings resolved from the environment.
type Config struct {
	// Hugging Face Inference API
	BaseURL        string // e.g. https://api-inference.huggingface.co
	APIToken       string
	EmotionModel   string // e.g. cardiffnlp/twitter-roberta-base-emotion
	GeneratorModel string // e.g. facebook/blenderbot-400M-distill

	// OpenAI-compatible generator (optional alternative provider)
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	Params GenParams

	// MaxInputRunes truncates classifier input, mirroring the tokenizer
	// truncation of the original model. <= 0 disables truncation.
	MaxInputRunes int

	// Timeout bounds each HTTP round trip to the inference API.
	Timeout time.Duration
}

var (
	// ErrUnavailable indicates the model endpoint could not serve the call.
	ErrUnavailable = errors.New("model unavailable")

	// ErrEmptyInput is returned when a provider is invoked with no text.
	ErrEmptyInput = errors.New("empty input")
)

// truncateRunes clips s to at most n runes. n <= 0 leaves s untouched.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
