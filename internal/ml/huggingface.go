package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HFClient talks to the Hugging Face Inference API. It implements both
// Classifier (text-classification pipeline) and Generator (text2text
// generation), one hosted model each.
type HFClient struct {
	baseURL        string
	token          string
	emotionModel   string
	generatorModel string
	params         GenParams
	maxInputRunes  int
	client         *http.Client
}

// NewHFClient validates cfg and returns a ready client. No network call
// happens here; use Warmup to verify the models are reachable.
func NewHFClient(cfg Config) (*HFClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("ml: base URL is required")
	}
	if strings.TrimSpace(cfg.EmotionModel) == "" || strings.TrimSpace(cfg.GeneratorModel) == "" {
		return nil, fmt.Errorf("ml: emotion and generator model ids are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	params := cfg.Params
	if params.MaxLength <= 0 {
		params = DefaultGenParams()
	}
	return &HFClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.APIToken,
		emotionModel:   cfg.EmotionModel,
		generatorModel: cfg.GeneratorModel,
		params:         params,
		maxInputRunes:  cfg.MaxInputRunes,
		client:         &http.Client{Timeout: timeout},
	}, nil
}

// hfRequest is the common inference payload. Options asks the API to block
// until a cold model is loaded instead of returning 503.
type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// hfLabelScore is one entry of a text-classification response.
type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// hfGenerated is one entry of a generation response.
type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}

// Classify runs the emotion model and returns the top-scoring label,
// lowercased. Input is truncated to the configured rune budget first.
func (c *HFClient) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	body := hfRequest{
		Inputs:  truncateRunes(text, c.maxInputRunes),
		Options: map[string]any{"wait_for_model": true},
	}

	raw, err := c.post(ctx, c.emotionModel, body)
	if err != nil {
		return "", err
	}

	// The classification pipeline nests the scores one level deep:
	// [[{label, score}, ...]]. Accept the flat form too.
	var nested [][]hfLabelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return strings.ToLower(best(nested[0]).Label), nil
	}
	var flat []hfLabelScore
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return strings.ToLower(best(flat).Label), nil
	}
	return "", fmt.Errorf("ml: unexpected classification response: %w", ErrUnavailable)
}

// Generate runs the generation model over the composed prompt and returns
// the decoded text, whitespace-trimmed.
func (c *HFClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyInput
	}
	body := hfRequest{
		Inputs: prompt,
		Parameters: map[string]any{
			"max_length":  c.params.MaxLength,
			"num_beams":   c.params.NumBeams,
			"temperature": c.params.Temperature,
			"top_p":       c.params.TopP,
		},
		Options: map[string]any{"wait_for_model": true},
	}

	raw, err := c.post(ctx, c.generatorModel, body)
	if err != nil {
		return "", err
	}

	var out []hfGenerated
	if err := json.Unmarshal(raw, &out); err != nil || len(out) == 0 {
		return "", fmt.Errorf("ml: unexpected generation response: %w", ErrUnavailable)
	}
	return strings.TrimSpace(out[0].GeneratedText), nil
}

// Warmup issues a tiny call against both models so a missing token or a
// dead endpoint is caught at startup rather than on the first user turn.
func (c *HFClient) Warmup(ctx context.Context) error {
	if _, err := c.Classify(ctx, "hello"); err != nil {
		return fmt.Errorf("ml: emotion model warmup: %w", err)
	}
	if _, err := c.Generate(ctx, "hello"); err != nil {
		return fmt.Errorf("ml: generator model warmup: %w", err)
	}
	return nil
}

// post sends one inference request and returns the raw response body.
// Non-2xx statuses map onto ErrUnavailable with the body preserved for
// logs; the caller never exposes it to API clients.
func (c *HFClient) post(ctx context.Context, model string, payload hfRequest) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/models/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml: %s: %v: %w", model, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ml: %s: read response: %w", model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ml: %s: status %d: %s: %w",
			model, resp.StatusCode, strings.TrimSpace(string(raw)), ErrUnavailable)
	}
	return raw, nil
}

func best(scores []hfLabelScore) hfLabelScore {
	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}
	return top
}
