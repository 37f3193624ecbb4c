// Package services – TurnService
//
// This file implements the conversation-turn pipeline, the application's
// core orchestrator. A turn flows strictly through: input validation →
// emotion classification → reply composition (crisis override inside) →
// persistence → response. It also owns history retrieval, bulk clearing,
// and the mood analytics the dashboard renders.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// carry the user identifier and, for turns, the detected emotion.
package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mindmate-labs/go-mindmate-backend/internal/coping"
	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
	"github.com/mindmate-labs/go-mindmate-backend/internal/emotion"
	"github.com/mindmate-labs/go-mindmate-backend/internal/ml"
	"github.com/mindmate-labs/go-mindmate-backend/internal/repo"
)

// TurnRepo defines the persistence contract required by TurnService.
type TurnRepo interface {
	CreateTurn(ctx context.Context, db *gorm.DB, userID, message, botReply, emotion string) (*domain.Turn, error)
	ListTurns(ctx context.Context, db *gorm.DB, userID string) ([]domain.Turn, error)
	ListRecentTurns(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Turn, error)
	DeleteTurns(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	CountByEmotion(ctx context.Context, db *gorm.DB, userID string) ([]repo.EmotionCount, error)
}

// TurnResult is what a successful turn hands back to the transport layer.
type TurnResult struct {
	Emotion emotion.Label
	Reply   string

	// TurnID identifies the persisted row; the idempotency layer records
	// it so replays can serve the original result.
	TurnID string
}

// TimelinePoint is one step of the mood timeline: the n-th bot reply and
// its emotion mapped onto the 1..4 level scale.
type TimelinePoint struct {
	Index   int           `json:"index"`
	Emotion emotion.Label `json:"emotion"`
	Level   int           `json:"level"`
}

// MoodSummary aggregates a user's emotional history for the dashboard.
type MoodSummary struct {
	Counts          map[string]int64 `json:"counts"`
	Timeline        []TimelinePoint  `json:"timeline"`
	DominantEmotion string           `json:"dominant_emotion"`
	Positivity      float64          `json:"positivity"`
	Summary         string           `json:"summary"`
	Tip             string           `json:"tip"`
}

// TurnService coordinates the classifier, the composer, and the
// conversation store. Classifier and Composer are stateless and reentrant
// once constructed; the service adds no shared mutable state of its own.
type TurnService struct {
	DB         *gorm.DB
	Repo       TurnRepo
	Classifier ml.Classifier
	Composer   *ReplyComposer

	// MaxMessageRunes is an abuse guard on accepted message length. It sits
	// well above the classifier's truncation budget, so ordinary long
	// messages are truncated by the provider rather than rejected here.
	// <= 0 disables the cap.
	MaxMessageRunes int
}

// HandleTurn runs one full conversation turn for userID.
//
// The message is validated before any model call: empty or whitespace-only
// input is a caller contract violation (ErrEmptyMessage). Classification
// and composition both happen before persistence; a persistence failure
// still logs the computed reply ("answered but not recorded") but is
// surfaced as ErrPersistFailed rather than masked as success.
func (s *TurnService) HandleTurn(ctx context.Context, userID, message string) (*TurnResult, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "HandleTurn",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	raw, err := s.Classifier.Classify(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("classify message: %w", err)
	}
	label := emotion.Parse(raw)
	span.SetAttributes(attribute.String("turn.emotion", label.String()))

	reply, err := s.Composer.Compose(ctx, message, label)
	if err != nil {
		return nil, err
	}

	turn, err := s.Repo.CreateTurn(ctx, s.DB, userID, message, reply, label.String())
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("emotion", label.String()).
			Msg("answered but not recorded")
		return &TurnResult{Emotion: label, Reply: reply}, ErrPersistFailed
	}

	return &TurnResult{Emotion: label, Reply: reply, TurnID: turn.ID}, nil
}

// History returns every turn for userID in insertion order.
func (s *TurnService) History(ctx context.Context, userID string) ([]domain.Turn, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return s.Repo.ListTurns(ctx, s.DB, userID)
}

// ClearHistory bulk-deletes every turn for userID and reports the count.
// Clearing an empty history succeeds trivially with 0.
func (s *TurnService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "ClearHistory",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	removed, err := s.Repo.DeleteTurns(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("turns.removed", removed))
	return removed, nil
}

// Mood builds the analytics summary the dashboard renders: per-emotion
// counts, a timeline over the newest `window` turns (<= 0 means all), the
// dominant emotion, a positivity percentage with its banding line, and one
// random self-care tip keyed by the latest emotion.
//
// Positivity weighs joy fully and the neutral default bucket at half, over
// all recorded turns.
func (s *TurnService) Mood(ctx context.Context, userID string, window int) (*MoodSummary, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Mood",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("window", window),
		),
	)
	defer span.End()

	counts, err := s.Repo.CountByEmotion(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	summary := &MoodSummary{Counts: map[string]int64{}, Timeline: []TimelinePoint{}}

	var total, joy, neutral int64
	for _, c := range counts {
		summary.Counts[c.Emotion] = c.Count
		total += c.Count
		switch emotion.Parse(c.Emotion) {
		case emotion.Joy:
			joy += c.Count
		case emotion.Default:
			neutral += c.Count
		}
	}
	if total == 0 {
		summary.Summary = "Start chatting to generate mood summary."
		summary.Tip = coping.RandomTip(emotion.Default)
		return summary, nil
	}

	// CountByEmotion orders by count descending, so the first row wins.
	dominant := emotion.Parse(counts[0].Emotion)
	summary.DominantEmotion = cases.Title(language.English).String(dominant.String())

	positivity := (float64(joy) + 0.5*float64(neutral)) / float64(total) * 100
	summary.Positivity = math.Round(positivity*10) / 10
	switch {
	case summary.Positivity > 70:
		summary.Summary = "You're radiating positivity 🌞"
	case summary.Positivity >= 40:
		summary.Summary = "Mixed emotions — holding steady 💫"
	default:
		summary.Summary = "Feeling low — remember, every emotion is valid ❤️"
	}

	recent, err := s.Repo.ListRecentTurns(ctx, s.DB, userID, window)
	if err != nil {
		return nil, err
	}
	latest := emotion.Default
	for i, t := range recent {
		label := emotion.Parse(t.Emotion)
		summary.Timeline = append(summary.Timeline, TimelinePoint{
			Index:   i + 1,
			Emotion: label,
			Level:   label.Level(),
		})
		latest = label
	}
	summary.Tip = coping.RandomTip(latest)

	return summary, nil
}
