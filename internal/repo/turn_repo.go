// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Turn
// model: the append-only conversation log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
)

// CreateTurn inserts one conversation turn. The ID is a random UUID and
// CreatedAt is set to UTC. Turns are never updated after insertion.
func CreateTurn(ctx context.Context, db *gorm.DB, userID, message, botReply, emotion string) (*domain.Turn, error) {
	t := &domain.Turn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		BotReply:  botReply,
		Emotion:   emotion,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// ListTurns returns all turns for userID in insertion order
// (CreatedAt ASC, ID ASC as a deterministic tiebreaker). An empty history
// yields an empty slice, not an error.
func ListTurns(ctx context.Context, db *gorm.DB, userID string) ([]domain.Turn, error) {
	out := []domain.Turn{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountTurns uses a raw COUNT so a missing table surfaces as an error.
func CountTurns(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM turns WHERE user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// GetTurn fetches a turn by its primary key, scoped to its owner, or
// ErrNotFound. Used by the idempotency replay path.
func GetTurn(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Turn, error) {
	var t domain.Turn
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTurns removes every turn belonging to userID and reports how many
// rows went away. Deleting an empty history succeeds with count 0.
func DeleteTurns(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.Turn{})
	return res.RowsAffected, res.Error
}

// EmotionCount is one row of the per-emotion aggregate.
type EmotionCount struct {
	Emotion string
	Count   int64
}

// CountByEmotion groups a user's turns by detected emotion. Rows come back
// ordered by count descending, then emotion ascending, so the dominant
// emotion is always first.
func CountByEmotion(ctx context.Context, db *gorm.DB, userID string) ([]EmotionCount, error) {
	out := []EmotionCount{}
	err := db.WithContext(ctx).
		Model(&domain.Turn{}).
		Select("emotion, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("emotion").
		Order("count DESC, emotion ASC").
		Scan(&out).Error
	return out, err
}

// ListRecentTurns returns the newest `limit` turns for userID, oldest
// first, for the mood timeline. limit <= 0 returns everything.
func ListRecentTurns(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		return ListTurns(ctx, db, userID)
	}
	newest := []domain.Turn{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}
