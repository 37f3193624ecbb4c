// Chat HTTP handlers.
//
// This file exposes the conversation endpoints:
//   - POST   /chat          (run one turn and get the reply)
//   - GET    /chat/history  (full conversation log, ETag support)
//   - DELETE /chat/clear    (wipe the conversation log)
//   - GET    /chat/mood     (mood analytics over recent turns)
//
// Handlers are transport-thin: validate input, delegate to TurnService,
// translate results. All routes here require BearerAuth upstream.
//
// Idempotency: when a client supplies an Idempotency-Key and a previous
// successful turn exists for (user, key), the recorded turn is returned
// with `Idempotency-Replayed: true` instead of running the models again.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
	"github.com/mindmate-labs/go-mindmate-backend/internal/http/middleware"
	"github.com/mindmate-labs/go-mindmate-backend/internal/services"
	"github.com/mindmate-labs/go-mindmate-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// TurnService defines the conversation operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type TurnService interface {
	// HandleTurn runs one full turn: classify, compose, persist.
	HandleTurn(ctx context.Context, userID, message string) (*services.TurnResult, error)
	// History returns the user's full conversation log in order.
	History(ctx context.Context, userID string) ([]domain.Turn, error)
	// ClearHistory deletes the log and reports how many turns were removed.
	ClearHistory(ctx context.Context, userID string) (int64, error)
	// Mood aggregates emotional history for the dashboard.
	Mood(ctx context.Context, userID string, window int) (*services.MoodSummary, error)
}

// ReplayStore covers the idempotent-replay bookkeeping and the aggregate
// stats behind conditional history responses. A nil store disables replay
// and ETags without affecting the endpoints' primary behavior.
type ReplayStore interface {
	// GetIdempotency returns the non-expired record for (user, key), or an
	// error when none exists.
	GetIdempotency(ctx context.Context, userID, key string, now time.Time) (*domain.Idempotency, error)
	// CreateIdempotency records a completed turn under (user, key).
	CreateIdempotency(ctx context.Context, userID, key, turnID string, status int, ttl time.Duration) (*domain.Idempotency, error)
	// GetTurn loads a persisted turn, scoped to its owner.
	GetTurn(ctx context.Context, id, userID string) (*domain.Turn, error)
	// TurnsStats returns the history row count and newest timestamp.
	TurnsStats(ctx context.Context, userID string) (count int64, maxCreatedAt *time.Time, err error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for auth and conversations. It
// depends on service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	authSvc AuthService
	turnSvc TurnService
	store   ReplayStore
	idemTTL time.Duration
}

// New constructs a Handlers bound to the given services. store may be nil
// to disable replay and conditional responses. idemTTL sets how long
// recorded idempotent results stay replayable; <= 0 defaults to 24h.
func New(authSvc AuthService, turnSvc TurnService, store ReplayStore, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{authSvc: authSvc, turnSvc: turnSvc, store: store, idemTTL: idemTTL}
}

// userID reads the authenticated identity set by BearerAuth. The routes
// using it are registered behind the auth middleware, so it is only empty
// in misconfigured test setups.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

//
// DTOs
//

// ChatRequest is the JSON payload for one conversation turn.
type ChatRequest struct {
	// Message is the user's utterance. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"I feel like nothing is going right lately"`
}

// ChatResponse carries the detected emotion and the composed reply.
type ChatResponse struct {
	Emotion string `json:"emotion" example:"sadness"`
	Reply   string `json:"reply"`
}

// HistoryResponse wraps the full conversation log.
type HistoryResponse struct {
	History []domain.Turn `json:"history"`
}

// ClearResponse confirms a history wipe.
type ClearResponse struct {
	Message string `json:"message" example:"Chat history cleared."`
}

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a message and get the assistant reply
// @Description Runs one conversation turn: detects the emotion, composes a
// @Description supportive reply, and records both. Supports idempotency via
// @Description the Idempotency-Key header (same key → same recorded turn).
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.ChatRequest  true  "User message payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Model or persistence failure"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	ctx := c.Request.Context()
	currentUser := userID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Replay path: serve the recorded turn without touching the models.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.store != nil {
		if rec, err := h.store.GetIdempotency(ctx, currentUser, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := h.store.GetTurn(ctx, rec.TurnID, currentUser); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, ChatResponse{Emotion: prev.Emotion, Reply: prev.BotReply})
				return
			}
		}
	}

	res, err := h.turnSvc.HandleTurn(ctx, currentUser, req.Message)
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case services.ErrMessageTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, maxMessageHint(h.turnSvc))
		case services.ErrPersistFailed:
			fail(c, http.StatusInternalServerError, ErrCodePersistFailed, "reply computed but not recorded")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	middleware.CountTurnEmotion(res.Emotion.String())

	// Store path, best effort: a failed record only disables future replay.
	if idemKey != "" && res.TurnID != "" && h.store != nil {
		_, _ = h.store.CreateIdempotency(ctx, currentUser, idemKey, res.TurnID, http.StatusOK, h.idemTTL)
	}

	ok(c, http.StatusOK, ChatResponse{Emotion: res.Emotion.String(), Reply: res.Reply})
}

// GetHistory godoc
// @ID          getHistory
// @Summary     Get the conversation log
// @Description Returns every recorded turn in chronological order. Supports
// @Description conditional requests via a weak ETag over (count, newest turn).
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.HistoryResponse
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/history [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	currentUser := userID(c)

	// ETag pre-check, best effort.
	if h.store != nil {
		if count, maxTS, err := h.store.TurnsStats(ctx, currentUser); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"turns:%s:%d:%d"`, currentUser, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	turns, err := h.turnSvc.History(ctx, currentUser)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, HistoryResponse{History: turns})
}

// ClearHistory godoc
// @ID          clearHistory
// @Summary     Clear the conversation log
// @Description Deletes every recorded turn for the authenticated user.
// @Description Clearing an already-empty log succeeds.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ClearResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/clear [delete]
func (h *Handlers) ClearHistory(c *gin.Context) {
	if _, err := h.turnSvc.ClearHistory(c.Request.Context(), userID(c)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ClearResponse{Message: "Chat history cleared."})
}

// GetMood godoc
// @ID          getMood
// @Summary     Get the mood summary
// @Description Aggregates emotional history: per-emotion counts, a timeline
// @Description over the newest turns, positivity score, and a self-care tip.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
//
// @Param       window  query  int  false  "Timeline length in turns"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object}  services.MoodSummary
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/mood [get]
func (h *Handlers) GetMood(c *gin.Context) {
	const (
		defaultWindow = 10
		maxWindow     = 100
	)
	window := utils.AtoiDefault(c.Query("window"), defaultWindow)
	if window < 1 {
		window = defaultWindow
	}
	if window > maxWindow {
		window = maxWindow
	}

	summary, err := h.turnSvc.Mood(c.Request.Context(), userID(c), window)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, summary)
}

// maxMessageHint formats the too-long rejection using the configured cap
// when the concrete service is available.
func maxMessageHint(svc TurnService) string {
	if ts, okSvc := svc.(*services.TurnService); okSvc && ts.MaxMessageRunes > 0 {
		return fmt.Sprintf("message too long: max %d runes", ts.MaxMessageRunes)
	}
	return "message too long"
}
