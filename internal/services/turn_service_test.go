package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
	"github.com/mindmate-labs/go-mindmate-backend/internal/emotion"
	"github.com/mindmate-labs/go-mindmate-backend/internal/repo"
)

// ---------- test helpers ----------

func newTurnDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:turnsvc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Turn{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// dbTurnRepo proxies the repo free functions, mirroring the production
// wiring in the router.
type dbTurnRepo struct{}

func (dbTurnRepo) CreateTurn(ctx context.Context, db *gorm.DB, userID, message, botReply, emotion string) (*domain.Turn, error) {
	return repo.CreateTurn(ctx, db, userID, message, botReply, emotion)
}
func (dbTurnRepo) ListTurns(ctx context.Context, db *gorm.DB, userID string) ([]domain.Turn, error) {
	return repo.ListTurns(ctx, db, userID)
}
func (dbTurnRepo) ListRecentTurns(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Turn, error) {
	return repo.ListRecentTurns(ctx, db, userID, limit)
}
func (dbTurnRepo) DeleteTurns(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.DeleteTurns(ctx, db, userID)
}
func (dbTurnRepo) CountByEmotion(ctx context.Context, db *gorm.DB, userID string) ([]repo.EmotionCount, error) {
	return repo.CountByEmotion(ctx, db, userID)
}

// fakeClassifier returns a fixed raw label.
type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

func newTurnService(db *gorm.DB, label string, reply string) *TurnService {
	return &TurnService{
		DB:         db,
		Repo:       dbTurnRepo{},
		Classifier: &fakeClassifier{label: label},
		Composer:   &ReplyComposer{Generator: &fakeGenerator{reply: reply}},
	}
}

// ---------- HandleTurn ----------

func TestHandleTurn_EmptyMessage(t *testing.T) {
	db := newTurnDB(t)
	cls := &fakeClassifier{label: "joy"}
	s := &TurnService{DB: db, Repo: dbTurnRepo{}, Classifier: cls,
		Composer: &ReplyComposer{Generator: &fakeGenerator{reply: "hi"}}}

	_, err := s.HandleTurn(context.Background(), "u1", "   \n\t ")
	if err != ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if cls.calls != 0 {
		t.Fatal("classifier must not run for empty input")
	}
}

func TestHandleTurn_TooLong(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "hi")
	s.MaxMessageRunes = 5

	_, err := s.HandleTurn(context.Background(), "u1", "toooooo long")
	if err != ErrMessageTooLong {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
}

func TestHandleTurn_LongMessageUnderCapSucceeds(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "hi")
	s.MaxMessageRunes = 2000

	// Longer than the classifier's truncation budget but under the abuse
	// guard: the provider truncates, the turn still completes.
	long := strings.Repeat("a", 600)
	res, err := s.HandleTurn(context.Background(), "u1", long)
	if err != nil {
		t.Fatalf("HandleTurn(long): %v", err)
	}
	if res.Emotion != emotion.Joy {
		t.Fatalf("emotion = %q, want joy", res.Emotion)
	}
}

func TestHandleTurn_SuccessPersistsAndReturns(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "Sadness", "I'm here for you.")

	res, err := s.HandleTurn(context.Background(), "u1", "rough day")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Emotion != emotion.Sadness {
		t.Fatalf("emotion = %q, want sadness (normalized)", res.Emotion)
	}
	if !strings.HasPrefix(res.Reply, "I'm here for you.") {
		t.Fatalf("reply = %q", res.Reply)
	}
	if !strings.Contains(res.Reply, CopingTipHeading) {
		t.Fatal("reply missing coping block")
	}
	if res.TurnID == "" {
		t.Fatal("expected persisted turn id")
	}

	turns, err := repo.ListTurns(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("persisted %d turns, want 1", len(turns))
	}
	if turns[0].Message != "rough day" || turns[0].Emotion != "sadness" || turns[0].BotReply != res.Reply {
		t.Fatalf("persisted turn mismatch: %+v", turns[0])
	}
}

func TestHandleTurn_UnknownLabelNormalizesToDefault(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "LABEL_3", "okay")

	res, err := s.HandleTurn(context.Background(), "u1", "meh")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Emotion != emotion.Default {
		t.Fatalf("emotion = %q, want default", res.Emotion)
	}
}

func TestHandleTurn_CrisisSkipsGeneration(t *testing.T) {
	db := newTurnDB(t)
	gen := &fakeGenerator{reply: "unused"}
	s := &TurnService{DB: db, Repo: dbTurnRepo{},
		Classifier: &fakeClassifier{label: "sadness"},
		Composer:   &ReplyComposer{Generator: gen}}

	res, err := s.HandleTurn(context.Background(), "u1", "I want to die")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Reply != CrisisMessage {
		t.Fatalf("crisis turn must return the safety text, got %q", res.Reply)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("generator must not run on crisis input")
	}

	// Crisis turns are still recorded.
	turns, _ := repo.ListTurns(context.Background(), db, "u1")
	if len(turns) != 1 || turns[0].BotReply != CrisisMessage {
		t.Fatalf("crisis turn not persisted: %+v", turns)
	}
}

func TestHandleTurn_ClassifierError(t *testing.T) {
	db := newTurnDB(t)
	wantErr := errors.New("classifier down")
	s := &TurnService{DB: db, Repo: dbTurnRepo{},
		Classifier: &fakeClassifier{err: wantErr},
		Composer:   &ReplyComposer{Generator: &fakeGenerator{reply: "x"}}}

	_, err := s.HandleTurn(context.Background(), "u1", "hello")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected classifier error, got %v", err)
	}
}

func TestHandleTurn_PersistFailureStillReturnsReply(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "great!")

	// Break persistence after the pipeline has everything it needs.
	if err := db.Migrator().DropTable(&domain.Turn{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	res, err := s.HandleTurn(context.Background(), "u1", "good news")
	if err != ErrPersistFailed {
		t.Fatalf("expected ErrPersistFailed, got %v", err)
	}
	if res == nil || res.Reply == "" || res.Emotion != emotion.Joy {
		t.Fatalf("computed result must accompany ErrPersistFailed, got %+v", res)
	}
	if res.TurnID != "" {
		t.Fatal("unpersisted turn must not carry an id")
	}
}

// ---------- History / ClearHistory ----------

func TestHistoryAndClear(t *testing.T) {
	db := newTurnDB(t)
	ctx := context.Background()
	s := newTurnService(db, "joy", "nice")

	for i := 0; i < 3; i++ {
		if _, err := s.HandleTurn(ctx, "u1", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	hist, err := s.History(ctx, "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("history len = %d, want 3", len(hist))
	}

	removed, err := s.ClearHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	hist, _ = s.History(ctx, "u1")
	if len(hist) != 0 {
		t.Fatalf("history after clear = %d, want 0", len(hist))
	}

	// Clearing again is a no-op, not an error.
	removed, err = s.ClearHistory(ctx, "u1")
	if err != nil || removed != 0 {
		t.Fatalf("second clear = (%d, %v), want (0, nil)", removed, err)
	}
}

// ---------- Mood ----------

func seedMoodTurns(t *testing.T, db *gorm.DB, userID string, emotions ...string) {
	t.Helper()
	for i, e := range emotions {
		if _, err := repo.CreateTurn(context.Background(), db, userID, fmt.Sprintf("m%d", i), "r", e); err != nil {
			t.Fatalf("seed turn: %v", err)
		}
	}
}

func TestMood_EmptyHistory(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "x")

	got, err := s.Mood(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if got.Summary != "Start chatting to generate mood summary." {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.Tip == "" {
		t.Fatal("empty history still gets a tip")
	}
	if len(got.Timeline) != 0 || len(got.Counts) != 0 {
		t.Fatalf("empty history: %+v", got)
	}
}

func TestMood_PositivityAndBands(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "x")

	// 3 joy + 1 default of 4 turns: (3 + 0.5) / 4 * 100 = 87.5 → high band.
	seedMoodTurns(t, db, "u1", "joy", "joy", "joy", "default")

	got, err := s.Mood(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if got.Positivity != 87.5 {
		t.Fatalf("positivity = %v, want 87.5", got.Positivity)
	}
	if got.Summary != "You're radiating positivity 🌞" {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.DominantEmotion != "Joy" {
		t.Fatalf("dominant = %q, want Joy (title-cased)", got.DominantEmotion)
	}
	if got.Counts["joy"] != 3 || got.Counts["default"] != 1 {
		t.Fatalf("counts = %v", got.Counts)
	}
}

func TestMood_LowBandAndTimelineLevels(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "x")

	seedMoodTurns(t, db, "u1", "sadness", "anger", "sadness")

	got, err := s.Mood(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if got.Positivity != 0 {
		t.Fatalf("positivity = %v, want 0", got.Positivity)
	}
	if got.Summary != "Feeling low — remember, every emotion is valid ❤️" {
		t.Fatalf("summary = %q", got.Summary)
	}
	if len(got.Timeline) != 3 {
		t.Fatalf("timeline len = %d, want 3", len(got.Timeline))
	}
	wantLevels := []int{1, 2, 1}
	for i, p := range got.Timeline {
		if p.Index != i+1 {
			t.Errorf("point %d index = %d", i, p.Index)
		}
		if p.Level != wantLevels[i] {
			t.Errorf("point %d level = %d, want %d", i, p.Level, wantLevels[i])
		}
	}
}

func TestMood_MixedBand(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "x")

	// 1 joy of 2 turns: 50% → middle band.
	seedMoodTurns(t, db, "u1", "joy", "sadness")

	got, err := s.Mood(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if got.Positivity != 50 {
		t.Fatalf("positivity = %v, want 50", got.Positivity)
	}
	if got.Summary != "Mixed emotions — holding steady 💫" {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestMood_WindowCapsTimeline(t *testing.T) {
	db := newTurnDB(t)
	s := newTurnService(db, "joy", "x")

	seedMoodTurns(t, db, "u1", "sadness", "sadness", "joy", "joy", "joy")

	got, err := s.Mood(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if len(got.Timeline) != 2 {
		t.Fatalf("timeline len = %d, want 2", len(got.Timeline))
	}
	// Counts still span the full history.
	if got.Counts["sadness"] != 2 || got.Counts["joy"] != 3 {
		t.Fatalf("counts = %v", got.Counts)
	}
}
