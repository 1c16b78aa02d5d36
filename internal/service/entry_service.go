package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"mood-journal/internal/domain"
	"mood-journal/internal/emotion"
	"mood-journal/internal/hf"
	"mood-journal/internal/repository"
)

var (
	ErrEmptyText     = errors.New("text is required")
	ErrEntryNotFound = errors.New("entry not found")
)

// maxEntryLength se cuenta en caracteres, no en bytes.
const maxEntryLength = 5000

// EntryService puntua y persiste entradas del diario.
type EntryService struct {
	logger     *zap.Logger
	entries    repository.EntryRepository
	classifier hf.Classifier
	limiter    RateLimiter
	now        func() time.Time
}

// NewEntryService acepta classifier nil; en ese caso siempre se usa la heuristica local.
func NewEntryService(logger *zap.Logger, entries repository.EntryRepository, classifier hf.Classifier, limiter RateLimiter) *EntryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{
		logger:     logger,
		entries:    entries,
		classifier: classifier,
		limiter:    limiter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *EntryService) Create(ctx context.Context, userID, text string) (domain.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Entry{}, ErrEmptyText
	}
	text = truncateRunes(text, maxEntryLength)
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return domain.Entry{}, ErrRateLimited
	}

	result := s.score(ctx, text)
	entry := domain.Entry{
		UserID:      userID,
		Text:        text,
		TopEmotion:  result.TopLabel,
		TopScore:    result.TopScore,
		Scores:      result.Scores,
		ScoreVector: pgvector.NewVector(emotion.ScoreVector(result.Scores)),
		CreatedAt:   s.now(),
	}
	saved, err := s.entries.Create(ctx, entry)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return saved, nil
}

// score nunca falla: cualquier error del modelo remoto cae en la heuristica.
func (s *EntryService) score(ctx context.Context, text string) emotion.Result {
	if s.classifier != nil {
		result, err := s.classifier.Classify(ctx, text)
		if err == nil && result.TopLabel != "" {
			return result
		}
		if err != nil {
			s.logger.Warn("remote classifier failed, using heuristic", zap.Error(err))
		}
	}
	return emotion.Heuristic(text)
}

func (s *EntryService) List(ctx context.Context, userID string) ([]domain.Entry, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// Similar devuelve las k entradas del usuario mas cercanas por vector de emociones.
func (s *EntryService) Similar(ctx context.Context, userID string, entryID int64, k int) ([]domain.Entry, error) {
	if k <= 0 || k > 50 {
		k = 5
	}
	anchor, err := s.entries.GetByID(ctx, userID, entryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	vector := anchor.ScoreVector
	if len(vector.Slice()) == 0 {
		vector = pgvector.NewVector(emotion.ScoreVector(anchor.Scores))
	}
	similar, err := s.entries.ListSimilar(ctx, userID, vector, anchor.ID, k)
	if err != nil {
		return nil, fmt.Errorf("list similar: %w", err)
	}
	if similar == nil {
		similar = []domain.Entry{}
	}
	return similar, nil
}

// truncateRunes corta text a max caracteres sin partir una secuencia UTF-8.
func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	offset := 0
	for i := 0; i < max; i++ {
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}
	return text[:offset]
}
