package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"mood-journal/internal/repository"
)

// ErrProRequired se devuelve cuando la funcion exige un plan PRO vigente.
var ErrProRequired = errors.New("pro plan required")

var exportHeader = []string{"id", "created_at", "top_emotion", "top_score", "scores_json"}

// ExportService genera el CSV del diario para usuarios PRO.
type ExportService struct {
	users   repository.UserRepository
	entries repository.EntryRepository
	now     func() time.Time
}

func NewExportService(users repository.UserRepository, entries repository.EntryRepository) *ExportService {
	return &ExportService{
		users:   users,
		entries: entries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Authorize se separa de WriteCSV para que el handler pueda responder 402 antes de escribir headers.
func (s *ExportService) Authorize(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !user.HasActivePro(s.now()) {
		return ErrProRequired
	}
	return nil
}

func (s *ExportService) WriteCSV(ctx context.Context, userID string, w io.Writer) error {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		scores := e.Scores
		if scores == nil {
			scores = map[string]float64{}
		}
		scoresJSON, err := json.Marshal(scores)
		if err != nil {
			return fmt.Errorf("marshal scores: %w", err)
		}
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.TopEmotion,
			strconv.FormatFloat(e.TopScore, 'f', -1, 64),
			string(scoresJSON),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
