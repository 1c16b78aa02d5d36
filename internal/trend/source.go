package trend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mood-journal/internal/domain"
)

// EntryLister es la parte del repositorio de entradas que usa RepositorySource.
type EntryLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Entry, error)
}

// RepositorySource lee las entradas de un usuario directamente del repositorio.
type RepositorySource struct {
	repo   EntryLister
	userID string
}

func NewRepositorySource(repo EntryLister, userID string) *RepositorySource {
	return &RepositorySource{repo: repo, userID: userID}
}

func (s *RepositorySource) ListEntries(ctx context.Context) ([]domain.MoodEntry, error) {
	entries, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list entries for user %s: %w", s.userID, err)
	}
	out := make([]domain.MoodEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Mood()
	}
	return out, nil
}

// HTTPSource consulta GET /entries de la API del diario.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSource(baseURL, token string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type entriesResponse struct {
	OK      bool        `json:"ok"`
	Entries []wireEntry `json:"entries"`
	Error   string      `json:"error,omitempty"`
}

// wireEntry acepta campos ausentes o con tipos inesperados; la coercion ocurre en mood().
type wireEntry struct {
	ID         int64           `json:"id"`
	CreatedAt  string          `json:"created_at"`
	TopEmotion json.RawMessage `json:"top_emotion"`
	TopScore   json.RawMessage `json:"top_score"`
}

func (w wireEntry) mood() domain.MoodEntry {
	return domain.MoodEntry{
		ID:         w.ID,
		CreatedAt:  parseTimestamp(w.CreatedAt),
		TopEmotion: coerceLabel(w.TopEmotion),
		TopScore:   coerceScore(w.TopScore),
	}
}

func (s *HTTPSource) ListEntries(ctx context.Context) ([]domain.MoodEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/entries", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("entries http error: status=%d", resp.StatusCode)
	}

	var parsed entriesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal entries: %w", err)
	}
	out := make([]domain.MoodEntry, len(parsed.Entries))
	for i, w := range parsed.Entries {
		out[i] = w.mood()
	}
	return out, nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func coerceLabel(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func coerceScore(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}
