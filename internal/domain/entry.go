package domain

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Entry es una entrada del diario ya clasificada en el servidor.
type Entry struct {
	ID          int64              `json:"id"`
	UserID      string             `json:"-"`
	Text        string             `json:"text,omitempty"`
	TopEmotion  string             `json:"top_emotion"`
	TopScore    float64            `json:"top_score"`
	Scores      map[string]float64 `json:"scores"`
	ScoreVector pgvector.Vector    `json:"-"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Mood proyecta la entrada al registro que consume el pipeline de tendencia.
func (e Entry) Mood() MoodEntry {
	return MoodEntry{
		ID:         e.ID,
		CreatedAt:  e.CreatedAt,
		TopEmotion: e.TopEmotion,
		TopScore:   e.TopScore,
	}
}

// MoodEntry es el registro minimo para graficar: inmutable una vez leido.
type MoodEntry struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	TopEmotion string    `json:"top_emotion"`
	TopScore   float64   `json:"top_score"`
}
