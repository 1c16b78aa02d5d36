package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"mood-journal/internal/domain"
)

// EntryRepository persiste entradas del diario con su vector de emociones.
type EntryRepository interface {
	Create(ctx context.Context, entry domain.Entry) (domain.Entry, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Entry, error)
	GetByID(ctx context.Context, userID string, id int64) (domain.Entry, error)
	ListSimilar(ctx context.Context, userID string, vector pgvector.Vector, excludeID int64, k int) ([]domain.Entry, error)
}

type PgEntryRepository struct {
	pool *pgxpool.Pool
}

func NewPgEntryRepository(pool *pgxpool.Pool) *PgEntryRepository {
	return &PgEntryRepository{pool: pool}
}

const entryColumns = `id, user_id, text, top_emotion, top_score, scores_json, score_vector, created_at`

func (r *PgEntryRepository) Create(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	scoresJSON, err := json.Marshal(entry.Scores)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("marshal scores: %w", err)
	}
	const query = `
		INSERT INTO entries (user_id, text, top_emotion, top_score, scores_json, score_vector, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Text,
		entry.TopEmotion,
		entry.TopScore,
		string(scoresJSON),
		entry.ScoreVector,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (r *PgEntryRepository) ListByUser(ctx context.Context, userID string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *PgEntryRepository) GetByID(ctx context.Context, userID string, id int64) (domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = $1 AND id = $2
	`
	rows, err := r.pool.Query(ctx, query, userID, id)
	if err != nil {
		return domain.Entry{}, err
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return domain.Entry{}, err
	}
	if len(entries) == 0 {
		return domain.Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// ListSimilar ordena por distancia L2 sobre score_vector.
func (r *PgEntryRepository) ListSimilar(ctx context.Context, userID string, vector pgvector.Vector, excludeID int64, k int) ([]domain.Entry, error) {
	if k <= 0 {
		k = 5
	}
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = $1 AND id <> $3 AND score_vector IS NOT NULL
		ORDER BY score_vector <-> $2
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, userID, vector, excludeID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var topEmotion *string
		var topScore *float64
		var scoresJSON *string
		var vector *pgvector.Vector
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Text,
			&topEmotion,
			&topScore,
			&scoresJSON,
			&vector,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if topEmotion != nil {
			e.TopEmotion = *topEmotion
		}
		if topScore != nil {
			e.TopScore = *topScore
		}
		e.Scores = map[string]float64{}
		if scoresJSON != nil && *scoresJSON != "" {
			// Un scores_json corrupto no invalida la entrada.
			_ = json.Unmarshal([]byte(*scoresJSON), &e.Scores)
		}
		if vector != nil {
			e.ScoreVector = *vector
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
