package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mood-journal/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	GetByTxRef(ctx context.Context, txRef string) (domain.Payment, error)
	// UpdateResult no toca pagos ya successful; applied es false en ese caso.
	UpdateResult(ctx context.Context, txRef, flwTxID, status, rawJSON string) (applied bool, err error)
}

type PgPaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPgPaymentRepository(pool *pgxpool.Pool) *PgPaymentRepository {
	return &PgPaymentRepository{pool: pool}
}

func (r *PgPaymentRepository) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	const query = `
		INSERT INTO payments (user_id, tx_ref, flw_tx_id, status, amount, currency, raw_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		p.UserID,
		p.TxRef,
		nullableString(p.FlwTxID),
		p.Status,
		p.Amount,
		p.Currency,
		nullableString(p.RawJSON),
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *PgPaymentRepository) GetByTxRef(ctx context.Context, txRef string) (domain.Payment, error) {
	const query = `
		SELECT id, user_id, tx_ref, flw_tx_id, status, amount, currency, raw_json, created_at
		FROM payments
		WHERE tx_ref = $1
	`
	var p domain.Payment
	var flwTxID, rawJSON, currency *string
	var amount *float64
	err := r.pool.QueryRow(ctx, query, txRef).Scan(
		&p.ID,
		&p.UserID,
		&p.TxRef,
		&flwTxID,
		&p.Status,
		&amount,
		&currency,
		&rawJSON,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Payment{}, ErrNotFound
	}
	if err != nil {
		return domain.Payment{}, err
	}
	if flwTxID != nil {
		p.FlwTxID = *flwTxID
	}
	if rawJSON != nil {
		p.RawJSON = *rawJSON
	}
	if currency != nil {
		p.Currency = *currency
	}
	if amount != nil {
		p.Amount = *amount
	}
	return p, nil
}

func (r *PgPaymentRepository) UpdateResult(ctx context.Context, txRef, flwTxID, status, rawJSON string) (bool, error) {
	const query = `
		UPDATE payments
		SET flw_tx_id = $2, status = $3, raw_json = $4
		WHERE tx_ref = $1 AND status <> 'successful'
	`
	tag, err := r.pool.Exec(ctx, query, txRef, nullableString(flwTxID), status, rawJSON)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
