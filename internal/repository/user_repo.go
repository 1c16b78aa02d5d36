package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mood-journal/internal/domain"
)

// ErrNotFound se devuelve cuando la fila buscada no existe.
var ErrNotFound = errors.New("not found")

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePro(ctx context.Context, id string, isPro bool, proUntil *time.Time) error
	UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, is_pro, pro_until, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		nullableString(user.Email),
		user.IsPro,
		user.ProUntil,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, email, is_pro, pro_until, otp_code_hash, otp_expires_at, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, is_pro, pro_until, otp_code_hash, otp_expires_at, created_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdateEmail(ctx context.Context, id, email string) error {
	const query = `UPDATE users SET email = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, nullableString(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) UpdatePro(ctx context.Context, id string, isPro bool, proUntil *time.Time) error {
	const query = `UPDATE users SET is_pro = $2, pro_until = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, isPro, proUntil)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	const query = `UPDATE users SET otp_code_hash = $2, otp_expires_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, otpHash, otpExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) ClearOTP(ctx context.Context, id string) error {
	const query = `UPDATE users SET otp_code_hash = NULL, otp_expires_at = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var email, otpHash *string
	err := row.Scan(
		&u.ID,
		&email,
		&u.IsPro,
		&u.ProUntil,
		&otpHash,
		&u.OtpExpiresAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if email != nil {
		u.Email = *email
	}
	if otpHash != nil {
		u.OtpCodeHash = *otpHash
	}
	return u, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
