package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

func (r *activationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	const q = `
INSERT INTO activation_codes (id, code, is_active, uses_remaining, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  is_active = EXCLUDED.is_active,
  uses_remaining = EXCLUDED.uses_remaining,
  expires_at = EXCLUDED.expires_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.IsActive, code.UsesRemaining, code.ExpiresAt, code.CreatedAt,
	)
	return err
}

// FindActiveByCode matches the trimmed code case-insensitively against
// active codes only.
func (r *activationCodeRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	const q = `
SELECT id, code, is_active, uses_remaining, expires_at, created_at
  FROM activation_codes
 WHERE LOWER(code) = LOWER($1) AND is_active = TRUE;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	var ac model.ActivationCode
	err = row.Scan(&ac.ID, &ac.Code, &ac.IsActive, &ac.UsesRemaining, &ac.ExpiresAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &ac, nil
}

// DecrementUses is the atomic conditional decrement: two concurrent
// redemptions of a one-use code cannot both pass, because only the
// update that still sees uses_remaining > 0 matches a row.
func (r *activationCodeRepo) DecrementUses(ctx context.Context, tx repository.Tx, codeID string) error {
	const q = `
UPDATE activation_codes
   SET uses_remaining = uses_remaining - 1
 WHERE id = $1 AND uses_remaining IS NOT NULL AND uses_remaining > 0;`
	cmd, err := execSQL(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCodeExhausted
	}
	return nil
}

func (r *activationCodeRepo) InsertUsage(ctx context.Context, tx repository.Tx, usage *model.ActivationCodeUsage) error {
	if usage.ID == "" {
		usage.ID = uuid.NewString()
	}
	const q = `
INSERT INTO activation_code_usages (id, code_id, gift_page_id, used_at)
VALUES ($1, $2, $3, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, usage.ID, usage.CodeID, usage.GiftPageID, usage.UsedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// unique_violation on gift_page_id IS the business outcome:
		// the page already redeemed a code.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrCodeAlreadyUsed
		}
		return err
	}
	return nil
}

func (r *activationCodeRepo) FindUsageByGiftPageID(ctx context.Context, tx repository.Tx, giftPageID string) (*model.ActivationCodeUsage, error) {
	const q = `
SELECT id, code_id, gift_page_id, used_at
  FROM activation_code_usages
 WHERE gift_page_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, giftPageID)
	if err != nil {
		return nil, err
	}
	var u model.ActivationCodeUsage
	err = row.Scan(&u.ID, &u.CodeID, &u.GiftPageID, &u.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}
