package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepo(pool *pgxpool.Pool) repository.EntitlementRepository {
	return &entitlementRepo{pool: pool}
}

// Upsert keys on gift_page_id: the redirect path and the webhook may
// both fire for the same payment, and a second payment for a page must
// overwrite the previous row, never duplicate it.
func (r *entitlementRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `
INSERT INTO entitlements (id, gift_page_id, session_id, customer_id, status, paid_at, expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (gift_page_id) DO UPDATE SET
  session_id = EXCLUDED.session_id,
  customer_id = EXCLUDED.customer_id,
  status = EXCLUDED.status,
  paid_at = EXCLUDED.paid_at,
  expires_at = EXCLUDED.expires_at,
  updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.GiftPageID, e.SessionID, e.CustomerID, e.Status, e.PaidAt, e.ExpiresAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *entitlementRepo) FindByGiftPageID(ctx context.Context, tx repository.Tx, giftPageID string) (*model.Entitlement, error) {
	const q = `
SELECT id, gift_page_id, session_id, customer_id, status, paid_at, expires_at, created_at, updated_at
  FROM entitlements
 WHERE gift_page_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, giftPageID)
	if err != nil {
		return nil, err
	}
	return scanEntitlement(row)
}

func (r *entitlementRepo) FindExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Entitlement, error) {
	const q = `
SELECT id, gift_page_id, session_id, customer_id, status, paid_at, expires_at, created_at, updated_at
  FROM entitlements
 WHERE status = 'active' AND expires_at < $1
 ORDER BY expires_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *entitlementRepo) ExpireAll(ctx context.Context, tx repository.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
UPDATE entitlements
   SET status = 'expired', updated_at = NOW()
 WHERE id = ANY($1) AND status = 'active';`
	_, err := execSQL(ctx, r.pool, tx, q, ids)
	return err
}

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	var e model.Entitlement
	err := row.Scan(&e.ID, &e.GiftPageID, &e.SessionID, &e.CustomerID, &e.Status, &e.PaidAt, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &e, nil
}
