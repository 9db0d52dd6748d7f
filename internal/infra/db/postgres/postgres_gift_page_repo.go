package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lovepage-backend/internal/domain"
	"lovepage-backend/internal/domain/model"
	"lovepage-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.GiftPageRepository = (*giftPageRepo)(nil)

type giftPageRepo struct {
	pool *pgxpool.Pool
}

func NewGiftPageRepo(pool *pgxpool.Pool) repository.GiftPageRepository {
	return &giftPageRepo{pool: pool}
}

func (r *giftPageRepo) Save(ctx context.Context, tx repository.Tx, p *model.GiftPage) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO gift_pages (id, slug, owner_id, recipient_name, sender_name, letter, music_url, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  slug=$2, recipient_name=$4, sender_name=$5, letter=$6, music_url=$7, is_active=$8;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Slug, p.OwnerID, p.RecipientName, p.SenderName, p.Letter, p.MusicURL, p.IsActive, p.CreatedAt,
	)
	return err
}

func (r *giftPageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GiftPage, error) {
	const q = `
SELECT id, slug, owner_id, recipient_name, sender_name, letter, music_url, is_active, created_at
  FROM gift_pages
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var p model.GiftPage
	err = row.Scan(&p.ID, &p.Slug, &p.OwnerID, &p.RecipientName, &p.SenderName, &p.Letter, &p.MusicURL, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *giftPageRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	const q = `UPDATE gift_pages SET is_active = $2 WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *giftPageRepo) DeactivateAll(ctx context.Context, tx repository.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE gift_pages SET is_active = FALSE WHERE id = ANY($1);`
	_, err := execSQL(ctx, r.pool, tx, q, ids)
	return err
}
