package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// tokenRepo keeps at most one session row.
type tokenRepo struct {
	drv *entsql.Driver
}

func (r *tokenRepo) Save(ctx context.Context, t Tokens) error {
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	query, args := builder().Insert("auth_tokens").
		Columns("id", "access_token", "refresh_token", "email", "updated_at").
		Values(1, t.AccessToken, t.RefreshToken, t.Email, t.UpdatedAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.drv.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (r *tokenRepo) Load(ctx context.Context) (*Tokens, error) {
	b := builder()
	query, args := b.Select("access_token", "refresh_token", "email", "updated_at").
		From(b.Table("auth_tokens")).
		Where(entsql.EQ("id", 1)).
		Query()

	var t Tokens
	err := r.drv.DB().QueryRowContext(ctx, query, args...).Scan(&t.AccessToken, &t.RefreshToken, &t.Email, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTokens
	}
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	return &t, nil
}

func (r *tokenRepo) Clear(ctx context.Context) error {
	query, args := builder().Delete("auth_tokens").Where(entsql.EQ("id", 1)).Query()
	if _, err := r.drv.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}
