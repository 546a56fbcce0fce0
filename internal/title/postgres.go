package title

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

type pgRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) ByCategory(ctx context.Context, category string) (*domain.Title, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, category, text, is_default, player_id FROM titles WHERE category = $1`, category)
	t, err := scanTitle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select title %q: %w", category, err)
	}
	return t, nil
}

func (r *pgRepository) ByPlayer(ctx context.Context, playerID int64) ([]*domain.Title, error) {
	return r.list(ctx,
		`SELECT id, category, text, is_default, player_id FROM titles WHERE player_id = $1 ORDER BY category`,
		playerID)
}

func (r *pgRepository) List(ctx context.Context) ([]*domain.Title, error) {
	return r.list(ctx,
		`SELECT id, category, text, is_default, player_id FROM titles ORDER BY category`)
}

func (r *pgRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Title, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select titles: %w", err)
	}
	defer rows.Close()
	var out []*domain.Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgRepository) Upsert(ctx context.Context, t *domain.Title) error {
	var holder sql.NullInt64
	if t.PlayerID != 0 {
		holder = sql.NullInt64{Int64: t.PlayerID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO titles (category, text, is_default, player_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category) DO UPDATE
		SET text = EXCLUDED.text, is_default = EXCLUDED.is_default, player_id = EXCLUDED.player_id
		RETURNING id`,
		t.Category, t.Text, t.Default, holder).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("upsert title %q: %w", t.Category, err)
	}
	return nil
}

func (r *pgRepository) CustomTitles(ctx context.Context, playerID int64) ([]*domain.CustomTitle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, player_id, text FROM custom_titles WHERE player_id = $1 ORDER BY id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("select custom titles: %w", err)
	}
	defer rows.Close()
	var out []*domain.CustomTitle
	for rows.Next() {
		var ct domain.CustomTitle
		if err := rows.Scan(&ct.ID, &ct.PlayerID, &ct.Text); err != nil {
			return nil, fmt.Errorf("scan custom title: %w", err)
		}
		out = append(out, &ct)
	}
	return out, rows.Err()
}

func (r *pgRepository) AddCustomTitle(ctx context.Context, playerID int64, text string) (*domain.CustomTitle, error) {
	ct := &domain.CustomTitle{PlayerID: playerID, Text: text}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO custom_titles (player_id, text) VALUES ($1, $2) RETURNING id`,
		playerID, text).Scan(&ct.ID)
	if err != nil {
		return nil, fmt.Errorf("insert custom title: %w", err)
	}
	return ct, nil
}

func (r *pgRepository) RemoveCustomTitle(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_titles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete custom title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTitleNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTitle(s rowScanner) (*domain.Title, error) {
	var t domain.Title
	var holder sql.NullInt64
	if err := s.Scan(&t.ID, &t.Category, &t.Text, &t.Default, &holder); err != nil {
		return nil, err
	}
	if holder.Valid {
		t.PlayerID = holder.Int64
	}
	return &t, nil
}
