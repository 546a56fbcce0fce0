package match

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

type pgRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetOrCreatePlayer(ctx context.Context, handle string) (*domain.Player, error) {
	const q = `
		INSERT INTO players (handle) VALUES ($1)
		ON CONFLICT (handle) DO UPDATE SET handle = EXCLUDED.handle
		RETURNING id, chat_id, handle, created_at`
	var p domain.Player
	if err := r.db.QueryRowContext(ctx, q, handle).Scan(&p.ID, &p.ChatID, &p.Handle, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("get or create player %q: %w", handle, err)
	}
	return &p, nil
}

func (r *pgRepository) PlayerByID(ctx context.Context, id int64) (*domain.Player, error) {
	return r.onePlayer(ctx, `SELECT id, chat_id, handle, created_at FROM players WHERE id = $1`, id)
}

func (r *pgRepository) PlayerByHandle(ctx context.Context, handle string) (*domain.Player, error) {
	return r.onePlayer(ctx, `SELECT id, chat_id, handle, created_at FROM players WHERE handle = $1`, handle)
}

func (r *pgRepository) PlayerByChatID(ctx context.Context, chatID string) (*domain.Player, error) {
	return r.onePlayer(ctx, `SELECT id, chat_id, handle, created_at FROM players WHERE chat_id = $1`, chatID)
}

func (r *pgRepository) onePlayer(ctx context.Context, query string, arg any) (*domain.Player, error) {
	var p domain.Player
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.ChatID, &p.Handle, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select player: %w", err)
	}
	return &p, nil
}

func (r *pgRepository) LinkChatID(ctx context.Context, playerID int64, chatID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET chat_id = $1 WHERE id = $2`, chatID, playerID)
	if err != nil {
		return fmt.Errorf("link chat id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (r *pgRepository) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, chat_id, handle, created_at FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	defer rows.Close()
	var out []*domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.ChatID, &p.Handle, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *pgRepository) InsertMatch(ctx context.Context, m *domain.Match) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("nil match payload")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert match: %w", err)
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO matches (ts, screenshot, win_type) VALUES ($1, $2, $3) RETURNING id`,
		ts, m.Screenshot, string(m.WinType)).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert match: %w", err)
	}
	for i := range m.Participants {
		p := &m.Participants[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO match_participants (match_id, player_id, character_id, is_winner, win_type, score)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			id, p.PlayerID, p.CharacterID, p.IsWinner, string(p.WinType), p.Score).Scan(&p.ID)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert participant: %w", err)
		}
		p.MatchID = id
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert match: %w", err)
	}
	m.ID = id
	m.Timestamp = ts
	return id, nil
}

func (r *pgRepository) GetMatch(ctx context.Context, id int64) (*domain.Match, error) {
	var m domain.Match
	var winType string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, ts, screenshot, win_type FROM matches WHERE id = $1`, id).
		Scan(&m.ID, &m.Timestamp, &m.Screenshot, &winType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select match: %w", err)
	}
	m.WinType = domain.WinType(winType)
	if err := r.loadParticipants(ctx, []*domain.Match{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgRepository) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	// participants go with the match via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return n > 0, nil
}

func (r *pgRepository) ListMatches(ctx context.Context) ([]*domain.Match, error) {
	return r.listMatches(ctx,
		`SELECT id, ts, screenshot, win_type FROM matches ORDER BY ts ASC, id ASC`)
}

func (r *pgRepository) ListMatchesByPlayer(ctx context.Context, playerID int64) ([]*domain.Match, error) {
	return r.listMatches(ctx, `
		SELECT m.id, m.ts, m.screenshot, m.win_type
		FROM matches m
		JOIN match_participants p ON p.match_id = m.id
		WHERE p.player_id = $1
		ORDER BY m.ts ASC, m.id ASC`, playerID)
}

func (r *pgRepository) listMatches(ctx context.Context, query string, args ...any) ([]*domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	defer rows.Close()
	var out []*domain.Match
	for rows.Next() {
		var m domain.Match
		var winType string
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Screenshot, &winType); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.WinType = domain.WinType(winType)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgRepository) loadParticipants(ctx context.Context, matches []*domain.Match) error {
	byID := make(map[int64]*domain.Match, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	if len(byID) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, player_id, character_id, is_winner, win_type, score
		FROM match_participants
		WHERE match_id = ANY($1)
		ORDER BY id ASC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("select participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Participant
		var winType string
		if err := rows.Scan(&p.ID, &p.MatchID, &p.PlayerID, &p.CharacterID, &p.IsWinner, &winType, &p.Score); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		p.WinType = domain.WinType(winType)
		if m, ok := byID[p.MatchID]; ok {
			m.Participants = append(m.Participants, p)
		}
	}
	return rows.Err()
}
