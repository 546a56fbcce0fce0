package rating

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

type pgRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ledger backed by the shared Postgres handle.
func NewPostgresRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) ApplyDeltas(ctx context.Context, deltas []domain.RatingDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply deltas: %w", err)
	}
	for _, d := range deltas {
		if err := applyDelta(ctx, tx, d); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply delta %s: %w", d.Subject.Kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply deltas: %w", err)
	}
	return nil
}

// applyDelta upserts one counter row, accumulating on conflict so that rating
// stays the sum of all applied deltas since the last reset.
func applyDelta(ctx context.Context, tx *sql.Tx, d domain.RatingDelta) error {
	wins, losses := 0, 0
	if d.Win {
		wins = 1
	} else {
		losses = 1
	}
	var wt domain.WinTypeCounts
	if d.Win && d.Subject.Kind.TracksWinTypes() {
		wt.Add(d.WinType, 1)
	}

	switch d.Subject.Kind {
	case domain.SubjectPlayerOverall:
		const q = `
			INSERT INTO player_overall_ratings (
				player_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (player_id) DO UPDATE SET
				rating = player_overall_ratings.rating + EXCLUDED.rating,
				wins = player_overall_ratings.wins + EXCLUDED.wins,
				losses = player_overall_ratings.losses + EXCLUDED.losses,
				prestige_wins = player_overall_ratings.prestige_wins + EXCLUDED.prestige_wins,
				elimination_wins = player_overall_ratings.elimination_wins + EXCLUDED.elimination_wins,
				attrition_wins = player_overall_ratings.attrition_wins + EXCLUDED.attrition_wins,
				artifact_wins = player_overall_ratings.artifact_wins + EXCLUDED.artifact_wins`
		_, err := tx.ExecContext(ctx, q, d.Subject.PlayerID, d.Points, wins, losses,
			wt.Prestige, wt.Elimination, wt.Attrition, wt.Artifact)
		return err
	case domain.SubjectPlayerCharacter:
		const q = `
			INSERT INTO player_character_ratings (
				player_id, character_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (player_id, character_id) DO UPDATE SET
				rating = player_character_ratings.rating + EXCLUDED.rating,
				wins = player_character_ratings.wins + EXCLUDED.wins,
				losses = player_character_ratings.losses + EXCLUDED.losses,
				prestige_wins = player_character_ratings.prestige_wins + EXCLUDED.prestige_wins,
				elimination_wins = player_character_ratings.elimination_wins + EXCLUDED.elimination_wins,
				attrition_wins = player_character_ratings.attrition_wins + EXCLUDED.attrition_wins,
				artifact_wins = player_character_ratings.artifact_wins + EXCLUDED.artifact_wins`
		_, err := tx.ExecContext(ctx, q, d.Subject.PlayerID, d.Subject.CharacterID, d.Points, wins, losses,
			wt.Prestige, wt.Elimination, wt.Attrition, wt.Artifact)
		return err
	case domain.SubjectPlayerFaction:
		const q = `
			INSERT INTO player_faction_ratings (
				player_id, faction_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (player_id, faction_id) DO UPDATE SET
				rating = player_faction_ratings.rating + EXCLUDED.rating,
				wins = player_faction_ratings.wins + EXCLUDED.wins,
				losses = player_faction_ratings.losses + EXCLUDED.losses,
				prestige_wins = player_faction_ratings.prestige_wins + EXCLUDED.prestige_wins,
				elimination_wins = player_faction_ratings.elimination_wins + EXCLUDED.elimination_wins,
				attrition_wins = player_faction_ratings.attrition_wins + EXCLUDED.attrition_wins,
				artifact_wins = player_faction_ratings.artifact_wins + EXCLUDED.artifact_wins`
		_, err := tx.ExecContext(ctx, q, d.Subject.PlayerID, d.Subject.FactionID, d.Points, wins, losses,
			wt.Prestige, wt.Elimination, wt.Attrition, wt.Artifact)
		return err
	case domain.SubjectCharacter:
		const q = `
			INSERT INTO character_ratings (character_id, rating, wins, losses)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (character_id) DO UPDATE SET
				rating = character_ratings.rating + EXCLUDED.rating,
				wins = character_ratings.wins + EXCLUDED.wins,
				losses = character_ratings.losses + EXCLUDED.losses`
		_, err := tx.ExecContext(ctx, q, d.Subject.CharacterID, d.Points, wins, losses)
		return err
	case domain.SubjectFaction:
		const q = `
			INSERT INTO faction_ratings (faction_id, rating, wins, losses)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (faction_id) DO UPDATE SET
				rating = faction_ratings.rating + EXCLUDED.rating,
				wins = faction_ratings.wins + EXCLUDED.wins,
				losses = faction_ratings.losses + EXCLUDED.losses`
		_, err := tx.ExecContext(ctx, q, d.Subject.FactionID, d.Points, wins, losses)
		return err
	}
	return fmt.Errorf("unknown subject kind %d", d.Subject.Kind)
}

func (r *pgRepository) ResetAll(ctx context.Context) error {
	tables := []string{
		"player_overall_ratings",
		"player_character_ratings",
		"player_faction_ratings",
		"character_ratings",
		"faction_ratings",
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

func (r *pgRepository) ResetPlayer(ctx context.Context, playerID int64) error {
	tables := []string{
		"player_overall_ratings",
		"player_character_ratings",
		"player_faction_ratings",
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset player: %w", err)
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+" WHERE player_id = $1", playerID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset player %s: %w", t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset player: %w", err)
	}
	return nil
}

func (r *pgRepository) Row(ctx context.Context, key domain.SubjectKey) (*domain.RatingRow, error) {
	switch key.Kind {
	case domain.SubjectPlayerOverall:
		const q = `
			SELECT player_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			FROM player_overall_ratings WHERE player_id = $1`
		return r.scanPlayerRow(ctx, key.Kind, q, key.PlayerID)
	case domain.SubjectPlayerCharacter:
		const q = `
			SELECT player_id, character_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			FROM player_character_ratings WHERE player_id = $1 AND character_id = $2`
		return r.scanScopedRow(ctx, key.Kind, q, key.PlayerID, key.CharacterID)
	case domain.SubjectPlayerFaction:
		const q = `
			SELECT player_id, faction_id, rating, wins, losses,
				prestige_wins, elimination_wins, attrition_wins, artifact_wins
			FROM player_faction_ratings WHERE player_id = $1 AND faction_id = $2`
		return r.scanScopedRow(ctx, key.Kind, q, key.PlayerID, key.FactionID)
	case domain.SubjectCharacter:
		const q = `SELECT character_id, rating, wins, losses FROM character_ratings WHERE character_id = $1`
		return r.scanGlobalRow(ctx, key.Kind, q, key.CharacterID)
	case domain.SubjectFaction:
		const q = `SELECT faction_id, rating, wins, losses FROM faction_ratings WHERE faction_id = $1`
		return r.scanGlobalRow(ctx, key.Kind, q, key.FactionID)
	}
	return nil, fmt.Errorf("unknown subject kind %d", key.Kind)
}

func (r *pgRepository) scanPlayerRow(ctx context.Context, kind domain.SubjectKind, query string, args ...any) (*domain.RatingRow, error) {
	row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.Subject.PlayerID, &row.Rating, &row.Wins, &row.Losses,
		&row.WinTypes.Prestige, &row.WinTypes.Elimination, &row.WinTypes.Attrition, &row.WinTypes.Artifact,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s row: %w", kind, err)
	}
	return &row, nil
}

func (r *pgRepository) scanScopedRow(ctx context.Context, kind domain.SubjectKind, query string, args ...any) (*domain.RatingRow, error) {
	row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
	second := &row.Subject.CharacterID
	if kind == domain.SubjectPlayerFaction {
		second = &row.Subject.FactionID
	}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.Subject.PlayerID, second, &row.Rating, &row.Wins, &row.Losses,
		&row.WinTypes.Prestige, &row.WinTypes.Elimination, &row.WinTypes.Attrition, &row.WinTypes.Artifact,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s row: %w", kind, err)
	}
	return &row, nil
}

func (r *pgRepository) scanGlobalRow(ctx context.Context, kind domain.SubjectKind, query string, args ...any) (*domain.RatingRow, error) {
	row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
	id := &row.Subject.CharacterID
	if kind == domain.SubjectFaction {
		id = &row.Subject.FactionID
	}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(id, &row.Rating, &row.Wins, &row.Losses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s row: %w", kind, err)
	}
	return &row, nil
}

func (r *pgRepository) TopPlayers(ctx context.Context, limit, offset int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT player_id, rating, wins, losses,
			prestige_wins, elimination_wins, attrition_wins, artifact_wins
		FROM player_overall_ratings
		ORDER BY rating DESC, player_id ASC
		LIMIT $1 OFFSET $2`
	return r.queryPlayerRows(ctx, domain.SubjectPlayerOverall, q, limit, offset)
}

func (r *pgRepository) TopPlayersByCharacter(ctx context.Context, characterID int64, limit int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT player_id, character_id, rating, wins, losses,
			prestige_wins, elimination_wins, attrition_wins, artifact_wins
		FROM player_character_ratings
		WHERE character_id = $1
		ORDER BY rating DESC, player_id ASC
		LIMIT $2`
	return r.queryScopedRows(ctx, domain.SubjectPlayerCharacter, q, characterID, limit)
}

func (r *pgRepository) TopPlayersByFaction(ctx context.Context, factionID int64, limit int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT player_id, faction_id, rating, wins, losses,
			prestige_wins, elimination_wins, attrition_wins, artifact_wins
		FROM player_faction_ratings
		WHERE faction_id = $1
		ORDER BY rating DESC, player_id ASC
		LIMIT $2`
	return r.queryScopedRows(ctx, domain.SubjectPlayerFaction, q, factionID, limit)
}

func (r *pgRepository) TopCharacters(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT character_id, rating, wins, losses
		FROM character_ratings
		ORDER BY rating DESC, character_id ASC
		LIMIT $1`
	return r.queryGlobalRows(ctx, domain.SubjectCharacter, q, limit)
}

func (r *pgRepository) TopFactions(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT faction_id, rating, wins, losses
		FROM faction_ratings
		ORDER BY rating DESC, faction_id ASC
		LIMIT $1`
	return r.queryGlobalRows(ctx, domain.SubjectFaction, q, limit)
}

func (r *pgRepository) PlayerCharacterRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error) {
	const q = `
		SELECT player_id, character_id, rating, wins, losses,
			prestige_wins, elimination_wins, attrition_wins, artifact_wins
		FROM player_character_ratings
		WHERE player_id = $1
		ORDER BY rating DESC, character_id ASC`
	return r.queryScopedRows(ctx, domain.SubjectPlayerCharacter, q, playerID)
}

func (r *pgRepository) PlayerFactionRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error) {
	const q = `
		SELECT player_id, faction_id, rating, wins, losses,
			prestige_wins, elimination_wins, attrition_wins, artifact_wins
		FROM player_faction_ratings
		WHERE player_id = $1
		ORDER BY rating DESC, faction_id ASC`
	return r.queryScopedRows(ctx, domain.SubjectPlayerFaction, q, playerID)
}

func (r *pgRepository) OverallPosition(ctx context.Context, playerID int64) (int, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM player_overall_ratings`).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count overall rows: %w", err)
	}
	var rating sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT rating FROM player_overall_ratings WHERE player_id = $1`, playerID).Scan(&rating)
	if err == sql.ErrNoRows {
		return 0, total, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("select player rating: %w", err)
	}
	var higher int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM player_overall_ratings
		WHERE rating > $1 OR (rating = $1 AND player_id < $2)`,
		rating.Int64, playerID).Scan(&higher)
	if err != nil {
		return 0, 0, fmt.Errorf("count higher ranked: %w", err)
	}
	return higher + 1, total, nil
}

func (r *pgRepository) WinTypeTotals(ctx context.Context) (domain.WinTypeCounts, error) {
	var wt domain.WinTypeCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(prestige_wins), 0), COALESCE(SUM(elimination_wins), 0),
			COALESCE(SUM(attrition_wins), 0), COALESCE(SUM(artifact_wins), 0)
		FROM player_overall_ratings`).
		Scan(&wt.Prestige, &wt.Elimination, &wt.Attrition, &wt.Artifact)
	if err != nil {
		return domain.WinTypeCounts{}, fmt.Errorf("sum win type totals: %w", err)
	}
	return wt, nil
}

func (r *pgRepository) queryPlayerRows(ctx context.Context, kind domain.SubjectKind, query string, args ...any) ([]domain.RatingRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s rows: %w", kind, err)
	}
	defer rows.Close()
	var out []domain.RatingRow
	for rows.Next() {
		row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
		if err := rows.Scan(
			&row.Subject.PlayerID, &row.Rating, &row.Wins, &row.Losses,
			&row.WinTypes.Prestige, &row.WinTypes.Elimination, &row.WinTypes.Attrition, &row.WinTypes.Artifact,
		); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", kind, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *pgRepository) queryScopedRows(ctx context.Context, kind domain.SubjectKind, query string, args ...any) ([]domain.RatingRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s rows: %w", kind, err)
	}
	defer rows.Close()
	var out []domain.RatingRow
	for rows.Next() {
		row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
		second := &row.Subject.CharacterID
		if kind == domain.SubjectPlayerFaction {
			second = &row.Subject.FactionID
		}
		if err := rows.Scan(
			&row.Subject.PlayerID, second, &row.Rating, &row.Wins, &row.Losses,
			&row.WinTypes.Prestige, &row.WinTypes.Elimination, &row.WinTypes.Attrition, &row.WinTypes.Artifact,
		); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", kind, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *pgRepository) queryGlobalRows(ctx context.Context, kind domain.SubjectKind, query string, args ...any) ([]domain.RatingRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s rows: %w", kind, err)
	}
	defer rows.Close()
	var out []domain.RatingRow
	for rows.Next() {
		row := domain.RatingRow{Subject: domain.SubjectKey{Kind: kind}}
		id := &row.Subject.CharacterID
		if kind == domain.SubjectFaction {
			id = &row.Subject.FactionID
		}
		if err := rows.Scan(id, &row.Rating, &row.Wins, &row.Losses); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", kind, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
