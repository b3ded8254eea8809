package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oupafamilly/oupafamilly/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotScheduled = errors.New("match is not in scheduled state")
)

type MatchRepository interface {
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error)
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
	CompleteMatch(ctx context.Context, id, winnerID string, p1Score, p2Score int, notes *string, completedAt time.Time) error
	SetSlot(ctx context.Context, id string, slot int, participantID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, round_number, match_number, player1_id, player2_id,
	winner_id, player1_score, player2_score, status, scheduled_time, completed_at, notes,
	created_at, updated_at`

// CreateBatch inserts a generated bracket in one transaction so a partial
// bracket is never visible.
func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (id, tournament_id, round_number, match_number, player1_id, player2_id, status, scheduled_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	for _, m := range matches {
		err := tx.QueryRowContext(ctx, query,
			m.ID,
			m.TournamentID,
			m.RoundNumber,
			m.MatchNumber,
			m.Player1ID,
			m.Player2ID,
			m.Status,
			m.ScheduledAt,
		).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bracket: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	m := &models.Match{}
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	if err := scanMatch(row, m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to find match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round_number, match_number`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := []*models.Match{}
	for rows.Next() {
		m := &models.Match{}
		if err := scanMatch(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// CompleteMatch records a result. The scheduled-state guard lives in the WHERE
// clause so a concurrent second submission loses cleanly.
func (r *postgresMatchRepository) CompleteMatch(ctx context.Context, id, winnerID string, p1Score, p2Score int, notes *string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET winner_id = $1, player1_score = $2, player2_score = $3, notes = $4,
			status = $5, completed_at = $6, updated_at = now()
		WHERE id = $7 AND status = $8`,
		winnerID, p1Score, p2Score, notes,
		models.MatchCompleted, completedAt, id, models.MatchScheduled)
	if err != nil {
		return fmt.Errorf("failed to complete match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing match from a state conflict.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrMatchNotScheduled
	}
	return nil
}

func (r *postgresMatchRepository) SetSlot(ctx context.Context, id string, slot int, participantID string) error {
	column := "player1_id"
	if slot == 2 {
		column = "player2_id"
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET `+column+` = $1, updated_at = now() WHERE id = $2`,
		participantID, id)
	if err != nil {
		return fmt.Errorf("failed to set match slot: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func scanMatch(s interface{ Scan(dest ...interface{}) error }, m *models.Match) error {
	return s.Scan(
		&m.ID,
		&m.TournamentID,
		&m.RoundNumber,
		&m.MatchNumber,
		&m.Player1ID,
		&m.Player2ID,
		&m.WinnerID,
		&m.Player1Score,
		&m.Player2Score,
		&m.Status,
		&m.ScheduledAt,
		&m.CompletedAt,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
