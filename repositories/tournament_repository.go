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
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrParticipantConflict = errors.New("participant is already registered for this tournament")
	ErrParticipantMissing  = errors.New("participant registration not found")
)

type TournamentFilter struct {
	Status *models.TournamentStatus
	Game   *models.Game
	Limit  int
	Offset int
}

// ParticipantRecord is a registered entry as stored, before display resolution.
type ParticipantRecord struct {
	ParticipantID string
	IsTeam        bool
	RegisteredAt  time.Time
}

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error
	Complete(ctx context.Context, id string, winnerID string, endedAt time.Time) error
	AddParticipant(ctx context.Context, tournamentID, participantID string, isTeam bool) error
	RemoveParticipant(ctx context.Context, tournamentID, participantID string) error
	ListParticipants(ctx context.Context, tournamentID string) ([]ParticipantRecord, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, title, description, game, tournament_type, match_format,
	max_participants, status, registration_start, registration_end, tournament_start,
	tournament_end, rules, organizer_id, winner_id, created_at, updated_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, title, description, game, tournament_type, match_format,
			max_participants, status, registration_start, registration_end, tournament_start, rules, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Game,
		t.TournamentType,
		t.MatchFormat,
		t.MaxParticipants,
		t.Status,
		t.RegistrationStart,
		t.RegistrationEnd,
		t.TournamentStart,
		t.Rules,
		t.OrganizerID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t := &models.Tournament{}
	row := r.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	if err := scanTournament(row, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to find tournament: %w", err)
	}

	records, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Participants = make([]string, 0, len(records))
	for _, rec := range records {
		t.Participants = append(t.Participants, rec.ParticipantID)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Game != nil {
		args = append(args, *filter.Game)
		query += fmt.Sprintf(" AND game = $%d", len(args))
	}
	query += " ORDER BY tournament_start DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t := &models.Tournament{}
		if err := scanTournament(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tournaments {
		records, err := r.ListParticipants(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Participants = make([]string, 0, len(records))
		for _, rec := range records {
			t.Participants = append(t.Participants, rec.ParticipantID)
		}
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Complete(ctx context.Context, id string, winnerID string, endedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tournaments
		SET status = $1, winner_id = $2, tournament_end = $3, updated_at = now()
		WHERE id = $4`,
		models.TournamentCompleted, winnerID, endedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete tournament: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, tournamentID, participantID string, isTeam bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournament_participants (tournament_id, participant_id, is_team) VALUES ($1, $2, $3)`,
		tournamentID, participantID, isTeam)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrParticipantConflict
		}
		if isForeignKeyViolation(err) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) RemoveParticipant(ctx context.Context, tournamentID, participantID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1 AND participant_id = $2`,
		tournamentID, participantID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantMissing)
}

func (r *postgresTournamentRepository) ListParticipants(ctx context.Context, tournamentID string) ([]ParticipantRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, is_team, registered_at
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY registered_at`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	records := []ParticipantRecord{}
	for rows.Next() {
		var rec ParticipantRecord
		if err := rows.Scan(&rec.ParticipantID, &rec.IsTeam, &rec.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanTournament(s interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return s.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Game,
		&t.TournamentType,
		&t.MatchFormat,
		&t.MaxParticipants,
		&t.Status,
		&t.RegistrationStart,
		&t.RegistrationEnd,
		&t.TournamentStart,
		&t.TournamentEnd,
		&t.Rules,
		&t.OrganizerID,
		&t.WinnerID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}
