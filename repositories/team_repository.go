package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oupafamilly/oupafamilly/models"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name is already in use for this game")
	ErrTeamMemberExists  = errors.New("user is already a member of this team")
	ErrTeamMemberMissing = errors.New("user is not a member of this team")
)

type TeamFilter struct {
	Game   *models.Game
	IsOpen *bool
	Limit  int
	Offset int
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Team, error)
	List(ctx context.Context, filter TeamFilter) ([]*models.Team, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Team, error)
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	UpdateCaptain(ctx context.Context, teamID, newCaptainID string) error
	UpdateLogoKey(ctx context.Context, teamID string, logoKey *string) error
	Delete(ctx context.Context, id string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, name, description, game, captain_id, max_members, is_open, logo_key, created_at, updated_at`

// Create inserts the team and its captain membership in one transaction.
func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO teams (id, name, description, game, captain_id, max_members, is_open)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		team.ID,
		team.Name,
		team.Description,
		team.Game,
		team.CaptainID,
		team.MaxMembers,
		team.IsOpen,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "teams_name_game_key") {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`,
		team.ID, team.CaptainID,
	)
	if err != nil {
		return fmt.Errorf("failed to add captain membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team creation: %w", err)
	}
	team.Members = []string{team.CaptainID}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	t := &models.Team{}
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	if err := scanTeam(row, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if err := r.loadMembers(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Team, error) {
	teams := make(map[string]*models.Team, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ANY($1)`, pqStringArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list teams by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.Team{}
		if err := scanTeam(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range teams {
		if err := r.loadMembers(ctx, t); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (r *postgresTeamRepository) List(ctx context.Context, filter TeamFilter) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE 1=1`
	args := []interface{}{}
	if filter.Game != nil {
		args = append(args, *filter.Game)
		query += fmt.Sprintf(" AND game = $%d", len(args))
	}
	if filter.IsOpen != nil {
		args = append(args, *filter.IsOpen)
		query += fmt.Sprintf(" AND is_open = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.listTeams(ctx, query, args...)
}

func (r *postgresTeamRepository) ListByUser(ctx context.Context, userID string) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE id IN (SELECT team_id FROM team_members WHERE user_id = $1)
		ORDER BY created_at DESC`
	return r.listTeams(ctx, query, userID)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrTeamMemberExists
		}
		if isForeignKeyViolation(err) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return checkAffectedRows(result, ErrTeamMemberMissing)
}

func (r *postgresTeamRepository) UpdateCaptain(ctx context.Context, teamID, newCaptainID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET captain_id = $1, updated_at = now() WHERE id = $2`, newCaptainID, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team captain: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID string, logoKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET logo_key = $1, updated_at = now() WHERE id = $2`, logoKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team logo: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) listTeams(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t := &models.Team{}
		if err := scanTeam(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range teams {
		if err := r.loadMembers(ctx, t); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (r *postgresTeamRepository) loadMembers(ctx context.Context, t *models.Team) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	t.Members = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan team member: %w", err)
		}
		t.Members = append(t.Members, userID)
	}
	return rows.Err()
}

func scanTeam(s interface{ Scan(dest ...interface{}) error }, t *models.Team) error {
	return s.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Game,
		&t.CaptainID,
		&t.MaxMembers,
		&t.IsOpen,
		&t.LogoKey,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}
