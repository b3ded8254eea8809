package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oupafamilly/oupafamilly/models"
	"github.com/oupafamilly/oupafamilly/repositories"
)

type CreateTournamentInput struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Game              models.Game           `json:"game"`
	TournamentType    models.TournamentType `json:"tournament_type"`
	MatchFormat       string                `json:"match_format"`
	MaxParticipants   int                   `json:"max_participants"`
	RegistrationStart time.Time             `json:"registration_start"`
	RegistrationEnd   time.Time             `json:"registration_end"`
	TournamentStart   time.Time             `json:"tournament_start"`
	Rules             string                `json:"rules"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id, userID string, role models.UserRole, status models.TournamentStatus) error
	Register(ctx context.Context, tournamentID, userID string, teamID *string) error
	Unregister(ctx context.Context, tournamentID, userID string) error
	ParticipantsInfo(ctx context.Context, tournamentID string) ([]models.ParticipantInfo, error)
	Eligibility(ctx context.Context, tournamentID, userID string) (*models.EligibilityResult, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	now            func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if err := validateTournamentDates(input.RegistrationStart, input.RegistrationEnd, input.TournamentStart); err != nil {
		return nil, err
	}
	matchFormat := strings.TrimSpace(input.MatchFormat)
	if matchFormat == "" {
		matchFormat = "1v1"
	}

	t := &models.Tournament{
		ID:                uuid.NewString(),
		Title:             title,
		Description:       input.Description,
		Game:              input.Game,
		TournamentType:    input.TournamentType,
		MatchFormat:       matchFormat,
		MaxParticipants:   input.MaxParticipants,
		Status:            models.TournamentDraft,
		RegistrationStart: input.RegistrationStart,
		RegistrationEnd:   input.RegistrationEnd,
		TournamentStart:   input.TournamentStart,
		Rules:             input.Rules,
		OrganizerID:       organizerID,
		Participants:      []string{},
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

// UpdateStatus applies a guarded lifecycle transition. Only the organizer or
// an admin may move a tournament between states.
func (s *tournamentService) UpdateStatus(ctx context.Context, id, userID string, role models.UserRole, status models.TournamentStatus) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.OrganizerID != userID && role != models.RoleAdmin {
		return ErrForbiddenOperation
	}
	if !isValidStatusTransition(t.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, status)
	}
	return s.tournamentRepo.UpdateStatus(ctx, id, status)
}

// Register enters the user (or one of their teams) into the tournament.
// Team formats require a team of the tournament's game registered by its
// captain; individual formats register the user directly and ignore team_id.
func (s *tournamentService) Register(ctx context.Context, tournamentID, userID string, teamID *string) error {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}

	now := s.now()
	if t.Status != models.TournamentOpen {
		return ErrRegistrationNotOpen
	}
	if !now.Before(t.RegistrationEnd) {
		return ErrRegistrationPeriodEnded
	}
	if t.Full() {
		return ErrTournamentFull
	}

	entryID := userID
	isTeam := false

	if models.RequiresTeam(t.MatchFormat) {
		if teamID == nil || *teamID == "" {
			return fmt.Errorf("%w: a %s team for %s is needed", ErrTeamRequired, t.MatchFormat, t.Game)
		}
		team, err := s.teamRepo.GetByID(ctx, *teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.Game != t.Game {
			return fmt.Errorf("%w: team plays %s, tournament is %s", ErrTeamGameMismatch, team.Game, t.Game)
		}
		if team.CaptainID != userID {
			return ErrUserMustBeCaptain
		}
		entryID = team.ID
		isTeam = true
	}

	if t.HasParticipant(entryID) {
		return ErrRegistrationConflict
	}

	if err := s.tournamentRepo.AddParticipant(ctx, tournamentID, entryID, isTeam); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return ErrRegistrationConflict
		}
		return err
	}
	return nil
}

func (s *tournamentService) Unregister(ctx context.Context, tournamentID, userID string) error {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status == models.TournamentInProgress {
		return ErrUnregisterInProgress
	}

	// The entry may be the user directly or a team they captain.
	entryID := userID
	if !t.HasParticipant(entryID) {
		teams, err := s.teamRepo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		entryID = ""
		for _, team := range teams {
			if team.CaptainID == userID && t.HasParticipant(team.ID) {
				entryID = team.ID
				break
			}
		}
		if entryID == "" {
			return ErrNotRegistered
		}
	}

	if err := s.tournamentRepo.RemoveParticipant(ctx, tournamentID, entryID); err != nil {
		if errors.Is(err, repositories.ErrParticipantMissing) {
			return ErrNotRegistered
		}
		return err
	}
	return nil
}

// ParticipantsInfo resolves registered entry ids into display records.
func (s *tournamentService) ParticipantsInfo(ctx context.Context, tournamentID string) ([]models.ParticipantInfo, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	records, err := s.tournamentRepo.ListParticipants(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var userIDs, teamIDs []string
	for _, rec := range records {
		if rec.IsTeam {
			teamIDs = append(teamIDs, rec.ParticipantID)
		} else {
			userIDs = append(userIDs, rec.ParticipantID)
		}
	}

	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.GetByIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	infos := make([]models.ParticipantInfo, 0, len(records))
	for _, rec := range records {
		info := models.ParticipantInfo{ID: rec.ParticipantID, IsTeam: rec.IsTeam}
		switch {
		case rec.IsTeam:
			if team, ok := teams[rec.ParticipantID]; ok {
				info.Name = team.Name
				info.DisplayName = teamDisplayName(team)
				info.MemberCount = team.MemberCount()
			} else {
				info.Name = "Team " + shortID(rec.ParticipantID)
				info.DisplayName = info.Name
			}
		default:
			if user, ok := users[rec.ParticipantID]; ok {
				info.Name = user.Username
				info.DisplayName = user.Username
				info.MemberCount = 1
			} else {
				info.Name = "Participant " + shortID(rec.ParticipantID)
				info.DisplayName = info.Name
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Eligibility computes whether the tournament needs a team entry and which of
// the user's teams qualify. The caller is a member of every listed team, so a
// game match is the only remaining filter.
func (s *tournamentService) Eligibility(ctx context.Context, tournamentID, userID string) (*models.EligibilityResult, error) {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	result := &models.EligibilityResult{
		RequiresTeam:   models.RequiresTeam(t.MatchFormat),
		EligibleTeams:  []models.EligibleTeam{},
		TournamentGame: t.Game,
		TournamentName: t.Title,
	}
	if !result.RequiresTeam {
		return result, nil
	}

	teams, err := s.teamRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if team.Game != t.Game {
			continue
		}
		result.EligibleTeams = append(result.EligibleTeams, models.EligibleTeam{
			ID:          team.ID,
			Name:        team.Name,
			Game:        team.Game,
			MemberCount: team.MemberCount(),
			MaxMembers:  team.MaxMembers,
			IsCaptain:   team.CaptainID == userID,
		})
	}
	return result, nil
}
