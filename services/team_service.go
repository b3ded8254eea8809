package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/oupafamilly/oupafamilly/models"
	"github.com/oupafamilly/oupafamilly/repositories"
	"github.com/oupafamilly/oupafamilly/storage"
)

const defaultTeamSize = 5

type CreateTeamInput struct {
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Game        models.Game `json:"game"`
	MaxMembers  int         `json:"max_members"`
}

type TeamService interface {
	Create(ctx context.Context, captainID string, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error)
	ListMine(ctx context.Context, userID string) ([]*models.Team, error)
	Join(ctx context.Context, teamID, userID string) (*models.Team, error)
	Leave(ctx context.Context, teamID, userID string) (disbanded bool, err error)
	TransferCaptaincy(ctx context.Context, teamID, captainID, newCaptainID string) error
	UploadLogo(ctx context.Context, teamID, userID, contentType string, data io.Reader) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader) TeamService {
	return &teamService{teamRepo: teamRepo, uploader: uploader}
}

func (s *teamService) Create(ctx context.Context, captainID string, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if input.Game == "" {
		return nil, fmt.Errorf("%w: game is required", ErrValidationFailed)
	}
	maxMembers := input.MaxMembers
	if maxMembers <= 0 {
		maxMembers = defaultTeamSize
	}

	team := &models.Team{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Game:        input.Game,
		CaptainID:   captainID,
		MaxMembers:  maxMembers,
		IsOpen:      true,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, fmt.Errorf("%w: %q (%s)", ErrTeamNameConflict, name, input.Game)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) ListMine(ctx context.Context, userID string) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) Join(ctx context.Context, teamID, userID string) (*models.Team, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.HasMember(userID) {
		return nil, ErrUserAlreadyInTeam
	}
	if !team.IsOpen {
		return nil, ErrTeamClosed
	}
	if !team.HasCapacity() {
		return nil, ErrTeamFull
	}

	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberExists) {
			return nil, ErrUserAlreadyInTeam
		}
		return nil, err
	}
	team.Members = append(team.Members, userID)
	return team, nil
}

// Leave removes a member. A captain may only leave as the last member, which
// disbands the team.
func (s *teamService) Leave(ctx context.Context, teamID, userID string) (bool, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return false, err
	}
	if !team.HasMember(userID) {
		return false, ErrUserNotInTeam
	}

	if team.CaptainID == userID {
		if team.MemberCount() > 1 {
			return false, ErrCaptainMustTransfer
		}
		if err := s.teamRepo.Delete(ctx, teamID); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberMissing) {
			return false, ErrUserNotInTeam
		}
		return false, err
	}
	return false, nil
}

func (s *teamService) TransferCaptaincy(ctx context.Context, teamID, captainID, newCaptainID string) error {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != captainID {
		return ErrCaptainActionForbidden
	}
	if !team.HasMember(newCaptainID) {
		return ErrUserNotInTeam
	}
	return s.teamRepo.UpdateCaptain(ctx, teamID, newCaptainID)
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, userID, contentType string, data io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: logo storage is not configured", ErrValidationFailed)
	}
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != userID {
		return nil, ErrCaptainActionForbidden
	}

	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%s/logo%s", teamID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if team.LogoKey != nil && *team.LogoKey != key {
		// Old logo under a different extension; best effort cleanup.
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &key); err != nil {
		return nil, err
	}
	team.LogoKey = &key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}
