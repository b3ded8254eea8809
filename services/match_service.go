package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oupafamilly/oupafamilly/brackets"
	"github.com/oupafamilly/oupafamilly/models"
	"github.com/oupafamilly/oupafamilly/repositories"
)

// BracketNotifier pushes live updates to bracket viewers.
type BracketNotifier interface {
	BroadcastToRoom(roomID string, event brackets.Event)
}

type MatchResultInput struct {
	WinnerID     string  `json:"winner_id"`
	Player1Score int     `json:"player1_score"`
	Player2Score int     `json:"player2_score"`
	Notes        *string `json:"notes,omitempty"`
}

type GenerateBracketResult struct {
	MatchCount       int    `json:"matches_count"`
	TournamentStatus string `json:"tournament_status"`
}

type MatchService interface {
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error)
	GetBracket(ctx context.Context, tournamentID string) (*models.Bracket, error)
	GenerateBracket(ctx context.Context, tournamentID string) (*GenerateBracketResult, error)
	SubmitResult(ctx context.Context, matchID string, input MatchResultInput) error
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	generator      brackets.Generator
	notifier       BracketNotifier
	logger         *slog.Logger
	now            func() time.Time
	shuffle        func(n int, swap func(i, j int))
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	generator brackets.Generator,
	notifier BracketNotifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		generator:      generator,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
		shuffle:        rand.Shuffle,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

// GenerateBracket shuffles the registered entries, builds every round up
// front and flips the tournament to in_progress.
func (s *matchService) GenerateBracket(ctx context.Context, tournamentID string) (*GenerateBracketResult, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if t.TournamentType != models.TypeElimination && t.TournamentType != models.TypeBracket {
		return nil, fmt.Errorf("%w: %s", ErrBracketUnsupported, t.TournamentType)
	}
	if t.Status == models.TournamentCompleted {
		return nil, fmt.Errorf("%w: completed -> in_progress", ErrTournamentInvalidStatusTransition)
	}
	if len(t.Participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	existing, err := s.matchRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrBracketExists
	}

	entries := make([]string, len(t.Participants))
	copy(entries, t.Participants)
	s.shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	matches, err := s.generator.Generate(ctx, brackets.GenerateParams{
		TournamentID: tournamentID,
		Entries:      entries,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughEntries) {
			return nil, ErrNotEnoughParticipants
		}
		return nil, fmt.Errorf("failed to generate bracket: %w", err)
	}

	if err := s.matchRepo.CreateBatch(ctx, matches); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.TournamentInProgress); err != nil {
		return nil, err
	}

	s.logger.Info("bracket generated",
		slog.String("tournament_id", tournamentID),
		slog.Int("matches", len(matches)))

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(tournamentID, brackets.Event{
			Type:    brackets.EventBracketUpdated,
			Payload: map[string]interface{}{"tournament_id": tournamentID, "matches_count": len(matches)},
		})
	}

	return &GenerateBracketResult{
		MatchCount:       len(matches),
		TournamentStatus: string(models.TournamentInProgress),
	}, nil
}

// SubmitResult records a match outcome, advances the winner into its
// placeholder slot and completes the tournament once the final is decided.
func (s *matchService) SubmitResult(ctx context.Context, matchID string, input MatchResultInput) error {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if input.WinnerID == "" || !m.HasPlayer(input.WinnerID) {
		return ErrWinnerNotInMatch
	}
	if !m.Actionable() {
		return ErrMatchNotActionable
	}

	err = s.matchRepo.CompleteMatch(ctx, matchID, input.WinnerID,
		input.Player1Score, input.Player2Score, input.Notes, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchNotScheduled):
			return ErrMatchNotActionable
		case errors.Is(err, repositories.ErrMatchNotFound):
			return ErrMatchNotFound
		}
		return err
	}

	if err := s.advanceWinner(ctx, m, input.WinnerID); err != nil {
		return err
	}
	if err := s.checkTournamentCompletion(ctx, m.TournamentID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(m.TournamentID, brackets.Event{
			Type: brackets.EventMatchUpdated,
			Payload: map[string]interface{}{
				"match_id":  matchID,
				"winner_id": input.WinnerID,
			},
		})
	}
	return nil
}

// advanceWinner replaces the "Winner of Match N" placeholder that references
// the completed match. BYE advancement can carry a placeholder past a round,
// so the whole bracket is scanned rather than just round+1.
func (s *matchService) advanceWinner(ctx context.Context, m *models.Match, winnerID string) error {
	placeholder := brackets.PlaceholderFor(m.MatchNumber)
	all, err := s.matchRepo.ListByTournament(ctx, m.TournamentID)
	if err != nil {
		return err
	}
	for _, next := range all {
		if next.Player1ID != nil && *next.Player1ID == placeholder {
			return s.matchRepo.SetSlot(ctx, next.ID, 1, winnerID)
		}
		if next.Player2ID != nil && *next.Player2ID == placeholder {
			return s.matchRepo.SetSlot(ctx, next.ID, 2, winnerID)
		}
	}
	return nil
}

func (s *matchService) checkTournamentCompletion(ctx context.Context, tournamentID string) error {
	all, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}

	var final *models.Match
	for _, m := range all {
		if m.Status != models.MatchCompleted {
			return nil
		}
		if final == nil || m.RoundNumber > final.RoundNumber {
			final = m
		}
	}
	if final.WinnerID == nil {
		return nil
	}

	if err := s.tournamentRepo.Complete(ctx, tournamentID, *final.WinnerID, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Info("tournament completed",
		slog.String("tournament_id", tournamentID),
		slog.String("winner_id", *final.WinnerID))
	return nil
}

// GetBracket assembles the round-grouped view with resolved display names.
func (s *matchService) GetBracket(ctx context.Context, tournamentID string) (*models.Bracket, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &models.Bracket{
			Rounds:           []models.BracketRound{},
			TournamentStatus: "no_bracket",
			TournamentType:   t.TournamentType,
			ParticipantsMap:  map[string]models.ParticipantInfo{},
		}, nil
	}

	participantsMap, err := s.buildParticipantsMap(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var rounds []models.BracketRound
	for _, m := range matches {
		bm := models.BracketMatch{Match: *m}
		bm.Player1Name, bm.Player1Type = resolveSlot(m.Player1ID, participantsMap)
		bm.Player2Name, bm.Player2Type = resolveSlot(m.Player2ID, participantsMap)
		if m.WinnerID != nil {
			if info, ok := participantsMap[*m.WinnerID]; ok {
				name := info.DisplayName
				bm.WinnerName = &name
			}
		}

		if len(rounds) == 0 || rounds[len(rounds)-1].RoundNumber != m.RoundNumber {
			rounds = append(rounds, models.BracketRound{RoundNumber: m.RoundNumber})
		}
		last := &rounds[len(rounds)-1]
		last.Matches = append(last.Matches, bm)
	}

	return &models.Bracket{
		Rounds:           rounds,
		TournamentStatus: string(t.Status),
		TournamentType:   t.TournamentType,
		ParticipantsMap:  participantsMap,
	}, nil
}

func (s *matchService) buildParticipantsMap(ctx context.Context, tournamentID string) (map[string]models.ParticipantInfo, error) {
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

	result := make(map[string]models.ParticipantInfo, len(records))
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
		result[rec.ParticipantID] = info
	}
	return result, nil
}

// resolveSlot turns a raw slot id into a display name and kind. Placeholder
// text ("BYE", "Winner of Match N") is passed through verbatim.
func resolveSlot(id *string, participants map[string]models.ParticipantInfo) (string, string) {
	if id == nil || *id == "" {
		return "TBD", models.SlotTypeTBD
	}
	if info, ok := participants[*id]; ok {
		if info.IsTeam {
			return info.DisplayName, models.SlotTypeTeam
		}
		return info.DisplayName, models.SlotTypeUser
	}
	if models.IsPlaceholderEntry(*id) {
		return *id, models.SlotTypePlaceholder
	}
	return "Participant " + shortID(*id), models.SlotTypeUnknown
}
