package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oupafamilly/oupafamilly/brackets"
	"github.com/oupafamilly/oupafamilly/models"
)

type recordingNotifier struct {
	events []brackets.Event
	rooms  []string
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, event brackets.Event) {
	n.rooms = append(n.rooms, roomID)
	n.events = append(n.events, event)
}

func newMatchServiceForTest(mRepo *fakeMatchRepo, tRepo *fakeTournamentRepo, teamRepo *fakeTeamRepo, userRepo *fakeUserRepo, notifier BracketNotifier) *matchService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchService(mRepo, tRepo, teamRepo, userRepo, brackets.NewSingleEliminationGenerator(), notifier, logger).(*matchService)
	svc.now = func() time.Time { return testNow }
	svc.shuffle = func(n int, swap func(i, j int)) {} // keep registration order
	return svc
}

func inProgressTournament(participants ...string) *models.Tournament {
	t := openTournament("5v5")
	t.Status = models.TournamentInProgress
	t.Participants = participants
	return t
}

func TestGenerateBracket(t *testing.T) {
	tournament := openTournament("1v1")
	tournament.Participants = []string{"a", "b", "c", "d"}
	tRepo := newFakeTournamentRepo(tournament)
	mRepo := &fakeMatchRepo{}
	notifier := &recordingNotifier{}
	svc := newMatchServiceForTest(mRepo, tRepo, newFakeTeamRepo(), newFakeUserRepo(), notifier)

	result, err := svc.GenerateBracket(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, 3, result.MatchCount)
	assert.Equal(t, "in_progress", result.TournamentStatus)

	stored, _ := tRepo.GetByID(context.Background(), "t1")
	assert.Equal(t, models.TournamentInProgress, stored.Status)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, brackets.EventBracketUpdated, notifier.events[0].Type)
	assert.Equal(t, []string{"t1"}, notifier.rooms)
}

func TestGenerateBracketGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("already generated", func(t *testing.T) {
		tournament := openTournament("1v1")
		tournament.Participants = []string{"a", "b"}
		mRepo := &fakeMatchRepo{matches: []*models.Match{{ID: "m", TournamentID: "t1"}}}
		svc := newMatchServiceForTest(mRepo, newFakeTournamentRepo(tournament), newFakeTeamRepo(), newFakeUserRepo(), nil)
		_, err := svc.GenerateBracket(ctx, "t1")
		assert.ErrorIs(t, err, ErrBracketExists)
	})

	t.Run("not enough participants", func(t *testing.T) {
		tournament := openTournament("1v1")
		tournament.Participants = []string{"a"}
		svc := newMatchServiceForTest(&fakeMatchRepo{}, newFakeTournamentRepo(tournament), newFakeTeamRepo(), newFakeUserRepo(), nil)
		_, err := svc.GenerateBracket(ctx, "t1")
		assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	})

	t.Run("round robin unsupported", func(t *testing.T) {
		tournament := openTournament("1v1")
		tournament.TournamentType = models.TypeRoundRobin
		tournament.Participants = []string{"a", "b"}
		svc := newMatchServiceForTest(&fakeMatchRepo{}, newFakeTournamentRepo(tournament), newFakeTeamRepo(), newFakeUserRepo(), nil)
		_, err := svc.GenerateBracket(ctx, "t1")
		assert.ErrorIs(t, err, ErrBracketUnsupported)
	})

	t.Run("completed tournament", func(t *testing.T) {
		tournament := openTournament("1v1")
		tournament.Status = models.TournamentCompleted
		tournament.Participants = []string{"a", "b"}
		svc := newMatchServiceForTest(&fakeMatchRepo{}, newFakeTournamentRepo(tournament), newFakeTeamRepo(), newFakeUserRepo(), nil)
		_, err := svc.GenerateBracket(ctx, "t1")
		assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
	})

	t.Run("missing tournament", func(t *testing.T) {
		svc := newMatchServiceForTest(&fakeMatchRepo{}, newFakeTournamentRepo(), newFakeTeamRepo(), newFakeUserRepo(), nil)
		_, err := svc.GenerateBracket(ctx, "missing")
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})
}

func TestSubmitResultAdvancesWinner(t *testing.T) {
	ctx := context.Background()
	tournament := inProgressTournament("a", "b", "c", "d")
	tRepo := newFakeTournamentRepo(tournament)
	mRepo := &fakeMatchRepo{}
	notifier := &recordingNotifier{}
	svc := newMatchServiceForTest(mRepo, tRepo, newFakeTeamRepo(), newFakeUserRepo(), notifier)

	matches, err := brackets.NewSingleEliminationGenerator().Generate(ctx, brackets.GenerateParams{TournamentID: "t1", Entries: []string{"a", "b", "c", "d"}})
	require.NoError(t, err)
	require.NoError(t, mRepo.CreateBatch(ctx, matches))
	firstID := matches[0].ID

	require.NoError(t, svc.SubmitResult(ctx, firstID, MatchResultInput{WinnerID: "a", Player1Score: 16, Player2Score: 10}))

	completed, err := svc.GetMatch(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, completed.Status)
	assert.Equal(t, "a", *completed.WinnerID)
	assert.Equal(t, 16, completed.Player1Score)

	// The final's placeholder slot now carries the winner.
	final, err := svc.GetMatch(ctx, matches[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "a", *final.Player1ID)
	assert.Equal(t, brackets.PlaceholderFor(2), *final.Player2ID)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, brackets.EventMatchUpdated, notifier.events[0].Type)
}

func TestSubmitResultValidation(t *testing.T) {
	ctx := context.Background()
	mRepo := &fakeMatchRepo{}
	svc := newMatchServiceForTest(mRepo, newFakeTournamentRepo(inProgressTournament()), newFakeTeamRepo(), newFakeUserRepo(), nil)

	matches, err := brackets.NewSingleEliminationGenerator().Generate(ctx, brackets.GenerateParams{TournamentID: "t1", Entries: []string{"a", "b", "c", "d"}})
	require.NoError(t, err)
	require.NoError(t, mRepo.CreateBatch(ctx, matches))

	err = svc.SubmitResult(ctx, matches[0].ID, MatchResultInput{WinnerID: "z"})
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)

	// The final's slots are placeholders, so it is not actionable yet.
	finalID := matches[2].ID
	err = svc.SubmitResult(ctx, finalID, MatchResultInput{WinnerID: brackets.PlaceholderFor(1)})
	assert.ErrorIs(t, err, ErrMatchNotActionable)

	err = svc.SubmitResult(ctx, "missing", MatchResultInput{WinnerID: "a"})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// Completing the same match twice is rejected by the status guard.
	require.NoError(t, svc.SubmitResult(ctx, matches[0].ID, MatchResultInput{WinnerID: "a"}))
	err = svc.SubmitResult(ctx, matches[0].ID, MatchResultInput{WinnerID: "b"})
	assert.ErrorIs(t, err, ErrMatchNotActionable)
}

func TestFinalResultCompletesTournament(t *testing.T) {
	ctx := context.Background()
	tournament := inProgressTournament("a", "b")
	tRepo := newFakeTournamentRepo(tournament)
	mRepo := &fakeMatchRepo{}
	svc := newMatchServiceForTest(mRepo, tRepo, newFakeTeamRepo(), newFakeUserRepo(), nil)

	matches, err := brackets.NewSingleEliminationGenerator().Generate(ctx, brackets.GenerateParams{TournamentID: "t1", Entries: []string{"a", "b"}})
	require.NoError(t, err)
	require.NoError(t, mRepo.CreateBatch(ctx, matches))

	require.NoError(t, svc.SubmitResult(ctx, matches[0].ID, MatchResultInput{WinnerID: "b", Player1Score: 10, Player2Score: 16}))

	stored, _ := tRepo.GetByID(ctx, "t1")
	assert.Equal(t, models.TournamentCompleted, stored.Status)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, "b", *stored.WinnerID)
}

func TestGetBracketEmpty(t *testing.T) {
	svc := newMatchServiceForTest(&fakeMatchRepo{}, newFakeTournamentRepo(openTournament("1v1")), newFakeTeamRepo(), newFakeUserRepo(), nil)

	bracket, err := svc.GetBracket(context.Background(), "t1")
	require.NoError(t, err)

	assert.Empty(t, bracket.Rounds)
	assert.Equal(t, "no_bracket", bracket.TournamentStatus)
}

func TestGetBracketResolvesSlots(t *testing.T) {
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "zizou"}
	team := &models.Team{ID: "tm1", Name: "Bravo", Game: models.GameCS2, CaptainID: "u2", MaxMembers: 5, Members: []string{"u2", "u3"}}

	tournament := inProgressTournament()
	tRepo := newFakeTournamentRepo(tournament)
	require.NoError(t, tRepo.AddParticipant(ctx, "t1", "u1", false))
	require.NoError(t, tRepo.AddParticipant(ctx, "t1", "tm1", true))
	require.NoError(t, tRepo.AddParticipant(ctx, "t1", "ghost", false))

	mRepo := &fakeMatchRepo{}
	matches, err := brackets.NewSingleEliminationGenerator().Generate(ctx, brackets.GenerateParams{TournamentID: "t1", Entries: []string{"u1", "tm1", "ghost"}})
	require.NoError(t, err)
	require.NoError(t, mRepo.CreateBatch(ctx, matches))

	svc := newMatchServiceForTest(mRepo, tRepo, newFakeTeamRepo(team), newFakeUserRepo(user), nil)

	bracket, err := svc.GetBracket(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, bracket.Rounds, 2)

	first := bracket.Rounds[0].Matches[0]
	assert.Equal(t, "zizou", first.Player1Name)
	assert.Equal(t, models.SlotTypeUser, first.Player1Type)
	assert.Equal(t, "Bravo (2/5)", first.Player2Name)
	assert.Equal(t, models.SlotTypeTeam, first.Player2Type)

	final := bracket.Rounds[1].Matches[0]
	assert.Equal(t, brackets.PlaceholderFor(1), final.Player1Name)
	assert.Equal(t, models.SlotTypePlaceholder, final.Player1Type)
	// Registered entry with no backing record falls back to an abbreviated id.
	assert.Equal(t, "Participant ghost", final.Player2Name)

	assert.Equal(t, string(models.TournamentInProgress), bracket.TournamentStatus)
	assert.Contains(t, bracket.ParticipantsMap, "u1")
	assert.Contains(t, bracket.ParticipantsMap, "tm1")
}
