package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oupafamilly/oupafamilly/models"
)

type fakeBracketService struct {
	mux *http.ServeMux

	tournament models.Tournament
	bracket    models.Bracket

	generateCalls atomic.Int32
	resultCalls   atomic.Int32
	failGenerate  bool
}

func newFakeBracketService() *fakeBracketService {
	s := &fakeBracketService{
		mux: http.NewServeMux(),
		tournament: models.Tournament{
			ID:     "tid",
			Title:  "Oupafamilly Open",
			Status: models.TournamentOpen,
		},
		bracket: models.Bracket{
			Rounds:           []models.BracketRound{},
			TournamentStatus: "no_bracket",
			ParticipantsMap:  map[string]models.ParticipantInfo{},
		},
	}

	s.mux.HandleFunc("GET /api/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(s.tournament)
	})
	s.mux.HandleFunc("GET /api/tournaments/{id}/participants-info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"participants": []models.ParticipantInfo{}})
	})
	s.mux.HandleFunc("GET /api/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(s.bracket)
	})
	s.mux.HandleFunc("POST /api/tournaments/{id}/generate-bracket", func(w http.ResponseWriter, r *http.Request) {
		s.generateCalls.Add(1)
		if s.failGenerate {
			writeDetail(w, http.StatusBadRequest, "tournament needs at least 2 participants to generate a bracket")
			return
		}
		s.tournament.Status = models.TournamentInProgress
		s.bracket = twoTeamBracket()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(GenerateBracketResponse{MatchCount: 1, TournamentStatus: "in_progress"})
	})
	s.mux.HandleFunc("POST /api/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		s.resultCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "match result recorded"})
	})

	return s
}

func twoTeamBracket() models.Bracket {
	p1, p2 := "team-a", "team-b"
	return models.Bracket{
		Rounds: []models.BracketRound{{
			RoundNumber: 1,
			Matches: []models.BracketMatch{{
				Match: models.Match{
					ID:          "m1",
					RoundNumber: 1,
					MatchNumber: 1,
					Player1ID:   &p1,
					Player2ID:   &p2,
					Status:      models.MatchScheduled,
				},
				Player1Name: "Team A",
				Player1Type: models.SlotTypeTeam,
				Player2Name: "Team B",
				Player2Type: models.SlotTypeTeam,
			}},
		}},
		TournamentStatus: "in_progress",
		ParticipantsMap:  map[string]models.ParticipantInfo{},
	}
}

func TestLoadExposesNotGeneratedState(t *testing.T) {
	svc := newFakeBracketService()
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")

	require.NoError(t, v.Load(context.Background()))

	assert.False(t, v.HasBracket())
	assert.True(t, v.CanGenerate())
	assert.Equal(t, "no_bracket", v.Bracket().TournamentStatus)
}

func TestGenerateRefetchesEverything(t *testing.T) {
	svc := newFakeBracketService()
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	require.NoError(t, v.Generate(context.Background()))

	assert.True(t, v.HasBracket())
	assert.Equal(t, models.TournamentInProgress, v.Tournament().Status)
	assert.False(t, v.CanGenerate(), "generate must not be offered once rounds exist")
}

func TestGenerateBlockedWhenBracketExists(t *testing.T) {
	svc := newFakeBracketService()
	svc.bracket = twoTeamBracket()
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	err := v.Generate(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyGenerated)
	assert.Equal(t, int32(0), svc.generateCalls.Load())
}

func TestGenerateBlockedWhenCompleted(t *testing.T) {
	svc := newFakeBracketService()
	svc.tournament.Status = models.TournamentCompleted
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	err := v.Generate(context.Background())
	assert.ErrorIs(t, err, ErrTournamentDone)
	assert.Equal(t, int32(0), svc.generateCalls.Load())
}

func TestGenerateSurfacesServiceDetail(t *testing.T) {
	svc := newFakeBracketService()
	svc.failGenerate = true
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	err := v.Generate(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "tournament needs at least 2 participants to generate a bracket", apiErr.Detail)
}

func TestSubmitResultValidatesWinnerLocally(t *testing.T) {
	svc := newFakeBracketService()
	svc.bracket = twoTeamBracket()
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	err := v.SubmitResult(context.Background(), "m1", "", 0, 0, nil)
	assert.ErrorIs(t, err, ErrNoWinnerSelected)

	err = v.SubmitResult(context.Background(), "m1", "team-c", 16, 10, nil)
	assert.ErrorIs(t, err, ErrWinnerNotPlaying)

	err = v.SubmitResult(context.Background(), "nope", "team-a", 16, 10, nil)
	assert.ErrorIs(t, err, ErrUnknownMatch)

	assert.Equal(t, int32(0), svc.resultCalls.Load(), "no request may be issued for invalid input")
}

func TestSubmitResultRejectsNonScheduledMatch(t *testing.T) {
	svc := newFakeBracketService()
	svc.bracket = twoTeamBracket()
	svc.bracket.Rounds[0].Matches[0].Status = models.MatchCompleted
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	err := v.SubmitResult(context.Background(), "m1", "team-a", 16, 10, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(0), svc.resultCalls.Load())
}

func TestSubmitResultRefetches(t *testing.T) {
	svc := newFakeBracketService()
	svc.bracket = twoTeamBracket()
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	notes := "gg"
	require.NoError(t, v.SubmitResult(context.Background(), "m1", "team-a", 16, 10, &notes))
	assert.Equal(t, int32(1), svc.resultCalls.Load())
}

// A tournament deleted between navigation and load surfaces as a not-found
// rejection the view layer can turn into a redirect to the listing.
func TestLoadMissingTournamentIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "tournament not found")
	})

	v := NewBracketViewController(newTestClient(t, mux), "gone")
	err := v.Load(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "tournament not found", apiErr.Detail)
}

// A load that was started first but answers last must not overwrite the
// state installed by a newer load. The first bracket fetch is held on a
// channel to pin the interleaving.
func TestStaleLoadDoesNotOverwriteNewerState(t *testing.T) {
	var bracketCalls atomic.Int32
	firstBlocked := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Tournament{ID: "tid", Status: models.TournamentInProgress})
	})
	mux.HandleFunc("GET /api/tournaments/{id}/participants-info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"participants": []models.ParticipantInfo{}})
	})
	mux.HandleFunc("GET /api/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
		if bracketCalls.Add(1) == 1 {
			close(firstBlocked)
			<-release
			_ = json.NewEncoder(w).Encode(models.Bracket{Rounds: []models.BracketRound{}, TournamentStatus: "no_bracket"})
			return
		}
		_ = json.NewEncoder(w).Encode(twoTeamBracket())
	})

	v := NewBracketViewController(newTestClient(t, mux), "tid")

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-firstBlocked

	require.NoError(t, v.Load(context.Background()))
	require.True(t, v.HasBracket())

	close(release)
	require.NoError(t, <-done, "a superseded load reports success, it just drops its responses")

	assert.True(t, v.HasBracket(), "the stale empty bracket must not roll back the newer state")
	assert.Equal(t, "in_progress", v.Bracket().TournamentStatus)
}

func TestCanRegisterRespectsWindow(t *testing.T) {
	svc := newFakeBracketService()
	now := time.Now()
	svc.tournament.RegistrationEnd = now.Add(time.Hour)
	v := NewBracketViewController(newTestClient(t, svc.mux), "tid")
	require.NoError(t, v.Load(context.Background()))

	assert.True(t, v.CanRegister(now))
	assert.False(t, v.CanRegister(now.Add(2*time.Hour)), "no registration action after the deadline")
}
