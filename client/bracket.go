package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oupafamilly/oupafamilly/models"
)

// Pre-network validation errors for result submission.
var (
	ErrNoWinnerSelected = errors.New("select a winner before submitting the result")
	ErrWinnerNotPlaying = errors.New("winner must be one of the match participants")
	ErrUnknownMatch     = errors.New("match not found in the current bracket")
	ErrAlreadyGenerated = errors.New("bracket has already been generated")
	ErrTournamentDone   = errors.New("tournament is completed, bracket cannot be generated")
)

// BracketViewController holds the bracket view state for one tournament and
// mediates the privileged mutations. State is never patched locally after a
// write; the authoritative state is always re-fetched.
type BracketViewController struct {
	api          *Client
	tournamentID string

	mu         sync.Mutex
	generation int
	tournament *models.Tournament
	bracket    *models.Bracket
	pinfo      []models.ParticipantInfo
}

func NewBracketViewController(api *Client, tournamentID string) *BracketViewController {
	return &BracketViewController{api: api, tournamentID: tournamentID}
}

// Load fetches tournament metadata, participants and the bracket. The three
// reads are independent and issued concurrently. A Load that was superseded
// by a newer one discards its responses.
func (v *BracketViewController) Load(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	var (
		tournament *models.Tournament
		bracket    *models.Bracket
		pinfo      []models.ParticipantInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := v.api.Tournament(gctx, v.tournamentID)
		if err != nil {
			return err
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		b, err := v.api.Bracket(gctx, v.tournamentID)
		if err != nil {
			return err
		}
		bracket = b
		return nil
	})
	g.Go(func() error {
		p, err := v.api.ParticipantsInfo(gctx, v.tournamentID)
		if err != nil {
			return err
		}
		pinfo = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		// A newer load finished first, keep its state.
		return nil
	}
	v.tournament = tournament
	v.bracket = bracket
	v.pinfo = pinfo
	return nil
}

func (v *BracketViewController) Tournament() *models.Tournament {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tournament
}

func (v *BracketViewController) Bracket() *models.Bracket {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bracket
}

func (v *BracketViewController) Participants() []models.ParticipantInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pinfo
}

// HasBracket reports whether any rounds exist. A zero-round bracket renders
// as a "not generated" state, never as an empty grid.
func (v *BracketViewController) HasBracket() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bracket != nil && len(v.bracket.Rounds) > 0
}

// CanGenerate reports whether the generate action should be offered at all:
// only before any bracket exists and while the tournament is not completed.
func (v *BracketViewController) CanGenerate() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bracket == nil || len(v.bracket.Rounds) > 0 {
		return false
	}
	return v.tournament == nil || v.tournament.Status != models.TournamentCompleted
}

// CanRegister reports whether the registration action should be offered:
// the tournament is open and inside its registration window.
func (v *BracketViewController) CanRegister(now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tournament != nil && v.tournament.RegistrationOpen(now)
}

// Generate requests server-side bracket generation and reloads everything,
// since the tournament status changes as a side effect.
func (v *BracketViewController) Generate(ctx context.Context) error {
	v.mu.Lock()
	switch {
	case v.bracket != nil && len(v.bracket.Rounds) > 0:
		v.mu.Unlock()
		return ErrAlreadyGenerated
	case v.tournament != nil && v.tournament.Status == models.TournamentCompleted:
		v.mu.Unlock()
		return ErrTournamentDone
	}
	v.mu.Unlock()

	if _, err := v.api.GenerateBracket(ctx, v.tournamentID); err != nil {
		return err
	}
	return v.Load(ctx)
}

// SubmitResult validates the winner locally, submits and reloads. The winner
// must occupy one of the match's slots; otherwise no request is issued.
func (v *BracketViewController) SubmitResult(ctx context.Context, matchID, winnerID string, score1, score2 int, notes *string) error {
	if winnerID == "" {
		return ErrNoWinnerSelected
	}

	match, err := v.findMatch(matchID)
	if err != nil {
		return err
	}
	if !match.HasPlayer(winnerID) {
		return ErrWinnerNotPlaying
	}
	if match.Status != models.MatchScheduled {
		return fmt.Errorf("match %d is not awaiting a result", match.MatchNumber)
	}

	if err := v.api.SubmitMatchResult(ctx, matchID, MatchResultRequest{
		WinnerID:     winnerID,
		Player1Score: score1,
		Player2Score: score2,
		Notes:        notes,
	}); err != nil {
		return err
	}
	return v.Load(ctx)
}

func (v *BracketViewController) findMatch(matchID string) (*models.Match, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bracket == nil {
		return nil, ErrUnknownMatch
	}
	for _, round := range v.bracket.Rounds {
		for i := range round.Matches {
			if round.Matches[i].ID == matchID {
				m := round.Matches[i].Match
				return &m, nil
			}
		}
	}
	return nil, ErrUnknownMatch
}
