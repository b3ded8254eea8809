package brackets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oupafamilly/oupafamilly/models"
)

var ErrNotEnoughEntries = errors.New("not enough participants to generate a single elimination bracket (minimum 2)")

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// PlaceholderFor names the slot that the winner of match n will occupy.
func PlaceholderFor(matchNumber int) string {
	return fmt.Sprintf("%s%d", models.WinnerPlaceholderPrefix, matchNumber)
}

// Generate builds every round of a single elimination bracket up front.
// Unresolved slots in later rounds hold "Winner of Match N" placeholders.
// A BYE pairing creates no match: the non-BYE side advances directly, so an
// odd field simply shrinks by pairing instead of playing a ghost opponent.
// Match numbers are sequential across the whole bracket and unique within it.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	entries := params.Entries
	if len(entries) < 2 {
		return nil, ErrNotEnoughEntries
	}

	current := make([]string, len(entries))
	copy(current, entries)
	if len(current)%2 != 0 {
		current = append(current, models.ByeEntry)
	}

	now := time.Now().UTC()
	var matches []*models.Match
	round := 1
	matchNumber := 1

	for len(current) > 1 {
		next := make([]string, 0, (len(current)+1)/2)

		for i := 0; i < len(current); i += 2 {
			p1 := current[i]
			p2 := models.ByeEntry
			if i+1 < len(current) {
				p2 = current[i+1]
			}

			if p2 == models.ByeEntry {
				next = append(next, p1)
				continue
			}
			if p1 == models.ByeEntry {
				next = append(next, p2)
				continue
			}

			player1, player2 := p1, p2
			m := &models.Match{
				ID:           uuid.NewString(),
				TournamentID: params.TournamentID,
				RoundNumber:  round,
				MatchNumber:  matchNumber,
				Player1ID:    &player1,
				Player2ID:    &player2,
				Status:       models.MatchScheduled,
				ScheduledAt:  &now,
			}
			matches = append(matches, m)
			next = append(next, PlaceholderFor(matchNumber))
			matchNumber++
		}

		current = next
		round++
	}

	return matches, nil
}
