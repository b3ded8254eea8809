package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oupafamilly/oupafamilly/models"
)

func generate(t *testing.T, entries []string) []*models.Match {
	t.Helper()
	matches, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		TournamentID: "t1",
		Entries:      entries,
	})
	require.NoError(t, err)
	return matches
}

func TestGenerateRejectsTooFewEntries(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.Generate(context.Background(), GenerateParams{TournamentID: "t1", Entries: nil})
	assert.ErrorIs(t, err, ErrNotEnoughEntries)

	_, err = gen.Generate(context.Background(), GenerateParams{TournamentID: "t1", Entries: []string{"a"}})
	assert.ErrorIs(t, err, ErrNotEnoughEntries)
}

func TestGenerateTwoEntries(t *testing.T) {
	matches := generate(t, []string{"a", "b"})

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, 1, m.RoundNumber)
	assert.Equal(t, 1, m.MatchNumber)
	assert.Equal(t, "a", *m.Player1ID)
	assert.Equal(t, "b", *m.Player2ID)
	assert.Equal(t, models.MatchScheduled, m.Status)
}

func TestGenerateFourEntries(t *testing.T) {
	matches := generate(t, []string{"a", "b", "c", "d"})

	require.Len(t, matches, 3)
	assert.Equal(t, 1, matches[0].RoundNumber)
	assert.Equal(t, 1, matches[1].RoundNumber)
	assert.Equal(t, 2, matches[2].RoundNumber)

	final := matches[2]
	assert.Equal(t, PlaceholderFor(1), *final.Player1ID)
	assert.Equal(t, PlaceholderFor(2), *final.Player2ID)
}

func TestGenerateOddFieldAdvancesByeWithoutMatch(t *testing.T) {
	matches := generate(t, []string{"a", "b", "c"})

	// (a,b) play, c advances on the bye and meets the winner directly.
	require.Len(t, matches, 2)
	final := matches[1]
	assert.Equal(t, 2, final.RoundNumber)
	assert.Equal(t, PlaceholderFor(1), *final.Player1ID)
	assert.Equal(t, "c", *final.Player2ID)

	for _, m := range matches {
		assert.NotEqual(t, models.ByeEntry, *m.Player1ID)
		assert.NotEqual(t, models.ByeEntry, *m.Player2ID)
	}
}

func TestGenerateMatchNumbersAreGloballySequential(t *testing.T) {
	matches := generate(t, []string{"a", "b", "c", "d", "e"})

	require.Len(t, matches, 4)
	for i, m := range matches {
		assert.Equal(t, i+1, m.MatchNumber)
		assert.Equal(t, "t1", m.TournamentID)
	}
}

func TestGenerateFinalRoundHasOneMatch(t *testing.T) {
	for _, size := range []int{2, 3, 4, 5, 8, 16} {
		entries := make([]string, size)
		for i := range entries {
			entries[i] = string(rune('a' + i))
		}
		matches := generate(t, entries)

		lastRound := matches[len(matches)-1].RoundNumber
		count := 0
		for _, m := range matches {
			if m.RoundNumber == lastRound {
				count++
			}
		}
		assert.Equal(t, 1, count, "field of %d", size)
	}
}
