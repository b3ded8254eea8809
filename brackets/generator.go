package brackets

import (
	"context"

	"github.com/oupafamilly/oupafamilly/models"
)

type GenerateParams struct {
	TournamentID string
	// Entry ids (user or team ids) in the order they should be paired.
	// Callers shuffle before generation.
	Entries []string
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error)
	Name() string
}
