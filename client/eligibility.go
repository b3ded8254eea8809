package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/oupafamilly/oupafamilly/models"
)

// ErrEligibilityFetch marks a failed eligibility lookup. Callers must treat
// eligibility as unknown and block registration rather than assume an
// individual format.
var ErrEligibilityFetch = errors.New("failed to resolve registration eligibility")

// EligibilityResolver answers whether the current user can enter a tournament
// and with which of their teams.
type EligibilityResolver struct {
	api *Client
}

func NewEligibilityResolver(api *Client) *EligibilityResolver {
	return &EligibilityResolver{api: api}
}

func (r *EligibilityResolver) Resolve(ctx context.Context, tournamentID string) (*models.EligibilityResult, error) {
	result, err := r.api.UserTeams(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEligibilityFetch, err)
	}
	return result, nil
}
