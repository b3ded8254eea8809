package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oupafamilly/oupafamilly/models"
)

// RegistrationState is the coordinator's position in the registration flow.
type RegistrationState string

const (
	StateIdle                  RegistrationState = "idle"
	StateSelectingExistingTeam RegistrationState = "selecting_existing_team"
	StateCreatingNewTeam       RegistrationState = "creating_new_team"
	StateIndividualConfirm     RegistrationState = "individual_confirm"
	StateSubmitting            RegistrationState = "submitting"
	StateFailed                RegistrationState = "failed"
	StateClosed                RegistrationState = "closed"
	StateCancelled             RegistrationState = "cancelled"
)

type registrationMode int

const (
	modeUnset registrationMode = iota
	modeExistingTeam
	modeNewTeam
	modeIndividual
)

// Pre-network validation errors. These never produce a request.
var (
	ErrEligibilityUnknown = errors.New("eligibility is unknown, cannot open registration")
	ErrNoTeamSelected     = errors.New("select a team to register")
	ErrBlankTeamName      = errors.New("team name must not be blank")
	ErrFlowFinished       = errors.New("registration flow already finished")
	ErrNotSubmittable     = errors.New("registration flow is not ready to submit")
)

// RegistrationCoordinator drives one registration attempt for one tournament.
// It is re-entrant only in the sense that a fresh coordinator is created per
// attempt; Closed and Cancelled are terminal.
//
// The two-step team path (create team, then register it) never re-creates a
// team on retry: the id returned by a successful creation is reused for every
// subsequent submission of the same coordinator.
//
// Cancel may be called from another goroutine while Submit is blocked on the
// network; the lock covers every state transition so the in-flight outcome
// is discarded without a race.
type RegistrationCoordinator struct {
	api          *Client
	tournamentID string
	eligibility  *models.EligibilityResult

	mu             sync.Mutex
	state          RegistrationState
	mode           registrationMode
	selectedTeamID string
	teamName       string
	createdTeamID  string
	lastErr        error
}

// NewRegistrationCoordinator builds a coordinator. eligibility may be nil
// when the lookup failed; Open then refuses to start so no write can happen
// under unknown eligibility.
func NewRegistrationCoordinator(api *Client, tournamentID string, eligibility *models.EligibilityResult) *RegistrationCoordinator {
	return &RegistrationCoordinator{
		api:          api,
		tournamentID: tournamentID,
		eligibility:  eligibility,
		state:        StateIdle,
	}
}

func (c *RegistrationCoordinator) State() RegistrationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *RegistrationCoordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CreatedTeamID exposes a team created during a partially failed submission,
// so the caller can tell the user the team exists even though registration
// did not complete.
func (c *RegistrationCoordinator) CreatedTeamID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createdTeamID
}

// Open starts the flow, branching on eligibility: team formats go to team
// selection (or straight to creation when the user has no eligible team),
// individual formats go to a simple confirmation.
func (c *RegistrationCoordinator) Open() (RegistrationState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return c.state, ErrFlowFinished
	}
	if c.eligibility == nil {
		return c.state, ErrEligibilityUnknown
	}

	switch {
	case !c.eligibility.RequiresTeam:
		c.state = StateIndividualConfirm
		c.mode = modeIndividual
	case len(c.eligibility.EligibleTeams) > 0:
		c.state = StateSelectingExistingTeam
		c.mode = modeExistingTeam
	default:
		c.state = StateCreatingNewTeam
		c.mode = modeNewTeam
	}
	return c.state, nil
}

// SelectTeam picks one of the eligible teams.
func (c *RegistrationCoordinator) SelectTeam(teamID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSelectingExistingTeam && c.state != StateFailed {
		return ErrNotSubmittable
	}
	for _, t := range c.eligibility.EligibleTeams {
		if t.ID == teamID {
			c.selectedTeamID = teamID
			return nil
		}
	}
	return fmt.Errorf("team %s is not eligible for this tournament", teamID)
}

// UseNewTeam switches a team-format flow to the creation path.
func (c *RegistrationCoordinator) UseNewTeam() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != modeExistingTeam && c.mode != modeNewTeam {
		return ErrNotSubmittable
	}
	if c.state != StateSelectingExistingTeam && c.state != StateCreatingNewTeam && c.state != StateFailed {
		return ErrNotSubmittable
	}
	c.mode = modeNewTeam
	c.state = StateCreatingNewTeam
	return nil
}

// UseExistingTeam switches back to selection, available only when eligible
// teams exist.
func (c *RegistrationCoordinator) UseExistingTeam() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != modeExistingTeam && c.mode != modeNewTeam {
		return ErrNotSubmittable
	}
	if len(c.eligibility.EligibleTeams) == 0 {
		return fmt.Errorf("no eligible %s team, create one to register", c.eligibility.TournamentGame)
	}
	c.mode = modeExistingTeam
	c.state = StateSelectingExistingTeam
	return nil
}

func (c *RegistrationCoordinator) SetTeamName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teamName = name
}

// Cancel dismisses the flow without effect. A response from an in-flight
// submission is discarded once cancelled.
func (c *RegistrationCoordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateCancelled
}

// Submit validates the chosen path and performs the writes: team creation
// first when needed, then tournament registration. Validation failures are
// returned without any request being issued.
func (c *RegistrationCoordinator) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSelectingExistingTeam, StateCreatingNewTeam, StateIndividualConfirm, StateFailed:
	default:
		c.mu.Unlock()
		return ErrNotSubmittable
	}

	if err := c.validate(); err != nil {
		c.mu.Unlock()
		return err
	}

	c.state = StateSubmitting
	c.lastErr = nil
	mode := c.mode
	selectedTeamID := c.selectedTeamID
	c.mu.Unlock()

	// The lock is not held across the network calls so Cancel can run while
	// a request is in flight.
	var teamID *string
	switch mode {
	case modeExistingTeam:
		teamID = &selectedTeamID
	case modeNewTeam:
		id, err := c.ensureTeam(ctx)
		if err != nil {
			c.fail(err)
			return err
		}
		teamID = &id
	}

	if err := c.api.Register(ctx, c.tournamentID, teamID); err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCancelled {
		// Dismissed while the request was in flight, drop the outcome.
		return nil
	}
	c.state = StateClosed
	return nil
}

// validate is called with the lock held.
func (c *RegistrationCoordinator) validate() error {
	switch c.mode {
	case modeExistingTeam:
		if c.selectedTeamID == "" {
			return ErrNoTeamSelected
		}
	case modeNewTeam:
		if strings.TrimSpace(c.teamName) == "" {
			if len(c.eligibility.EligibleTeams) == 0 {
				return fmt.Errorf("%w: a %s team is required for this tournament",
					ErrBlankTeamName, c.eligibility.TournamentGame)
			}
			return ErrBlankTeamName
		}
	}
	return nil
}

// ensureTeam creates the team once. Retries after a failed registration keep
// the id from the first successful creation.
func (c *RegistrationCoordinator) ensureTeam(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.createdTeamID != "" {
		id := c.createdTeamID
		c.mu.Unlock()
		return id, nil
	}
	name := strings.TrimSpace(c.teamName)
	c.mu.Unlock()

	team, err := c.api.CreateTeam(ctx, TeamCreateRequest{
		Name: name,
		Game: c.eligibility.TournamentGame,
	})
	if err != nil {
		return "", err
	}

	// Recorded even when the flow is cancelled afterwards; the team exists
	// server-side and CreatedTeamID must report it.
	c.mu.Lock()
	c.createdTeamID = team.ID
	c.mu.Unlock()
	return team.ID, nil
}

func (c *RegistrationCoordinator) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCancelled {
		return
	}
	c.state = StateFailed
	c.lastErr = err
}
