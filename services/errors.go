package services

import "errors"

// Shared service errors, mapped to HTTP responses in one place by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password must be at least 8 characters")
	ErrTeamNameRequired        = errors.New("team name is required")
	ErrTeamFull                = errors.New("team is full")
	ErrTeamClosed              = errors.New("team is not accepting new members")
	ErrUserAlreadyInTeam       = errors.New("user is already a member of this team")
	ErrUserNotInTeam           = errors.New("user is not a member of this team")
	ErrCaptainMustTransfer     = errors.New("captain must transfer captaincy or disband the team before leaving")
	ErrRegistrationNotOpen     = errors.New("tournament is not open for registration")
	ErrRegistrationPeriodEnded = errors.New("registration period has ended")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrTeamRequired            = errors.New("this tournament requires a team entry")
	ErrTeamGameMismatch        = errors.New("team game does not match the tournament game")
	ErrUnregisterInProgress    = errors.New("cannot unregister from an ongoing tournament")
	ErrNotRegistered           = errors.New("not registered for this tournament")
	ErrWinnerNotInMatch        = errors.New("winner must be one of the match participants")
	ErrMatchNotActionable      = errors.New("match result can no longer be recorded")
	ErrBracketExists           = errors.New("bracket has already been generated for this tournament")
	ErrBracketUnsupported      = errors.New("bracket generation is not supported for this tournament type")
	ErrNotEnoughParticipants   = errors.New("tournament needs at least 2 participants to generate a bracket")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrTeamNameConflict     = errors.New("a team with this name already exists for this game")
	ErrRegistrationConflict = errors.New("already registered for this tournament")

	// Authentication and authorization
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrUserMustBeCaptain      = errors.New("only the team captain can register the team")

	// Entity-specific not-found errors
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Tournament lifecycle
	ErrTournamentDatesRequired           = errors.New("registration, start and end dates are required")
	ErrTournamentInvalidRegDate          = errors.New("registration must close before the tournament starts")
	ErrTournamentInvalidCapacity         = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
)
