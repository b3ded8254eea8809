package models

// EligibleTeam is a team of the current user that can carry a tournament entry.
type EligibleTeam struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Game        Game   `json:"game"`
	MemberCount int    `json:"member_count"`
	MaxMembers  int    `json:"max_members"`
	IsCaptain   bool   `json:"is_captain"`
}

// EligibilityResult is computed per tournament and user; it is never persisted.
type EligibilityResult struct {
	RequiresTeam   bool           `json:"requires_team"`
	EligibleTeams  []EligibleTeam `json:"eligible_teams"`
	TournamentGame Game           `json:"tournament_game"`
	TournamentName string         `json:"tournament_name"`
}
