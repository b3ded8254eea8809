package models

// Slot participant kinds as rendered in the bracket view.
const (
	SlotTypeUser        = "user"
	SlotTypeTeam        = "team"
	SlotTypePlaceholder = "placeholder"
	SlotTypeTBD         = "tbd"
	SlotTypeUnknown     = "unknown"
)

// ParticipantInfo is the display record behind a registered entry id.
type ParticipantInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	IsTeam      bool   `json:"is_team"`
	MemberCount int    `json:"member_count"`
}

// BracketMatch is a match enriched with resolved slot names for display.
type BracketMatch struct {
	Match
	Player1Name string  `json:"player1_name"`
	Player1Type string  `json:"player1_type"`
	Player2Name string  `json:"player2_name"`
	Player2Type string  `json:"player2_type"`
	WinnerName  *string `json:"winner_name,omitempty"`
}

type BracketRound struct {
	RoundNumber int            `json:"round_number"`
	Matches     []BracketMatch `json:"matches"`
}

// Bracket is the full single-elimination structure served to clients.
// An empty Rounds slice with TournamentStatus "no_bracket" means no bracket
// has been generated yet.
type Bracket struct {
	Rounds           []BracketRound             `json:"rounds"`
	TournamentStatus string                     `json:"tournament_status"`
	TournamentType   TournamentType             `json:"tournament_type,omitempty"`
	ParticipantsMap  map[string]ParticipantInfo `json:"participants_map"`
}
