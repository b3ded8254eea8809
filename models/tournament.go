package models

import (
	"strconv"
	"strings"
	"time"
)

// TournamentStatus represents the tournament lifecycle states.
type TournamentStatus string

const (
	TournamentDraft      TournamentStatus = "draft"
	TournamentOpen       TournamentStatus = "open"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
	TournamentCancelled  TournamentStatus = "cancelled"
)

type TournamentType string

const (
	TypeElimination TournamentType = "elimination"
	TypeBracket     TournamentType = "bracket"
	TypeRoundRobin  TournamentType = "round_robin"
)

type Game string

const (
	GameCS2       Game = "cs2"
	GameWoW       Game = "wow"
	GameLoL       Game = "lol"
	GameSC2       Game = "sc2"
	GameMinecraft Game = "minecraft"
)

type Tournament struct {
	ID                string           `json:"id" db:"id"`
	Title             string           `json:"title" db:"title"`
	Description       string           `json:"description" db:"description"`
	Game              Game             `json:"game" db:"game"`
	TournamentType    TournamentType   `json:"tournament_type" db:"tournament_type"`
	MatchFormat       string           `json:"match_format" db:"match_format"`
	MaxParticipants   int              `json:"max_participants" db:"max_participants"`
	Status            TournamentStatus `json:"status" db:"status"`
	RegistrationStart time.Time        `json:"registration_start" db:"registration_start"`
	RegistrationEnd   time.Time        `json:"registration_end" db:"registration_end"`
	TournamentStart   time.Time        `json:"tournament_start" db:"tournament_start"`
	TournamentEnd     *time.Time       `json:"tournament_end,omitempty" db:"tournament_end"`
	Rules             string           `json:"rules" db:"rules"`
	OrganizerID       string           `json:"organizer_id" db:"organizer_id"`
	WinnerID          *string          `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`

	// Registered entry ids (user ids or team ids), loaded from tournament_participants.
	Participants []string `json:"participants" db:"-"`
}

// RegistrationOpen reports whether new entries are accepted at time now.
func (t *Tournament) RegistrationOpen(now time.Time) bool {
	return t.Status == TournamentOpen && now.Before(t.RegistrationEnd)
}

func (t *Tournament) Full() bool {
	return len(t.Participants) >= t.MaxParticipants
}

func (t *Tournament) HasParticipant(id string) bool {
	for _, p := range t.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// RequiresTeam reports whether a match format describes team-based entries.
// Formats of the shape "NvN" with N > 1 ("2v2", "5v5") are team formats;
// "1v1" and anything unparseable is an individual entry.
func RequiresTeam(matchFormat string) bool {
	return FormatTeamSize(matchFormat) > 1
}

// FormatTeamSize returns the players-per-entry count of an "NvN" match format,
// or 0 when the format does not follow that shape.
func FormatTeamSize(matchFormat string) int {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(matchFormat)), "v", 2)
	if len(parts) != 2 {
		return 0
	}
	left, err := strconv.Atoi(parts[0])
	if err != nil || left < 1 {
		return 0
	}
	right, err := strconv.Atoi(parts[1])
	if err != nil || right != left {
		return 0
	}
	return left
}
