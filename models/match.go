package models

import (
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
)

// ByeEntry marks a bracket slot that advances its opponent without playing.
const ByeEntry = "BYE"

// WinnerPlaceholderPrefix prefixes slot ids that resolve once a source match completes.
const WinnerPlaceholderPrefix = "Winner of Match "

type Match struct {
	ID           string      `json:"id" db:"id"`
	TournamentID string      `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int         `json:"round_number" db:"round_number"`
	MatchNumber  int         `json:"match_number" db:"match_number"`
	Player1ID    *string     `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID    *string     `json:"player2_id,omitempty" db:"player2_id"`
	WinnerID     *string     `json:"winner_id,omitempty" db:"winner_id"`
	Player1Score int         `json:"player1_score" db:"player1_score"`
	Player2Score int         `json:"player2_score" db:"player2_score"`
	Status       MatchStatus `json:"status" db:"status"`
	ScheduledAt  *time.Time  `json:"scheduled_time,omitempty" db:"scheduled_time"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	Notes        *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// IsPlaceholderEntry reports whether a slot id is not a real participant yet.
func IsPlaceholderEntry(id string) bool {
	return id == "" || id == ByeEntry || strings.HasPrefix(id, WinnerPlaceholderPrefix)
}

// Actionable reports whether a result may be recorded: the match is still
// scheduled and both slots hold resolved participants.
func (m *Match) Actionable() bool {
	if m.Status != MatchScheduled {
		return false
	}
	if m.Player1ID == nil || IsPlaceholderEntry(*m.Player1ID) {
		return false
	}
	if m.Player2ID == nil || IsPlaceholderEntry(*m.Player2ID) {
		return false
	}
	return true
}

// HasPlayer reports whether id occupies one of the two slots.
func (m *Match) HasPlayer(id string) bool {
	if m.Player1ID != nil && *m.Player1ID == id {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == id
}
