package client

import (
	"fmt"
	"strings"

	"github.com/oupafamilly/oupafamilly/models"
)

// RoundLabel names a round by its position: the last round is the Final, the
// one before it the Semifinal, earlier rounds use their ordinal.
func RoundLabel(roundIndex, totalRounds int) string {
	switch {
	case totalRounds <= 0 || roundIndex < 1 || roundIndex > totalRounds:
		return ""
	case roundIndex == totalRounds:
		return "Final"
	case roundIndex == totalRounds-1:
		return "Semifinal"
	default:
		return fmt.Sprintf("Round %d", roundIndex)
	}
}

// SlotKind classifies a participant slot for display. Placeholder text
// ("TBD", "BYE", "Winner of Match N") renders verbatim, without icon lookup.
func SlotKind(name, slotType string) string {
	if name == "TBD" || name == models.ByeEntry || strings.Contains(name, "Winner of") {
		return models.SlotTypePlaceholder
	}
	switch slotType {
	case models.SlotTypeTeam, models.SlotTypeUser:
		return slotType
	}
	return models.SlotTypeUnknown
}
