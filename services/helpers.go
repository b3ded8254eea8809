package services

import (
	"fmt"
	"time"

	"github.com/oupafamilly/oupafamilly/models"
	"github.com/oupafamilly/oupafamilly/storage"
)

func validateTournamentDates(regStart, regEnd, start time.Time) error {
	if regStart.IsZero() || regEnd.IsZero() || start.IsZero() {
		return ErrTournamentDatesRequired
	}
	if regEnd.After(start) {
		return fmt.Errorf("%w: registration ends %s, tournament starts %s",
			ErrTournamentInvalidRegDate, regEnd.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentDraft:      {models.TournamentOpen, models.TournamentCancelled},
		models.TournamentOpen:       {models.TournamentInProgress, models.TournamentCancelled},
		models.TournamentInProgress: {models.TournamentCompleted, models.TournamentCancelled},
		models.TournamentCompleted:  {},
		models.TournamentCancelled:  {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || uploader == nil || team.LogoKey == nil || *team.LogoKey == "" {
		return
	}
	if url := uploader.GetPublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
}

// shortID abbreviates an id for fallback display names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// teamDisplayName renders a team with its roster fill, e.g. "Bravo (3/6)".
func teamDisplayName(t *models.Team) string {
	return fmt.Sprintf("%s (%d/%d)", t.Name, t.MemberCount(), t.MaxMembers)
}
