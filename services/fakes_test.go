package services

import (
	"context"
	"time"

	"github.com/oupafamilly/oupafamilly/models"
	"github.com/oupafamilly/oupafamilly/repositories"
)

// In-memory repository doubles. They mirror the postgres implementations'
// error contracts so the services under test see the same sentinel errors.

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			copied := *u
			out[id] = &copied
		}
	}
	return out, nil
}

type fakeTeamRepo struct {
	teams map[string]*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: map[string]*models.Team{}}
	for _, t := range teams {
		r.teams[t.ID] = t
	}
	return r
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	for _, existing := range r.teams {
		if existing.Name == team.Name && existing.Game == team.Game {
			return repositories.ErrTeamNameConflict
		}
	}
	team.Members = []string{team.CaptainID}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Team, error) {
	out := map[string]*models.Team{}
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			copied := *t
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error) {
	var out []*models.Team
	for _, t := range r.teams {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTeamRepo) ListByUser(ctx context.Context, userID string) ([]*models.Team, error) {
	var out []*models.Team
	for _, t := range r.teams {
		if t.HasMember(userID) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if t.HasMember(userID) {
		return repositories.ErrTeamMemberExists
	}
	t.Members = append(t.Members, userID)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for i, m := range t.Members {
		if m == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamMemberMissing
}

func (r *fakeTeamRepo) UpdateCaptain(ctx context.Context, teamID, newCaptainID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.CaptainID = newCaptainID
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(ctx context.Context, teamID string, logoKey *string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if logoKey == nil {
		t.LogoKey = nil
	} else {
		key := *logoKey
		t.LogoKey = &key
	}
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakeTournamentRepo struct {
	tournaments  map[string]*models.Tournament
	participants map[string][]repositories.ParticipantRecord
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{
		tournaments:  map[string]*models.Tournament{},
		participants: map[string][]repositories.ParticipantRecord{},
	}
	for _, t := range tournaments {
		r.tournaments[t.ID] = t
		for _, p := range t.Participants {
			r.participants[t.ID] = append(r.participants[t.ID], repositories.ParticipantRecord{ParticipantID: p})
		}
	}
	return r
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	copied.Participants = nil
	for _, rec := range r.participants[id] {
		copied.Participants = append(copied.Participants, rec.ParticipantID)
	}
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for id := range r.tournaments {
		t, _ := r.GetByID(ctx, id)
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) Complete(ctx context.Context, id string, winnerID string, endedAt time.Time) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = models.TournamentCompleted
	t.WinnerID = &winnerID
	t.TournamentEnd = &endedAt
	return nil
}

func (r *fakeTournamentRepo) AddParticipant(ctx context.Context, tournamentID, participantID string, isTeam bool) error {
	for _, rec := range r.participants[tournamentID] {
		if rec.ParticipantID == participantID {
			return repositories.ErrParticipantConflict
		}
	}
	r.participants[tournamentID] = append(r.participants[tournamentID], repositories.ParticipantRecord{
		ParticipantID: participantID,
		IsTeam:        isTeam,
		RegisteredAt:  time.Now(),
	})
	return nil
}

func (r *fakeTournamentRepo) RemoveParticipant(ctx context.Context, tournamentID, participantID string) error {
	records := r.participants[tournamentID]
	for i, rec := range records {
		if rec.ParticipantID == participantID {
			r.participants[tournamentID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantMissing
}

func (r *fakeTournamentRepo) ListParticipants(ctx context.Context, tournamentID string) ([]repositories.ParticipantRecord, error) {
	return r.participants[tournamentID], nil
}

type fakeMatchRepo struct {
	matches []*models.Match
}

func (r *fakeMatchRepo) CreateBatch(ctx context.Context, matches []*models.Match) error {
	r.matches = append(r.matches, matches...)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	for _, m := range r.matches {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) CompleteMatch(ctx context.Context, id, winnerID string, p1Score, p2Score int, notes *string, completedAt time.Time) error {
	for _, m := range r.matches {
		if m.ID != id {
			continue
		}
		if m.Status != models.MatchScheduled {
			return repositories.ErrMatchNotScheduled
		}
		m.Status = models.MatchCompleted
		m.WinnerID = &winnerID
		m.Player1Score = p1Score
		m.Player2Score = p2Score
		m.Notes = notes
		m.CompletedAt = &completedAt
		return nil
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) SetSlot(ctx context.Context, id string, slot int, participantID string) error {
	for _, m := range r.matches {
		if m.ID != id {
			continue
		}
		if slot == 1 {
			m.Player1ID = &participantID
		} else {
			m.Player2ID = &participantID
		}
		return nil
	}
	return repositories.ErrMatchNotFound
}
