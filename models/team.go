package models

import "time"

type Team struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Game        Game      `json:"game" db:"game"`
	CaptainID   string    `json:"captain_id" db:"captain_id"`
	MaxMembers  int       `json:"max_members" db:"max_members"`
	IsOpen      bool      `json:"is_open" db:"is_open"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Member user ids, loaded from team_members.
	Members []string `json:"members" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

func (t *Team) MemberCount() int {
	return len(t.Members)
}

func (t *Team) HasMember(userID string) bool {
	for _, id := range t.Members {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Team) HasCapacity() bool {
	return len(t.Members) < t.MaxMembers
}
