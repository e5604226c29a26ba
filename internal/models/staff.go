package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff сотрудник поставщика.
type Staff struct {
	ID                     uuid.UUID       `db:"id" json:"id"`
	ProviderID             uuid.UUID       `db:"provider_id" json:"provider_id"`
	Name                   string          `db:"name" json:"name"`
	Role                   *string         `db:"role" json:"role,omitempty"`
	BioNL                  *string         `db:"bio_nl" json:"bio_nl,omitempty"`
	BioEN                  *string         `db:"bio_en" json:"bio_en,omitempty"`
	Email                  *string         `db:"email" json:"email,omitempty"`
	Phone                  *string         `db:"phone" json:"phone,omitempty"`
	PhotoURL               *string         `db:"photo_url" json:"photo_url,omitempty"`
	IsContactPerson        bool            `db:"is_contact_person" json:"is_contact_person"`
	ContactEnabled         bool            `db:"contact_enabled" json:"contact_enabled"`
	PreferredContactMethod string          `db:"preferred_contact_method" json:"preferred_contact_method"`
	ResponseTimeHours      int             `db:"response_time_hours" json:"response_time_hours"`
	AvailabilityNote       *string         `db:"availability_note" json:"availability_note,omitempty"`
	IsActive               bool            `db:"is_active" json:"is_active"`
	IsPublic               bool            `db:"is_public" json:"is_public"`
	SortOrder              int             `db:"sort_order" json:"sort_order"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
	Languages              []LanguageSkill `db:"-" json:"languages"`
}

// ContactCard возвращает копию сотрудника только с теми контактами,
// которые разрешены его предпочтительным способом связи.
func (s Staff) ContactCard() Staff {
	card := s
	switch s.PreferredContactMethod {
	case ContactMethodEmail:
		card.Phone = nil
	case ContactMethodPhone:
		card.Email = nil
	}
	return card
}
