package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Provider описывает карточку поставщика услуг в каталоге.
type Provider struct {
	ID                       uuid.UUID    `db:"id" json:"id"`
	UserID                   uuid.UUID    `db:"user_id" json:"user_id"`
	BusinessName             string       `db:"business_name" json:"business_name"`
	Slug                     string       `db:"slug" json:"slug"`
	Email                    *string      `db:"email" json:"email,omitempty"`
	Phone                    *string      `db:"phone" json:"phone,omitempty"`
	Website                  *string      `db:"website" json:"website,omitempty"`
	Address                  *string      `db:"address" json:"address,omitempty"`
	City                     *string      `db:"city" json:"city,omitempty"`
	PostalCode               *string      `db:"postal_code" json:"postal_code,omitempty"`
	Country                  string       `db:"country" json:"country"`
	Latitude                 *float64     `db:"latitude" json:"latitude,omitempty"`
	Longitude                *float64     `db:"longitude" json:"longitude,omitempty"`
	KVKNumber                *string      `db:"kvk_number" json:"kvk_number,omitempty"`
	BTWNumber                *string      `db:"btw_number" json:"btw_number,omitempty"`
	BioNL                    *string      `db:"bio_nl" json:"bio_nl,omitempty"`
	BioEN                    *string      `db:"bio_en" json:"bio_en,omitempty"`
	BioDE                    *string      `db:"bio_de" json:"bio_de,omitempty"`
	BioAR                    *string      `db:"bio_ar" json:"bio_ar,omitempty"`
	LogoURL                  *string      `db:"logo_url" json:"logo_url,omitempty"`
	OpeningHours             OpeningHours `db:"opening_hours" json:"opening_hours"`
	SocialLinks              SocialLinks  `db:"social_links" json:"social_links"`
	Status                   string       `db:"status" json:"status"`
	SubscriptionStatus       string       `db:"subscription_status" json:"subscription_status"`
	TrialStartedAt           *time.Time   `db:"trial_started_at" json:"trial_started_at,omitempty"`
	TrialExpiresAt           *time.Time   `db:"trial_expires_at" json:"trial_expires_at,omitempty"`
	ApprovedAt               *time.Time   `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason          *string      `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProfileCompletenessScore int          `db:"profile_completeness_score" json:"profile_completeness_score"`
	CreatedAt                time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time    `db:"updated_at" json:"updated_at"`
}

// IsVisible сообщает, показывается ли карточка публично.
func (p *Provider) IsVisible() bool {
	return p != nil && p.Status == ProviderStatusApproved && p.SubscriptionStatus != SubscriptionFrozen
}

// TrialExpired сообщает, истёк ли пробный период на момент now.
func (p *Provider) TrialExpired(now time.Time) bool {
	if p.SubscriptionStatus != SubscriptionTrial || p.TrialExpiresAt == nil {
		return false
	}
	return now.After(*p.TrialExpiresAt)
}

// PublicCopy возвращает копию без регистрационных и модерационных данных.
func (p *Provider) PublicCopy() *Provider {
	cp := *p
	cp.KVKNumber = nil
	cp.BTWNumber = nil
	cp.RejectionReason = nil
	return &cp
}

// HasBio сообщает, заполнено ли описание хотя бы на одном языке.
func (p *Provider) HasBio() bool {
	for _, bio := range []*string{p.BioNL, p.BioEN, p.BioDE, p.BioAR} {
		if bio != nil && *bio != "" {
			return true
		}
	}
	return false
}

// TimeSlot интервал работы в формате HH:MM.
type TimeSlot struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// DaySchedule расписание на один день недели.
type DaySchedule struct {
	Open  bool       `json:"open"`
	Slots []TimeSlot `json:"slots"`
}

// OpeningHours часы работы по дням недели (mon..sun), хранится в JSONB.
type OpeningHours map[string]DaySchedule

// Weekdays допустимые ключи OpeningHours в порядке недели.
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Value реализует driver.Valuer.
func (h OpeningHours) Value() (driver.Value, error) {
	return marshalJSONValue(h)
}

// Scan реализует sql.Scanner.
func (h *OpeningHours) Scan(src interface{}) error {
	return scanJSON(src, h)
}

// SocialLinks ссылки на соцсети: платформа -> URL.
type SocialLinks map[string]string

// Value реализует driver.Valuer.
func (s SocialLinks) Value() (driver.Value, error) {
	return marshalJSONValue(s)
}

// Scan реализует sql.Scanner.
func (s *SocialLinks) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func marshalJSONValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return "{}", nil
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: неподдерживаемый тип %T для JSON поля", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// GalleryImage изображение галереи поставщика.
type GalleryImage struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	URL        string    `db:"url" json:"url"`
	Path       string    `db:"path" json:"-"`
	Alt        *string   `db:"alt" json:"alt,omitempty"`
	Width      *int      `db:"width" json:"w,omitempty"`
	Height     *int      `db:"height" json:"h,omitempty"`
	SortOrder  int       `db:"sort_order" json:"sort_order"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// LanguageSkill язык и уровень владения им (CEFR).
type LanguageSkill struct {
	LanguageCode string  `db:"language_code" json:"language_code"`
	CEFRLevel    string  `db:"cefr_level" json:"cefr_level"`
	NameEN       *string `db:"name_en" json:"name_en,omitempty"`
	NameNative   *string `db:"name_native" json:"name_native,omitempty"`
}

// ProviderDetails полная карточка для владельца и публичной страницы.
type ProviderDetails struct {
	*Provider
	Languages    []LanguageSkill `json:"languages"`
	Services     []Offering      `json:"services"`
	Staff        []Staff         `json:"staff"`
	Gallery      []GalleryImage  `json:"gallery"`
	TrialExpired bool            `json:"trial_expired"`
}
