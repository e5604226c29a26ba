package models

import (
	"time"

	"github.com/google/uuid"
)

// Offering услуга поставщика (таблица services).
type Offering struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ProviderID       uuid.UUID `db:"provider_id" json:"provider_id"`
	CategoryID       uuid.UUID `db:"category_id" json:"category_id"`
	CategoryNameNL   *string   `db:"category_name_nl" json:"category_name_nl,omitempty"`
	CategoryNameEN   *string   `db:"category_name_en" json:"category_name_en,omitempty"`
	Title            string    `db:"title" json:"title"`
	DescriptionNL    *string   `db:"description_nl" json:"description_nl,omitempty"`
	DescriptionEN    *string   `db:"description_en" json:"description_en,omitempty"`
	PriceMin         *float64  `db:"price_min" json:"price_min,omitempty"`
	PriceMax         *float64  `db:"price_max" json:"price_max,omitempty"`
	Currency         string    `db:"currency" json:"currency"`
	PriceDescription *string   `db:"price_description" json:"price_description,omitempty"`
	ServiceMode      string    `db:"service_mode" json:"service_mode"`
	DurationMinutes  *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	SortOrder        int       `db:"sort_order" json:"sort_order"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OfferingSummary краткая запись услуги для выдачи поиска.
type OfferingSummary struct {
	ProviderID     uuid.UUID `db:"provider_id" json:"-"`
	Title          string    `db:"title" json:"title"`
	ServiceMode    string    `db:"service_mode" json:"service_mode"`
	CategoryNameEN *string   `db:"category_name" json:"category_name,omitempty"`
}
