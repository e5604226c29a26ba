package models

import "github.com/google/uuid"

// SearchFilter параметры поиска поставщиков.
type SearchFilter struct {
	Languages  []string
	Categories []uuid.UUID
	City       string
	Mode       string
	Keyword    string
	// Box ограничивает выборку прямоугольником координат (предфильтр для радиуса).
	Box *CoordinateBox
	// Limit 0 означает выборку всех кандидатов без пагинации.
	Limit  int
	Offset int
}

// CoordinateBox прямоугольник широт и долгот.
type CoordinateBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// SearchResult поставщик в выдаче поиска.
type SearchResult struct {
	ID                       uuid.UUID         `db:"id" json:"id"`
	BusinessName             string            `db:"business_name" json:"business_name"`
	Slug                     string            `db:"slug" json:"slug"`
	City                     *string           `db:"city" json:"city,omitempty"`
	Address                  *string           `db:"address" json:"address,omitempty"`
	Latitude                 *float64          `db:"latitude" json:"latitude,omitempty"`
	Longitude                *float64          `db:"longitude" json:"longitude,omitempty"`
	BioNL                    *string           `db:"bio_nl" json:"bio_nl,omitempty"`
	BioEN                    *string           `db:"bio_en" json:"bio_en,omitempty"`
	LogoURL                  *string           `db:"logo_url" json:"logo_url,omitempty"`
	ProfileCompletenessScore int               `db:"profile_completeness_score" json:"profile_completeness_score"`
	DistanceKM               *float64          `db:"-" json:"distance_km,omitempty"`
	Languages                []LanguageSkill   `db:"-" json:"languages"`
	Services                 []OfferingSummary `db:"-" json:"services"`
}

// Pagination метаданные постраничной выдачи.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination рассчитывает количество страниц.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Suggestion подсказка для строки поиска.
type Suggestion struct {
	Type  string `db:"type" json:"type"`
	Value string `db:"value" json:"value"`
	Slug  string `db:"slug" json:"slug,omitempty"`
}
