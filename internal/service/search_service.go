package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/geo"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/validation"
)

// SearchRepository выполняет запросы поиска поставщиков.
type SearchRepository interface {
	Search(ctx context.Context, f models.SearchFilter) ([]models.SearchResult, int, error)
	SuggestProviders(ctx context.Context, q string, limit int) ([]models.Suggestion, error)
}

// ProviderLanguageLoader загружает языки для набора карточек.
type ProviderLanguageLoader interface {
	ListLanguagesFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.LanguageSkill, error)
}

// OfferingSummaryLoader загружает краткие списки услуг для набора карточек.
type OfferingSummaryLoader interface {
	ListSummaries(ctx context.Context, providerIDs []uuid.UUID, perProvider int) (map[uuid.UUID][]models.OfferingSummary, error)
}

// CategorySearcher ищет категории по названию.
type CategorySearcher interface {
	SearchCategories(ctx context.Context, q string, limit int) ([]models.Category, error)
}

// SearchQuery параметры запроса поиска.
type SearchQuery struct {
	Languages  []string
	Categories []string
	City       string
	// RadiusKM nil или 0 отключает фильтр по расстоянию, расстояние до центра всё равно считается.
	RadiusKM *float64
	Mode     string
	Keyword  string
	Lat      *float64
	Lng      *float64
	Page     int
	Limit    int
}

// SearchFilters фильтры, применённые к запросу.
type SearchFilters struct {
	Languages  []string   `json:"languages"`
	Categories []string   `json:"categories"`
	City       string     `json:"city,omitempty"`
	RadiusKM   float64    `json:"radius"`
	Mode       string     `json:"mode,omitempty"`
	Keyword    string     `json:"keyword,omitempty"`
	Center     *geo.Point `json:"center,omitempty"`
}

// SearchResponse ответ поиска.
type SearchResponse struct {
	Results    []models.SearchResult `json:"results"`
	Pagination models.Pagination     `json:"pagination"`
	Filters    SearchFilters         `json:"filters"`
	// Bounds границы карты по результатам страницы.
	Bounds *geo.Bounds `json:"bounds,omitempty"`
}

// SearchOptions настройки поиска.
type SearchOptions struct {
	MaxRadiusKM float64
}

const (
	servicesPerResult = 3
	maxSuggestions    = 10
	minSuggestLength  = 2
	kmPerDegree       = 111.32
)

// SearchService ищет поставщиков по языкам, категориям и расстоянию.
type SearchService struct {
	repo       SearchRepository
	languages  ProviderLanguageLoader
	offerings  OfferingSummaryLoader
	categories CategorySearcher
	opts       SearchOptions
}

// NewSearchService создаёт сервис поиска.
func NewSearchService(repo SearchRepository, languages ProviderLanguageLoader, offerings OfferingSummaryLoader, categories CategorySearcher, opts SearchOptions) *SearchService {
	if opts.MaxRadiusKM <= 0 {
		opts.MaxRadiusKM = 200
	}
	return &SearchService{repo: repo, languages: languages, offerings: offerings, categories: categories, opts: opts}
}

// Search возвращает страницу результатов. При фильтре по радиусу расстояние
// считается по кандидатам из прямоугольника, сортировка по расстоянию.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	filter, filters, center, radius, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(q.Page, q.Limit, 20, 50)

	var (
		results []models.SearchResult
		total   int
	)
	if center != nil && radius > 0 {
		box := boxAround(*center, radius)
		filter.Box = &box
		candidates, _, err := s.repo.Search(ctx, filter)
		if err != nil {
			return nil, apperror.Internal(err, "не удалось выполнить поиск")
		}
		within := withinRadius(candidates, *center, radius)
		total = len(within)
		results = paginate(within, page, limit)
	} else {
		filter.Limit = limit
		filter.Offset = (page - 1) * limit
		results, total, err = s.repo.Search(ctx, filter)
		if err != nil {
			return nil, apperror.Internal(err, "не удалось выполнить поиск")
		}
		if center != nil {
			fillDistances(results, *center)
		}
	}

	if err := s.enrich(ctx, results); err != nil {
		return nil, err
	}
	return &SearchResponse{
		Results:    results,
		Pagination: models.NewPagination(page, limit, total),
		Filters:    filters,
		Bounds:     resultBounds(results),
	}, nil
}

func resultBounds(results []models.SearchResult) *geo.Bounds {
	if len(results) == 0 {
		return nil
	}
	coords := make([][2]*float64, len(results))
	for i, r := range results {
		coords[i] = [2]*float64{r.Latitude, r.Longitude}
	}
	b, _ := geo.FitMarkers(coords)
	return &b
}

func (s *SearchService) prepare(q SearchQuery) (models.SearchFilter, SearchFilters, *geo.Point, float64, error) {
	var f models.SearchFilter
	filters := SearchFilters{Languages: []string{}, Categories: []string{}}

	for _, code := range q.Languages {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if err := validation.ValidateLanguageCode(code); err != nil {
			return f, filters, nil, 0, apperror.Validation(err.Error())
		}
		if !containsString(f.Languages, code) {
			f.Languages = append(f.Languages, code)
		}
	}
	filters.Languages = append(filters.Languages, f.Languages...)

	for _, raw := range q.Categories {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, filters, nil, 0, apperror.Validationf("некорректный идентификатор категории: %s", raw)
		}
		f.Categories = append(f.Categories, id)
		filters.Categories = append(filters.Categories, id.String())
	}

	if q.Mode != "" {
		if err := validateServiceMode(q.Mode); err != nil {
			return f, filters, nil, 0, err
		}
		f.Mode = q.Mode
		filters.Mode = q.Mode
	}
	f.Keyword = strings.TrimSpace(q.Keyword)
	filters.Keyword = f.Keyword

	var center *geo.Point
	if q.Lat != nil || q.Lng != nil {
		p, ok := geo.FromPointers(q.Lat, q.Lng)
		if !ok {
			return f, filters, nil, 0, apperror.Validation("lat и lng должны быть заданы вместе и в допустимом диапазоне")
		}
		center = &p
	}

	city := strings.TrimSpace(q.City)
	filters.City = city

	radius := 0.0
	if q.RadiusKM != nil {
		radius = *q.RadiusKM
		if radius < 0 || math.IsNaN(radius) {
			return f, filters, nil, 0, apperror.Validation("radius не может быть отрицательным")
		}
	}

	if center == nil && city != "" {
		if known, ok := geo.LookupCity(city); ok {
			p := known.Point
			center = &p
		} else {
			f.City = city
		}
	}

	if radius > s.opts.MaxRadiusKM {
		radius = s.opts.MaxRadiusKM
	}
	filters.RadiusKM = radius
	filters.Center = center
	return f, filters, center, radius, nil
}

func (s *SearchService) enrich(ctx context.Context, results []models.SearchResult) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	langs, err := s.languages.ListLanguagesFor(ctx, ids)
	if err != nil {
		return apperror.Internal(err, "не удалось загрузить языки")
	}
	services, err := s.offerings.ListSummaries(ctx, ids, servicesPerResult)
	if err != nil {
		return apperror.Internal(err, "не удалось загрузить услуги")
	}
	for i := range results {
		results[i].Languages = langs[results[i].ID]
		if results[i].Languages == nil {
			results[i].Languages = []models.LanguageSkill{}
		}
		results[i].Services = services[results[i].ID]
		if results[i].Services == nil {
			results[i].Services = []models.OfferingSummary{}
		}
	}
	return nil
}

// Suggestions возвращает до 10 подсказок из названий поставщиков, категорий и городов.
func (s *SearchService) Suggestions(ctx context.Context, q string) ([]models.Suggestion, error) {
	q = strings.TrimSpace(q)
	out := make([]models.Suggestion, 0, maxSuggestions)
	if len([]rune(q)) < minSuggestLength {
		return out, nil
	}

	providers, err := s.repo.SuggestProviders(ctx, q, maxSuggestions)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить подсказки")
	}
	out = append(out, providers...)

	if len(out) < maxSuggestions {
		categories, err := s.categories.SearchCategories(ctx, q, maxSuggestions-len(out))
		if err != nil {
			return nil, apperror.Internal(err, "не удалось получить подсказки")
		}
		for _, c := range categories {
			out = append(out, models.Suggestion{Type: "category", Value: c.NameEN, Slug: c.Slug})
		}
	}

	if len(out) < maxSuggestions {
		for _, c := range geo.SearchCities(q, maxSuggestions-len(out), false) {
			out = append(out, models.Suggestion{Type: "city", Value: c.Name})
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

// boxAround возвращает прямоугольник, гарантированно содержащий круг радиуса radiusKM.
func boxAround(center geo.Point, radiusKM float64) models.CoordinateBox {
	dLat := radiusKM / kmPerDegree
	cos := math.Cos(center.Lat * math.Pi / 180)
	dLng := 180.0
	if cos > 0.01 {
		dLng = math.Min(radiusKM/(kmPerDegree*cos), 180)
	}
	return models.CoordinateBox{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLng: math.Max(center.Lng-dLng, -180),
		MaxLng: math.Min(center.Lng+dLng, 180),
	}
}

// withinRadius отбирает кандидатов в радиусе и сортирует по расстоянию, затем по заполненности.
func withinRadius(candidates []models.SearchResult, center geo.Point, radiusKM float64) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		p, ok := geo.FromPointers(r.Latitude, r.Longitude)
		if !ok {
			continue
		}
		d := geo.Distance(center, p)
		if d > radiusKM {
			continue
		}
		km := geo.RoundKM(d)
		r.DistanceKM = &km
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].DistanceKM != *out[j].DistanceKM {
			return *out[i].DistanceKM < *out[j].DistanceKM
		}
		return out[i].ProfileCompletenessScore > out[j].ProfileCompletenessScore
	})
	return out
}

func fillDistances(results []models.SearchResult, center geo.Point) {
	for i := range results {
		if p, ok := geo.FromPointers(results[i].Latitude, results[i].Longitude); ok {
			km := geo.RoundKM(geo.Distance(center, p))
			results[i].DistanceKM = &km
		}
	}
}

func paginate(items []models.SearchResult, page, limit int) []models.SearchResult {
	start := (page - 1) * limit
	if start >= len(items) {
		return []models.SearchResult{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
