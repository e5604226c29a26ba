package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/validation"
)

// OfferingRepository описывает хранилище услуг.
type OfferingRepository interface {
	Create(ctx context.Context, o *models.Offering) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offering, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool, limit, offset int) ([]models.Offering, int, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CategoryLookup находит категорию по ID.
type CategoryLookup interface {
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// ProviderOwnership определяет карточку владельца и пересчитывает заполненность.
type ProviderOwnership interface {
	OwnedProvider(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
	Recalculate(ctx context.Context, providerID uuid.UUID) (int, error)
}

// OfferingInput данные новой услуги.
type OfferingInput struct {
	Title            string   `json:"title"`
	CategoryID       string   `json:"category_id"`
	DescriptionNL    *string  `json:"description_nl"`
	DescriptionEN    *string  `json:"description_en"`
	PriceMin         *float64 `json:"price_min"`
	PriceMax         *float64 `json:"price_max"`
	Currency         string   `json:"currency"`
	PriceDescription *string  `json:"price_description"`
	ServiceMode      string   `json:"service_mode"`
	DurationMinutes  *int     `json:"duration_minutes"`
	SortOrder        int      `json:"sort_order"`
}

const defaultCurrency = "EUR"

// OfferingService управляет услугами поставщика.
type OfferingService struct {
	repo       OfferingRepository
	categories CategoryLookup
	providers  ProviderOwnership
}

// NewOfferingService создаёт сервис услуг.
func NewOfferingService(repo OfferingRepository, categories CategoryLookup, providers ProviderOwnership) *OfferingService {
	return &OfferingService{repo: repo, categories: categories, providers: providers}
}

// List возвращает услуги владельца, включая неактивные.
func (s *OfferingService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Offering, models.Pagination, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	page, limit = normalizePage(page, limit, 20, 100)
	offerings, total, err := s.repo.ListByProvider(ctx, p.ID, false, limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, apperror.Internal(err, "не удалось получить список услуг")
	}
	return offerings, models.NewPagination(page, limit, total), nil
}

// Get возвращает услугу владельца.
func (s *OfferingService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Offering, error) {
	o, _, err := s.owned(ctx, userID, id)
	return o, err
}

// Create добавляет услугу в карточку владельца.
func (s *OfferingService) Create(ctx context.Context, userID uuid.UUID, in OfferingInput) (*models.Offering, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateRequired(map[string]string{
		"title":        title,
		"category_id":  in.CategoryID,
		"service_mode": in.ServiceMode,
	}, "title", "category_id", "service_mode"); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("title", title, 1, validation.MaxServiceTitleLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validateServiceMode(in.ServiceMode); err != nil {
		return nil, err
	}
	categoryID, err := s.activeCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePrice(in.PriceMin, in.PriceMax); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if in.DurationMinutes != nil && *in.DurationMinutes <= 0 {
		return nil, apperror.Validation("duration_minutes должно быть положительным")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	o := &models.Offering{
		ProviderID:       p.ID,
		CategoryID:       categoryID,
		Title:            title,
		DescriptionNL:    trimmedOrNil(in.DescriptionNL),
		DescriptionEN:    trimmedOrNil(in.DescriptionEN),
		PriceMin:         in.PriceMin,
		PriceMax:         in.PriceMax,
		Currency:         currency,
		PriceDescription: trimmedOrNil(in.PriceDescription),
		ServiceMode:      in.ServiceMode,
		DurationMinutes:  in.DurationMinutes,
		SortOrder:        in.SortOrder,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, apperror.Internal(err, "не удалось создать услугу")
	}
	s.recalculate(ctx, p.ID)

	created, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return o, nil
	}
	return created, nil
}

// Update применяет частичное обновление услуги владельца.
func (s *OfferingService) Update(ctx context.Context, userID, id uuid.UUID, patch Patch) (*models.Offering, error) {
	current, p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields, err := s.offeringFields(ctx, patch, current)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperror.ErrNoAllowedFields
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, mapNotFound(err, repository.ErrOfferingNotFound, apperror.ErrOfferingNotFound, "не удалось обновить услугу")
	}
	s.recalculate(ctx, p.ID)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrOfferingNotFound, apperror.ErrOfferingNotFound, "не удалось загрузить услугу")
	}
	return updated, nil
}

// Delete скрывает услугу (is_active=false), запись остаётся в базе.
func (s *OfferingService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return mapNotFound(err, repository.ErrOfferingNotFound, apperror.ErrOfferingNotFound, "не удалось удалить услугу")
	}
	s.recalculate(ctx, p.ID)
	return nil
}

func (s *OfferingService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Offering, *models.Provider, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapNotFound(err, repository.ErrOfferingNotFound, apperror.ErrOfferingNotFound, "не удалось загрузить услугу")
	}
	if o.ProviderID != p.ID {
		return nil, nil, apperror.ErrForbidden
	}
	return o, p, nil
}

func (s *OfferingService) offeringFields(ctx context.Context, patch Patch, current *models.Offering) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	priceMin, priceMax := current.PriceMin, current.PriceMax

	for _, key := range patch.Fields() {
		raw := patch[key]
		switch key {
		case "title":
			v, err := optionalText(key, raw, validation.MaxServiceTitleLength)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, apperror.Validation("title не может быть пустым")
			}
			fields[key] = *v

		case "description_nl", "description_en", "price_description":
			v, err := optionalText(key, raw, validation.MaxBioLength)
			if err != nil {
				return nil, err
			}
			fields[key] = nullable(v)

		case "category_id":
			var id string
			if err := decodeString(key, raw, &id); err != nil {
				return nil, err
			}
			categoryID, err := s.activeCategory(ctx, id)
			if err != nil {
				return nil, err
			}
			fields[key] = categoryID

		case "service_mode":
			var mode string
			if err := decodeString(key, raw, &mode); err != nil {
				return nil, err
			}
			if err := validateServiceMode(mode); err != nil {
				return nil, err
			}
			fields[key] = mode

		case "currency":
			var currency string
			if err := decodeString(key, raw, &currency); err != nil {
				return nil, err
			}
			currency = strings.ToUpper(strings.TrimSpace(currency))
			if len(currency) != 3 {
				return nil, apperror.Validation("currency должен быть трёхбуквенным кодом")
			}
			fields[key] = currency

		case "price_min", "price_max":
			v, err := optionalFloat(key, raw)
			if err != nil {
				return nil, err
			}
			if key == "price_min" {
				priceMin = v
			} else {
				priceMax = v
			}
			fields[key] = nullable(v)

		case "duration_minutes":
			if isNull(raw) {
				fields[key] = nil
				continue
			}
			n, err := decodeInt(key, raw)
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, apperror.Validation("duration_minutes должно быть положительным")
			}
			fields[key] = n

		case "is_active":
			b, err := decodeBool(key, raw)
			if err != nil {
				return nil, err
			}
			fields[key] = b

		case "sort_order":
			n, err := decodeInt(key, raw)
			if err != nil {
				return nil, err
			}
			fields[key] = n
		}
	}

	if err := validation.ValidatePrice(priceMin, priceMax); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return fields, nil
}

func (s *OfferingService) activeCategory(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation("category_id должен быть UUID")
	}
	c, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return uuid.Nil, apperror.Validation("категория не найдена")
		}
		return uuid.Nil, apperror.Internal(err, "не удалось проверить категорию")
	}
	if !c.IsActive {
		return uuid.Nil, apperror.Validation("категория неактивна")
	}
	return c.ID, nil
}

// recalculate пересчитывает заполненность; ошибка не отменяет уже сохранённое изменение.
func (s *OfferingService) recalculate(ctx context.Context, providerID uuid.UUID) {
	if _, err := s.providers.Recalculate(ctx, providerID); err != nil {
		logRecalcError("offering", providerID, err)
	}
}

func validateServiceMode(mode string) error {
	if _, ok := models.ValidServiceModes[mode]; !ok {
		return apperror.Validation("service_mode должен быть in_person, online или both")
	}
	return nil
}
