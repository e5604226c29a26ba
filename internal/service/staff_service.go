package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/validation"
)

// StaffRepository описывает хранилище сотрудников.
type StaffRepository interface {
	Create(ctx context.Context, s *models.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error)
	ListContactable(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, langs []models.LanguageSkill) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProviderReader читает карточку по ID.
type ProviderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

// StaffInput данные нового сотрудника.
type StaffInput struct {
	Name      string                 `json:"name"`
	Role      *string                `json:"role"`
	BioNL     *string                `json:"bio_nl"`
	BioEN     *string                `json:"bio_en"`
	Email     *string                `json:"email"`
	Phone     *string                `json:"phone"`
	PhotoURL  *string                `json:"photo_url"`
	IsActive  *bool                  `json:"is_active"`
	IsPublic  *bool                  `json:"is_public"`
	SortOrder int                    `json:"sort_order"`
	Languages []models.LanguageSkill `json:"languages"`
}

// ContactConfig настройки связи с сотрудником через форму.
type ContactConfig struct {
	ContactEnabled         *bool   `json:"contact_enabled"`
	IsContactPerson        *bool   `json:"is_contact_person"`
	PreferredContactMethod *string `json:"preferred_contact_method"`
	ResponseTimeHours      *int    `json:"response_time_hours"`
	AvailabilityNote       *string `json:"availability_note"`
}

const (
	minResponseHours = 1
	maxResponseHours = 168
)

// StaffService управляет сотрудниками поставщика.
type StaffService struct {
	repo      StaffRepository
	providers ProviderOwnership
	reader    ProviderReader
	catalog   LanguageCatalog
}

// NewStaffService создаёт сервис сотрудников.
func NewStaffService(repo StaffRepository, providers ProviderOwnership, reader ProviderReader, catalog LanguageCatalog) *StaffService {
	return &StaffService{repo: repo, providers: providers, reader: reader, catalog: catalog}
}

// ListContactable возвращает сотрудников видимой карточки, с которыми можно связаться.
func (s *StaffService) ListContactable(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	p, err := s.reader.GetByID(ctx, providerID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	if !p.IsVisible() {
		return nil, apperror.ErrProviderNotFound
	}
	staff, err := s.repo.ListContactable(ctx, providerID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить сотрудников")
	}
	for i := range staff {
		staff[i] = staff[i].ContactCard()
	}
	return staff, nil
}

// ListMy возвращает всех сотрудников владельца.
func (s *StaffService) ListMy(ctx context.Context, userID uuid.UUID) ([]models.Staff, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	staff, err := s.repo.ListByProvider(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить сотрудников")
	}
	return staff, nil
}

// Get возвращает сотрудника владельца.
func (s *StaffService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Staff, error) {
	member, _, err := s.owned(ctx, userID, id)
	return member, err
}

// Create добавляет сотрудника.
func (s *StaffService) Create(ctx context.Context, userID uuid.UUID, in StaffInput) (*models.Staff, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateLength("name", name, 1, validation.MaxStaffNameLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	email := trimmedOrNil(in.Email)
	if email != nil {
		if err := validation.ValidateEmail(*email); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		normalized := validation.NormalizeEmail(*email)
		email = &normalized
	}
	phone := trimmedOrNil(in.Phone)
	if phone != nil {
		if err := validation.ValidatePhone(*phone); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}
	photo := trimmedOrNil(in.PhotoURL)
	if photo != nil && !strings.HasPrefix(*photo, "/media/") {
		if err := validation.ValidateHTTPURL("photo_url", *photo); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}
	langs, err := normalizeLanguageSkills(ctx, s.catalog, in.Languages)
	if err != nil {
		return nil, err
	}

	member := &models.Staff{
		ProviderID: p.ID,
		Name:       name,
		Role:       trimmedOrNil(in.Role),
		BioNL:      trimmedOrNil(in.BioNL),
		BioEN:      trimmedOrNil(in.BioEN),
		Email:      email,
		Phone:      phone,
		PhotoURL:   photo,
		IsActive:   in.IsActive == nil || *in.IsActive,
		IsPublic:   in.IsPublic == nil || *in.IsPublic,
		SortOrder:  in.SortOrder,
		Languages:  langs,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, apperror.Internal(err, "не удалось создать сотрудника")
	}
	s.recalculate(ctx, p.ID)
	return member, nil
}

// Update применяет частичное обновление сотрудника.
func (s *StaffService) Update(ctx context.Context, userID, id uuid.UUID, patch Patch) (*models.Staff, error) {
	_, p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields, langs, err := s.staffFields(ctx, patch)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 && langs == nil {
		return nil, apperror.ErrNoAllowedFields
	}
	return s.apply(ctx, p.ID, id, fields, langs)
}

// UpdateContactConfig меняет настройки связи с сотрудником.
func (s *StaffService) UpdateContactConfig(ctx context.Context, userID, id uuid.UUID, cfg ContactConfig) (*models.Staff, error) {
	_, p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if cfg.ContactEnabled != nil {
		fields["contact_enabled"] = *cfg.ContactEnabled
	}
	if cfg.IsContactPerson != nil {
		fields["is_contact_person"] = *cfg.IsContactPerson
	}
	if cfg.PreferredContactMethod != nil {
		method := strings.TrimSpace(*cfg.PreferredContactMethod)
		if _, ok := models.ValidContactMethods[method]; !ok {
			return nil, apperror.Validation("preferred_contact_method должен быть email, phone или both")
		}
		fields["preferred_contact_method"] = method
	}
	if cfg.ResponseTimeHours != nil {
		hours := *cfg.ResponseTimeHours
		if hours < minResponseHours || hours > maxResponseHours {
			return nil, apperror.Validationf("response_time_hours должно быть от %d до %d", minResponseHours, maxResponseHours)
		}
		fields["response_time_hours"] = hours
	}
	if cfg.AvailabilityNote != nil {
		note := trimmedOrNil(cfg.AvailabilityNote)
		if note != nil {
			if err := validation.ValidateLength("availability_note", *note, 0, validation.MaxNoteLength); err != nil {
				return nil, apperror.Validation(err.Error())
			}
		}
		fields["availability_note"] = nullable(note)
	}
	if len(fields) == 0 {
		return nil, apperror.ErrNoAllowedFields
	}
	return s.apply(ctx, p.ID, id, fields, nil)
}

// Delete удаляет сотрудника вместе с языками.
func (s *StaffService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err, repository.ErrStaffNotFound, apperror.ErrStaffNotFound, "не удалось удалить сотрудника")
	}
	s.recalculate(ctx, p.ID)
	return nil
}

func (s *StaffService) apply(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, langs []models.LanguageSkill) (*models.Staff, error) {
	if err := s.repo.Update(ctx, id, fields, langs); err != nil {
		return nil, mapNotFound(err, repository.ErrStaffNotFound, apperror.ErrStaffNotFound, "не удалось обновить сотрудника")
	}
	s.recalculate(ctx, providerID)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrStaffNotFound, apperror.ErrStaffNotFound, "не удалось загрузить сотрудника")
	}
	return updated, nil
}

func (s *StaffService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Staff, *models.Provider, error) {
	p, err := s.providers.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapNotFound(err, repository.ErrStaffNotFound, apperror.ErrStaffNotFound, "не удалось загрузить сотрудника")
	}
	if member.ProviderID != p.ID {
		return nil, nil, apperror.ErrForbidden
	}
	return member, p, nil
}

// staffFields разбирает допустимые поля; languages == nil означает, что языки не менялись.
func (s *StaffService) staffFields(ctx context.Context, patch Patch) (map[string]interface{}, []models.LanguageSkill, error) {
	fields := make(map[string]interface{})
	var langs []models.LanguageSkill

	for _, key := range patch.Fields() {
		raw := patch[key]
		switch key {
		case "name":
			v, err := optionalText(key, raw, validation.MaxStaffNameLength)
			if err != nil {
				return nil, nil, err
			}
			if v == nil {
				return nil, nil, apperror.Validation("name не может быть пустым")
			}
			fields[key] = *v

		case "role", "bio_nl", "bio_en":
			v, err := optionalText(key, raw, validation.MaxBioLength)
			if err != nil {
				return nil, nil, err
			}
			fields[key] = nullable(v)

		case "email":
			v, err := optionalText(key, raw, 255)
			if err != nil {
				return nil, nil, err
			}
			if v != nil {
				if err := validation.ValidateEmail(*v); err != nil {
					return nil, nil, apperror.Validation(err.Error())
				}
				normalized := validation.NormalizeEmail(*v)
				v = &normalized
			}
			fields[key] = nullable(v)

		case "phone":
			v, err := optionalText(key, raw, validation.MaxPhoneLength)
			if err != nil {
				return nil, nil, err
			}
			if v != nil {
				if err := validation.ValidatePhone(*v); err != nil {
					return nil, nil, apperror.Validation(err.Error())
				}
			}
			fields[key] = nullable(v)

		case "photo_url":
			v, err := optionalText(key, raw, validation.MaxURLLength)
			if err != nil {
				return nil, nil, err
			}
			if v != nil && !strings.HasPrefix(*v, "/media/") {
				if err := validation.ValidateHTTPURL(key, *v); err != nil {
					return nil, nil, apperror.Validation(err.Error())
				}
			}
			fields[key] = nullable(v)

		case "is_active", "is_public":
			b, err := decodeBool(key, raw)
			if err != nil {
				return nil, nil, err
			}
			fields[key] = b

		case "sort_order":
			n, err := decodeInt(key, raw)
			if err != nil {
				return nil, nil, err
			}
			fields[key] = n

		case "languages":
			var in []models.LanguageSkill
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &in); err != nil {
					return nil, nil, apperror.Validation("languages: ожидается список {language_code, cefr_level}")
				}
			}
			normalized, err := normalizeLanguageSkills(ctx, s.catalog, in)
			if err != nil {
				return nil, nil, err
			}
			langs = normalized
		}
	}
	return fields, langs, nil
}

func (s *StaffService) recalculate(ctx context.Context, providerID uuid.UUID) {
	if _, err := s.providers.Recalculate(ctx, providerID); err != nil {
		logRecalcError("staff", providerID, err)
	}
}
