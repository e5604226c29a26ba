package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/storage"
	"github.com/lingora/lingora-backend/internal/validation"
)

// Поля загрузки изображений
const (
	UploadFieldGallery = "gallery"
	UploadFieldLogo    = "logo"
)

// ProviderRepository описывает хранилище карточек поставщиков.
type ProviderRepository interface {
	SlugChecker
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	GetBySlug(ctx context.Context, slug string) (*models.Provider, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Provider, int, error)
	ListAdmin(ctx context.Context, status, subscription string, limit, offset int) ([]models.Provider, int, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Provider, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, approvedAt *time.Time) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, status string) error
	UpdateCompleteness(ctx context.Context, id uuid.UUID, score int) error
	GetCompletenessCounts(ctx context.Context, id uuid.UUID) (repository.CompletenessCounts, error)
	ListLanguages(ctx context.Context, providerID uuid.UUID) ([]models.LanguageSkill, error)
	ReplaceLanguages(ctx context.Context, providerID uuid.UUID, langs []models.LanguageSkill) error
	AddImage(ctx context.Context, img *models.GalleryImage) error
	ListImages(ctx context.Context, providerID uuid.UUID) ([]models.GalleryImage, error)
	CountImages(ctx context.Context, providerID uuid.UUID) (int, error)
	DeleteImage(ctx context.Context, providerID, imageID uuid.UUID) (*models.GalleryImage, error)
}

// OfferingLister отдаёт услуги поставщика.
type OfferingLister interface {
	ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool, limit, offset int) ([]models.Offering, int, error)
}

// StaffLister отдаёт сотрудников поставщика.
type StaffLister interface {
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error)
}

// AdminDirectory возвращает администраторов для уведомлений.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// FileStore сохраняет и удаляет загруженные файлы.
type FileStore interface {
	Save(ctx context.Context, dir, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

// ProviderOptions настройки сервиса карточек.
type ProviderOptions struct {
	GalleryMaxImages int
	MediaURLPrefix   string
	MaxUploadMB      int64
}

// ProviderDeps зависимости ProviderService.
type ProviderDeps struct {
	Repo      ProviderRepository
	Offerings OfferingLister
	Staff     StaffLister
	Catalog   LanguageCatalog
	Admins    AdminDirectory
	Files     FileStore
	Events    EventBroadcaster
}

// ProviderService управляет карточками поставщиков: профилем, модерацией, языками и галереей.
type ProviderService struct {
	repo      ProviderRepository
	offerings OfferingLister
	staff     StaffLister
	catalog   LanguageCatalog
	admins    AdminDirectory
	files     FileStore
	events    EventBroadcaster
	opts      ProviderOptions
	now       func() time.Time
}

// NewProviderService создаёт сервис карточек.
func NewProviderService(deps ProviderDeps, opts ProviderOptions) *ProviderService {
	if opts.GalleryMaxImages <= 0 {
		opts.GalleryMaxImages = 6
	}
	if opts.MediaURLPrefix == "" {
		opts.MediaURLPrefix = "/media"
	}
	return &ProviderService{
		repo:      deps.Repo,
		offerings: deps.Offerings,
		staff:     deps.Staff,
		catalog:   deps.Catalog,
		admins:    deps.Admins,
		files:     deps.Files,
		events:    orNoopBroadcaster(deps.Events),
		opts:      opts,
		now:       time.Now,
	}
}

// OwnedProvider возвращает карточку, принадлежащую пользователю.
func (s *ProviderService) OwnedProvider(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	return p, nil
}

// ListPublic возвращает видимые карточки без служебных полей.
func (s *ProviderService) ListPublic(ctx context.Context, page, limit int) ([]models.Provider, models.Pagination, error) {
	page, limit = normalizePage(page, limit, 20, 50)
	providers, total, err := s.repo.ListPublic(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, apperror.Internal(err, "не удалось получить список поставщиков")
	}
	for i := range providers {
		providers[i] = *providers[i].PublicCopy()
	}
	return providers, models.NewPagination(page, limit, total), nil
}

// ListAdmin возвращает все карточки для модерации.
func (s *ProviderService) ListAdmin(ctx context.Context, status, subscription string, page, limit int) ([]models.Provider, models.Pagination, error) {
	if status != "" {
		if _, ok := models.ValidProviderStatuses[status]; !ok {
			return nil, models.Pagination{}, apperror.Validationf("некорректный статус: %s", status)
		}
	}
	if subscription != "" {
		if _, ok := models.ValidSubscriptionStatuses[subscription]; !ok {
			return nil, models.Pagination{}, apperror.Validationf("некорректный статус подписки: %s", subscription)
		}
	}
	page, limit = normalizePage(page, limit, 50, 100)
	providers, total, err := s.repo.ListAdmin(ctx, status, subscription, limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, apperror.Internal(err, "не удалось получить список поставщиков")
	}
	return providers, models.NewPagination(page, limit, total), nil
}

// GetMy возвращает полную карточку владельца.
func (s *ProviderService) GetMy(ctx context.Context, userID uuid.UUID) (*models.ProviderDetails, error) {
	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, p, false)
}

// GetPublic возвращает публичную карточку по slug. Скрытые карточки не отличаются от отсутствующих.
func (s *ProviderService) GetPublic(ctx context.Context, slug string) (*models.ProviderDetails, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	if !p.IsVisible() {
		return nil, apperror.ErrProviderNotFound
	}
	return s.details(ctx, p.PublicCopy(), true)
}

func (s *ProviderService) details(ctx context.Context, p *models.Provider, public bool) (*models.ProviderDetails, error) {
	langs, err := s.repo.ListLanguages(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить языки")
	}
	offerings, _, err := s.offerings.ListByProvider(ctx, p.ID, public, 0, 0)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить услуги")
	}
	staff, err := s.staff.ListByProvider(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить сотрудников")
	}
	if public {
		visible := make([]models.Staff, 0, len(staff))
		for _, member := range staff {
			if member.IsActive && member.IsPublic {
				visible = append(visible, member.ContactCard())
			}
		}
		staff = visible
	}
	gallery, err := s.repo.ListImages(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить галерею")
	}

	return &models.ProviderDetails{
		Provider:     p,
		Languages:    langs,
		Services:     offerings,
		Staff:        staff,
		Gallery:      gallery,
		TrialExpired: p.TrialExpired(s.now()),
	}, nil
}

// UpdateMy применяет частичное обновление профиля владельца. Неизвестные поля игнорируются.
func (s *ProviderService) UpdateMy(ctx context.Context, userID uuid.UUID, patch Patch) (*models.Provider, error) {
	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields, err := s.profileFields(patch)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperror.ErrNoAllowedFields
	}

	if name, ok := fields["business_name"].(string); ok && name != p.BusinessName {
		slug, err := uniqueSlug(ctx, s.repo, name, p.ID)
		if err != nil {
			return nil, apperror.Internal(err, "не удалось сформировать адрес страницы")
		}
		fields["slug"] = slug
	}

	updated, err := s.repo.UpdateFields(ctx, p.ID, fields)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось сохранить профиль")
	}

	score, err := s.recalculate(ctx, updated)
	if err != nil {
		return nil, err
	}
	updated.ProfileCompletenessScore = score

	saved := make([]string, 0, len(fields))
	for _, f := range patch.Fields() {
		if _, ok := fields[f]; ok {
			saved = append(saved, f)
		}
	}
	notify(s.events, userID, EventProviderSaved, map[string]interface{}{
		"provider_id":                updated.ID,
		"fields":                     saved,
		"slug":                       updated.Slug,
		"profile_completeness_score": score,
	})
	return updated, nil
}

var profileTextFields = map[string]int{
	"address":     validation.MaxAddressLength,
	"city":        validation.MaxCityLength,
	"postal_code": validation.MaxPostalCodeLength,
	"bio_nl":      validation.MaxBioLength,
	"bio_en":      validation.MaxBioLength,
	"bio_de":      validation.MaxBioLength,
	"bio_ar":      validation.MaxBioLength,
}

// profileFields переводит допустимые поля тела запроса в значения колонок.
func (s *ProviderService) profileFields(patch Patch) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	var lat, lng *float64

	for _, key := range patch.Fields() {
		raw := patch[key]
		switch key {
		case "business_name":
			name, err := optionalText(key, raw, validation.MaxBusinessNameLength)
			if err != nil {
				return nil, err
			}
			if name == nil {
				return nil, apperror.Validation("business_name не может быть пустым")
			}
			fields[key] = *name

		case "address", "city", "postal_code", "bio_nl", "bio_en", "bio_de", "bio_ar":
			v, err := optionalText(key, raw, profileTextFields[key])
			if err != nil {
				return nil, err
			}
			fields[key] = nullable(v)

		case "phone":
			v, err := optionalText(key, raw, validation.MaxPhoneLength)
			if err != nil {
				return nil, err
			}
			if v != nil {
				if err := validation.ValidatePhone(*v); err != nil {
					return nil, apperror.Validation(err.Error())
				}
			}
			fields[key] = nullable(v)

		case "email":
			v, err := optionalText(key, raw, 255)
			if err != nil {
				return nil, err
			}
			if v != nil {
				if err := validation.ValidateEmail(*v); err != nil {
					return nil, apperror.Validation(err.Error())
				}
				normalized := validation.NormalizeEmail(*v)
				v = &normalized
			}
			fields[key] = nullable(v)

		case "website":
			v, err := optionalText(key, raw, validation.MaxURLLength)
			if err != nil {
				return nil, err
			}
			if v != nil {
				if err := validation.ValidateHTTPURL(key, *v); err != nil {
					return nil, apperror.Validation(err.Error())
				}
			}
			fields[key] = nullable(v)

		case "latitude", "longitude":
			v, err := optionalFloat(key, raw)
			if err != nil {
				return nil, err
			}
			if key == "latitude" {
				lat = v
			} else {
				lng = v
			}
			fields[key] = nullable(v)

		case "opening_hours":
			hours := models.OpeningHours{}
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &hours); err != nil {
					return nil, apperror.Validation("opening_hours: некорректный формат")
				}
			}
			if err := validation.ValidateOpeningHours(hours); err != nil {
				return nil, apperror.Validation(err.Error())
			}
			fields[key] = hours

		case "social_links":
			links := models.SocialLinks{}
			if !isNull(raw) {
				var in map[string]string
				if err := json.Unmarshal(raw, &in); err != nil {
					return nil, apperror.Validation("social_links: ожидается объект платформа -> ссылка")
				}
				for platform, link := range in {
					link = strings.TrimSpace(link)
					if link == "" {
						continue
					}
					if err := validation.ValidateHTTPURL("social_links."+platform, link); err != nil {
						return nil, apperror.Validation(err.Error())
					}
					links[strings.ToLower(platform)] = link
				}
			}
			fields[key] = links
		}
	}

	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return fields, nil
}

// UpdateStatus меняет статус модерации. Для отклонения нужна причина.
func (s *ProviderService) UpdateStatus(ctx context.Context, providerID uuid.UUID, status, reason string) (*models.Provider, error) {
	if _, ok := models.ValidProviderStatuses[status]; !ok {
		return nil, apperror.Validationf("некорректный статус: %s", status)
	}
	reason = strings.TrimSpace(reason)
	if status == models.ProviderStatusRejected && reason == "" {
		return nil, apperror.Validation("для отклонения необходимо указать причину")
	}

	var approvedAt *time.Time
	if status == models.ProviderStatusApproved {
		now := s.now()
		approvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, providerID, status, optionalString(reason), approvedAt); err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось изменить статус")
	}

	p, err := s.repo.GetByID(ctx, providerID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	notify(s.events, p.UserID, "provider.status", map[string]interface{}{
		"provider_id": p.ID,
		"status":      p.Status,
		"reason":      p.RejectionReason,
	})
	return p, nil
}

// UpdateSubscription меняет статус подписки.
func (s *ProviderService) UpdateSubscription(ctx context.Context, providerID uuid.UUID, status string) (*models.Provider, error) {
	if _, ok := models.ValidSubscriptionStatuses[status]; !ok {
		return nil, apperror.Validationf("некорректный статус подписки: %s", status)
	}
	if err := s.repo.UpdateSubscription(ctx, providerID, status); err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось изменить подписку")
	}
	p, err := s.repo.GetByID(ctx, providerID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	return p, nil
}

// ReplaceLanguages заменяет набор языков владельца.
func (s *ProviderService) ReplaceLanguages(ctx context.Context, userID uuid.UUID, langs []models.LanguageSkill) ([]models.LanguageSkill, error) {
	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	normalized, err := normalizeLanguageSkills(ctx, s.catalog, langs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLanguages(ctx, p.ID, normalized); err != nil {
		return nil, apperror.Internal(err, "не удалось сохранить языки")
	}
	if _, err := s.recalculate(ctx, p); err != nil {
		return nil, err
	}
	saved, err := s.repo.ListLanguages(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить языки")
	}
	return saved, nil
}

// SubmitForApproval проверяет готовность карточки и уведомляет администраторов.
func (s *ProviderService) SubmitForApproval(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProviderStatusPending {
		return nil, apperror.Validation("на модерацию можно отправить только карточку в статусе pending")
	}

	score, err := s.recalculate(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ProfileCompletenessScore = score
	if score < MinApprovalCompleteness {
		return nil, apperror.Validationf("профиль заполнен на %d%%, для модерации нужно не менее %d%%", score, MinApprovalCompleteness)
	}

	admins, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		logger.Component("provider").WithError(err).Warn("provider service: не удалось получить администраторов")
	}
	for _, adminID := range admins {
		notify(s.events, adminID, "provider.submitted", map[string]interface{}{
			"provider_id":   p.ID,
			"business_name": p.BusinessName,
			"score":         score,
		})
	}
	return p, nil
}

// UploadResult итог загрузки изображения.
type UploadResult struct {
	Field string               `json:"field"`
	URL   string               `json:"url"`
	Image *models.GalleryImage `json:"image,omitempty"`
}

// UploadImage сохраняет изображение галереи или логотип владельца.
func (s *ProviderService) UploadImage(ctx context.Context, userID uuid.UUID, field, filename string, file io.ReadSeeker) (*UploadResult, error) {
	if field == "" {
		field = UploadFieldGallery
	}
	if field != UploadFieldGallery && field != UploadFieldLogo {
		return nil, apperror.Validation("field должен быть gallery или logo")
	}

	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return nil, err
	}

	if field == UploadFieldGallery {
		count, err := s.repo.CountImages(ctx, p.ID)
		if err != nil {
			return nil, apperror.Internal(err, "не удалось проверить галерею")
		}
		if count >= s.opts.GalleryMaxImages {
			return nil, apperror.Validationf("в галерее может быть не более %d изображений", s.opts.GalleryMaxImages)
		}
	}

	if _, err := storage.Detect(file, filename, storage.ImageKinds); err != nil {
		return nil, uploadError(err, s.opts.MaxUploadMB)
	}

	rel, _, err := s.files.Save(ctx, "providers/"+p.ID.String(), filename, file)
	if err != nil {
		return nil, uploadError(err, s.opts.MaxUploadMB)
	}
	url := s.opts.MediaURLPrefix + "/" + rel

	if field == UploadFieldLogo {
		previous := p.LogoURL
		if _, err := s.repo.UpdateFields(ctx, p.ID, map[string]interface{}{"logo_url": url}); err != nil {
			_ = s.files.Delete(ctx, rel)
			return nil, apperror.Internal(err, "не удалось сохранить логотип")
		}
		if previous != nil {
			s.deleteFile(ctx, strings.TrimPrefix(*previous, s.opts.MediaURLPrefix+"/"))
		}
		return &UploadResult{Field: field, URL: url}, nil
	}

	img := &models.GalleryImage{ProviderID: p.ID, URL: url, Path: rel}
	if err := s.repo.AddImage(ctx, img); err != nil {
		_ = s.files.Delete(ctx, rel)
		return nil, apperror.Internal(err, "не удалось сохранить изображение")
	}
	if _, err := s.recalculate(ctx, p); err != nil {
		return nil, err
	}
	return &UploadResult{Field: field, URL: url, Image: img}, nil
}

// DeleteGalleryImage удаляет изображение владельца вместе с файлом.
func (s *ProviderService) DeleteGalleryImage(ctx context.Context, userID, imageID uuid.UUID) error {
	p, err := s.OwnedProvider(ctx, userID)
	if err != nil {
		return err
	}
	img, err := s.repo.DeleteImage(ctx, p.ID, imageID)
	if err != nil {
		return mapNotFound(err, repository.ErrImageNotFound, apperror.ErrImageNotFound, "не удалось удалить изображение")
	}
	s.deleteFile(ctx, img.Path)
	_, err = s.recalculate(ctx, p)
	return err
}

func (s *ProviderService) deleteFile(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	if err := s.files.Delete(ctx, rel); err != nil {
		logger.Component("provider").WithError(err).WithField("path", rel).Warn("provider service: файл не удалён")
	}
}

// Recalculate пересчитывает и сохраняет заполненность карточки.
func (s *ProviderService) Recalculate(ctx context.Context, providerID uuid.UUID) (int, error) {
	p, err := s.repo.GetByID(ctx, providerID)
	if err != nil {
		return 0, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	return s.recalculate(ctx, p)
}

func (s *ProviderService) recalculate(ctx context.Context, p *models.Provider) (int, error) {
	counts, err := s.repo.GetCompletenessCounts(ctx, p.ID)
	if err != nil {
		return 0, apperror.Internal(err, "не удалось пересчитать заполненность")
	}
	score := ComputeCompleteness(p, counts)
	if score != p.ProfileCompletenessScore {
		if err := s.repo.UpdateCompleteness(ctx, p.ID, score); err != nil {
			return 0, apperror.Internal(err, "не удалось сохранить заполненность")
		}
	}
	return score, nil
}

func uploadError(err error, maxMB int64) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return apperror.Validationf("файл превышает %d МБ", maxMB)
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperror.Validation(err.Error())
	}
	return apperror.Internal(err, "не удалось сохранить файл")
}

// normalizePage приводит номер страницы и лимит к допустимым значениям.
func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
