package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository/common"
)

var (
	// ErrProviderNotFound возвращается, когда карточка поставщика не найдена.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrImageNotFound возвращается, когда изображение галереи не найдено.
	ErrImageNotFound = errors.New("gallery image not found")
	// ErrKVKExists возвращается при повторном номере KvK.
	ErrKVKExists = errors.New("kvk number already exists")
)

var psql = goqu.Dialect("postgres")

const providerColumns = `id, user_id, business_name, slug, email, phone, website, address, city, postal_code,
	country, latitude, longitude, kvk_number, btw_number, bio_nl, bio_en, bio_de, bio_ar, logo_url,
	opening_hours, social_links, status, subscription_status, trial_started_at, trial_expires_at,
	approved_at, rejection_reason, profile_completeness_score, created_at, updated_at`

// ProviderRepository работает с таблицами providers, provider_languages и provider_images.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository создаёт экземпляр репозитория.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func insertProvider(ctx context.Context, q sqlx.QueryerContext, p *models.Provider) error {
	row := q.QueryRowxContext(ctx, `
		INSERT INTO providers (user_id, business_name, slug, email, kvk_number, btw_number,
			status, subscription_status, trial_started_at, trial_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, country, opening_hours, social_links, profile_completeness_score, created_at, updated_at`,
		p.UserID, p.BusinessName, p.Slug, p.Email, p.KVKNumber, p.BTWNumber,
		p.Status, p.SubscriptionStatus, p.TrialStartedAt, p.TrialExpiresAt,
	)
	if err := row.Scan(&p.ID, &p.Country, &p.OpeningHours, &p.SocialLinks,
		&p.ProfileCompletenessScore, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrKVKExists
		}
		return fmt.Errorf("provider repository: create %w", err)
	}
	return nil
}

func (r *ProviderRepository) getBy(ctx context.Context, op, where string, arg interface{}) (*models.Provider, error) {
	p, err := common.GetOne[models.Provider](ctx, r.db, ErrProviderNotFound,
		`SELECT `+providerColumns+` FROM providers WHERE `+where, arg)
	if err != nil && !errors.Is(err, ErrProviderNotFound) {
		return nil, fmt.Errorf("provider repository: %s %w", op, err)
	}
	return p, err
}

// GetByID возвращает карточку по идентификатору.
func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return r.getBy(ctx, "get by id", "id = $1", id)
}

// GetBySlug возвращает карточку по slug.
func (r *ProviderRepository) GetBySlug(ctx context.Context, slug string) (*models.Provider, error) {
	return r.getBy(ctx, "get by slug", "slug = $1", slug)
}

// GetByUserID возвращает карточку владельца.
func (r *ProviderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	return r.getBy(ctx, "get by user id", "user_id = $1", userID)
}

// SlugExists проверяет, занят ли slug другой карточкой.
func (r *ProviderRepository) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM providers WHERE slug = $1 AND id <> $2)`, slug, exclude); err != nil {
		return false, fmt.Errorf("provider repository: slug exists %w", err)
	}
	return exists, nil
}

// ListPublic возвращает видимые карточки по убыванию заполненности.
func (r *ProviderRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Provider, int, error) {
	ds := psql.From("providers").Prepared(true).
		Where(goqu.C("status").Eq(models.ProviderStatusApproved),
			goqu.C("subscription_status").Neq(models.SubscriptionFrozen))
	return r.list(ctx, "list public", ds,
		[]exp.OrderedExpression{goqu.C("profile_completeness_score").Desc(), goqu.C("created_at").Desc()}, limit, offset)
}

// ListAdmin возвращает все карточки для модерации: сначала ожидающие, затем новые.
func (r *ProviderRepository) ListAdmin(ctx context.Context, status, subscription string, limit, offset int) ([]models.Provider, int, error) {
	ds := psql.From("providers").Prepared(true)
	if status != "" {
		ds = ds.Where(goqu.C("status").Eq(status))
	}
	if subscription != "" {
		ds = ds.Where(goqu.C("subscription_status").Eq(subscription))
	}
	pendingFirst := goqu.L("CASE WHEN status = 'pending' THEN 0 ELSE 1 END").Asc()
	return r.list(ctx, "list admin", ds, []exp.OrderedExpression{pendingFirst, goqu.C("created_at").Desc()}, limit, offset)
}

func (r *ProviderRepository) list(ctx context.Context, op string, ds *goqu.SelectDataset, order []exp.OrderedExpression, limit, offset int) ([]models.Provider, int, error) {
	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("provider repository: %s build count %w", op, err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("provider repository: %s count %w", op, err)
	}

	query, args, err := ds.Select(goqu.L(providerColumns)).
		Order(order...).
		Limit(uint(limit)).Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("provider repository: %s build %w", op, err)
	}

	providers := make([]models.Provider, 0)
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("provider repository: %s %w", op, err)
	}
	return providers, total, nil
}

// UpdateFields обновляет переданные колонки и возвращает свежую карточку.
func (r *ProviderRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Provider, error) {
	record := goqu.Record{"updated_at": goqu.L("NOW()")}
	for column, value := range fields {
		if v, ok := value.(driver.Valuer); ok {
			dv, err := v.Value()
			if err != nil {
				return nil, fmt.Errorf("provider repository: update %s %w", column, err)
			}
			value = dv
		}
		record[column] = value
	}

	query, args, err := psql.Update("providers").Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(providerColumns)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("provider repository: build update %w", err)
	}

	p, err := common.GetOne[models.Provider](ctx, r.db, ErrProviderNotFound, query, args...)
	if err != nil && !errors.Is(err, ErrProviderNotFound) {
		return nil, fmt.Errorf("provider repository: update %w", err)
	}
	return p, err
}

// UpdateStatus меняет статус модерации.
func (r *ProviderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, approvedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE providers
		SET status = $2, rejection_reason = $3, approved_at = COALESCE($4, approved_at), updated_at = NOW()
		WHERE id = $1`, id, status, reason, approvedAt)
	if err != nil {
		return fmt.Errorf("provider repository: update status %w", err)
	}
	return common.RequireAffected(result, ErrProviderNotFound)
}

// UpdateSubscription меняет статус подписки.
func (r *ProviderRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE providers SET subscription_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("provider repository: update subscription %w", err)
	}
	return common.RequireAffected(result, ErrProviderNotFound)
}

// UpdateCompleteness сохраняет пересчитанную оценку заполненности.
func (r *ProviderRepository) UpdateCompleteness(ctx context.Context, id uuid.UUID, score int) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE providers SET profile_completeness_score = $2 WHERE id = $1`, id, score); err != nil {
		return fmt.Errorf("provider repository: update completeness %w", err)
	}
	return nil
}

// CompletenessCounts количество связанных сущностей для расчёта заполненности.
type CompletenessCounts struct {
	Languages int `db:"languages"`
	Services  int `db:"services"`
	Staff     int `db:"staff"`
	Images    int `db:"images"`
}

// GetCompletenessCounts считает языки, активные услуги, сотрудников и изображения.
func (r *ProviderRepository) GetCompletenessCounts(ctx context.Context, id uuid.UUID) (CompletenessCounts, error) {
	var counts CompletenessCounts
	if err := r.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM provider_languages WHERE provider_id = $1) AS languages,
			(SELECT COUNT(*) FROM services WHERE provider_id = $1 AND is_active = TRUE) AS services,
			(SELECT COUNT(*) FROM staff WHERE provider_id = $1 AND is_active = TRUE) AS staff,
			(SELECT COUNT(*) FROM provider_images WHERE provider_id = $1) AS images`, id); err != nil {
		return counts, fmt.Errorf("provider repository: completeness counts %w", err)
	}
	return counts, nil
}

// ListLanguages возвращает языки поставщика с названиями.
func (r *ProviderRepository) ListLanguages(ctx context.Context, providerID uuid.UUID) ([]models.LanguageSkill, error) {
	langs := make([]models.LanguageSkill, 0)
	if err := r.db.SelectContext(ctx, &langs, `
		SELECT pl.language_code, pl.cefr_level, l.name_en, l.name_native
		FROM provider_languages pl
		JOIN languages l ON l.code = pl.language_code
		WHERE pl.provider_id = $1
		ORDER BY l.sort_order, l.code`, providerID); err != nil {
		return nil, fmt.Errorf("provider repository: list languages %w", err)
	}
	return langs, nil
}

type providerLanguageRow struct {
	ProviderID uuid.UUID `db:"provider_id"`
	models.LanguageSkill
}

// ListLanguagesFor возвращает языки сразу для нескольких поставщиков.
func (r *ProviderRepository) ListLanguagesFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.LanguageSkill, error) {
	result := make(map[uuid.UUID][]models.LanguageSkill, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []providerLanguageRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT pl.provider_id, pl.language_code, pl.cefr_level, l.name_en, l.name_native
		FROM provider_languages pl
		JOIN languages l ON l.code = pl.language_code
		WHERE pl.provider_id = ANY($1)
		ORDER BY l.sort_order, l.code`, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("provider repository: list languages for %w", err)
	}
	for _, row := range rows {
		result[row.ProviderID] = append(result[row.ProviderID], row.LanguageSkill)
	}
	return result, nil
}

// ReplaceLanguages заменяет набор языков поставщика.
func (r *ProviderRepository) ReplaceLanguages(ctx context.Context, providerID uuid.UUID, langs []models.LanguageSkill) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM provider_languages WHERE provider_id = $1`, providerID); err != nil {
			return fmt.Errorf("provider repository: clear languages %w", err)
		}
		inserter := common.NewBatchInserter(tx,
			`INSERT INTO provider_languages (provider_id, language_code, cefr_level)`, 3, 50)
		for _, l := range langs {
			if err := inserter.Add(ctx, providerID, l.LanguageCode, l.CEFRLevel); err != nil {
				return fmt.Errorf("provider repository: add language %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("provider repository: insert languages %w", err)
		}
		return nil
	})
}

// AddImage добавляет изображение в конец галереи.
func (r *ProviderRepository) AddImage(ctx context.Context, img *models.GalleryImage) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO provider_images (provider_id, url, path, alt, width, height, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM provider_images WHERE provider_id = $1))
		RETURNING id, sort_order, created_at`,
		img.ProviderID, img.URL, img.Path, img.Alt, img.Width, img.Height,
	).Scan(&img.ID, &img.SortOrder, &img.CreatedAt); err != nil {
		return fmt.Errorf("provider repository: add image %w", err)
	}
	return nil
}

// ListImages возвращает галерею в порядке сортировки.
func (r *ProviderRepository) ListImages(ctx context.Context, providerID uuid.UUID) ([]models.GalleryImage, error) {
	images := make([]models.GalleryImage, 0)
	if err := r.db.SelectContext(ctx, &images, `
		SELECT id, provider_id, url, path, alt, width, height, sort_order, created_at
		FROM provider_images WHERE provider_id = $1
		ORDER BY sort_order, created_at`, providerID); err != nil {
		return nil, fmt.Errorf("provider repository: list images %w", err)
	}
	return images, nil
}

// CountImages возвращает количество изображений в галерее.
func (r *ProviderRepository) CountImages(ctx context.Context, providerID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM provider_images WHERE provider_id = $1`, providerID); err != nil {
		return 0, fmt.Errorf("provider repository: count images %w", err)
	}
	return count, nil
}

// DeleteImage удаляет изображение поставщика и возвращает удалённую запись.
func (r *ProviderRepository) DeleteImage(ctx context.Context, providerID, imageID uuid.UUID) (*models.GalleryImage, error) {
	img, err := common.GetOne[models.GalleryImage](ctx, r.db, ErrImageNotFound, `
		DELETE FROM provider_images WHERE id = $1 AND provider_id = $2
		RETURNING id, provider_id, url, path, alt, width, height, sort_order, created_at`, imageID, providerID)
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		return nil, fmt.Errorf("provider repository: delete image %w", err)
	}
	return img, err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
