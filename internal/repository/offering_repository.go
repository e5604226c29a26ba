package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository/common"
)

// ErrOfferingNotFound возвращается, когда услуга не найдена.
var ErrOfferingNotFound = errors.New("service not found")

const offeringSelect = `
	SELECT s.id, s.provider_id, s.category_id, c.name_nl AS category_name_nl, c.name_en AS category_name_en,
		s.title, s.description_nl, s.description_en, s.price_min, s.price_max, s.currency,
		s.price_description, s.service_mode, s.duration_minutes, s.is_active, s.sort_order,
		s.created_at, s.updated_at
	FROM services s
	LEFT JOIN categories c ON c.id = s.category_id`

// OfferingRepository работает с таблицей services.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository создаёт экземпляр репозитория.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// Create сохраняет новую услугу.
func (r *OfferingRepository) Create(ctx context.Context, o *models.Offering) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO services (provider_id, category_id, title, description_nl, description_en,
			price_min, price_max, currency, price_description, service_mode, duration_minutes, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12)
		RETURNING id, is_active, created_at, updated_at`,
		o.ProviderID, o.CategoryID, o.Title, o.DescriptionNL, o.DescriptionEN,
		o.PriceMin, o.PriceMax, o.Currency, o.PriceDescription, o.ServiceMode, o.DurationMinutes, o.SortOrder,
	).Scan(&o.ID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("offering repository: create %w", err)
	}
	return nil
}

// GetByID возвращает услугу с названием категории.
func (r *OfferingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offering, error) {
	o, err := common.GetOne[models.Offering](ctx, r.db, ErrOfferingNotFound, offeringSelect+` WHERE s.id = $1`, id)
	if err != nil && !errors.Is(err, ErrOfferingNotFound) {
		return nil, fmt.Errorf("offering repository: get by id %w", err)
	}
	return o, err
}

// ListByProvider возвращает услуги поставщика с пагинацией.
func (r *OfferingRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool, limit, offset int) ([]models.Offering, int, error) {
	where := ` WHERE s.provider_id = $1`
	if activeOnly {
		where += ` AND s.is_active = TRUE`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM services s`+where, providerID); err != nil {
		return nil, 0, fmt.Errorf("offering repository: count %w", err)
	}

	query := offeringSelect + where + ` ORDER BY s.sort_order, s.created_at DESC`
	args := []interface{}{providerID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	offerings := make([]models.Offering, 0)
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("offering repository: list %w", err)
	}
	return offerings, total, nil
}

// ListSummaries возвращает до perProvider активных услуг на каждого поставщика.
func (r *OfferingRepository) ListSummaries(ctx context.Context, providerIDs []uuid.UUID, perProvider int) (map[uuid.UUID][]models.OfferingSummary, error) {
	result := make(map[uuid.UUID][]models.OfferingSummary, len(providerIDs))
	if len(providerIDs) == 0 {
		return result, nil
	}
	var rows []models.OfferingSummary
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT provider_id, title, service_mode, category_name FROM (
			SELECT s.provider_id, s.title, s.service_mode, c.name_en AS category_name,
				ROW_NUMBER() OVER (PARTITION BY s.provider_id ORDER BY s.sort_order, s.created_at) AS rn
			FROM services s
			LEFT JOIN categories c ON c.id = s.category_id
			WHERE s.provider_id = ANY($1) AND s.is_active = TRUE
		) ranked
		WHERE rn <= $2`, pq.Array(uuidStrings(providerIDs)), perProvider); err != nil {
		return nil, fmt.Errorf("offering repository: list summaries %w", err)
	}
	for _, row := range rows {
		result[row.ProviderID] = append(result[row.ProviderID], row)
	}
	return result, nil
}

// UpdateFields обновляет переданные колонки услуги.
func (r *OfferingRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	record := goqu.Record{"updated_at": goqu.L("NOW()")}
	for column, value := range fields {
		record[column] = value
	}
	query, args, err := psql.Update("services").Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("offering repository: build update %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("offering repository: update %w", err)
	}
	return common.RequireAffected(result, ErrOfferingNotFound)
}

// Deactivate выполняет мягкое удаление услуги.
func (r *OfferingRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE services SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("offering repository: deactivate %w", err)
	}
	return common.RequireAffected(result, ErrOfferingNotFound)
}
