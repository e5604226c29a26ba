package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository/common"
)

var (
	// ErrCategoryNotFound возвращается, когда категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
)

const categoryColumns = `id, slug, parent_id, name_nl, name_en, is_active, sort_order, created_at`

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories возвращает все активные категории.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := r.db.SelectContext(ctx, &categories, `
		SELECT `+categoryColumns+`
		FROM categories WHERE is_active = TRUE ORDER BY sort_order, name_en
	`); err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug возвращает активную категорию по slug.
func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := common.GetOne[models.Category](ctx, r.db, ErrCategoryNotFound,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1 AND is_active = TRUE`, slug)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("catalog repository: get category by slug %w", err)
	}
	return c, err
}

// GetCategoryByID возвращает категорию по ID.
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := common.GetOne[models.Category](ctx, r.db, ErrCategoryNotFound,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("catalog repository: get category by id %w", err)
	}
	return c, err
}

// SearchCategories ищет активные категории по названию на любом языке.
func (r *CatalogRepository) SearchCategories(ctx context.Context, q string, limit int) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	pattern := "%" + q + "%"
	if err := r.db.SelectContext(ctx, &categories, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE is_active = TRUE AND (name_en ILIKE $1 OR name_nl ILIKE $1)
		ORDER BY sort_order, name_en
		LIMIT $2`, pattern, limit); err != nil {
		return nil, fmt.Errorf("catalog repository: search categories %w", err)
	}
	return categories, nil
}

// ListLanguages возвращает активные языки справочника.
func (r *CatalogRepository) ListLanguages(ctx context.Context) ([]models.Language, error) {
	languages := make([]models.Language, 0)
	if err := r.db.SelectContext(ctx, &languages, `
		SELECT code, name_en, name_native, is_active, sort_order
		FROM languages WHERE is_active = TRUE ORDER BY sort_order, code
	`); err != nil {
		return nil, fmt.Errorf("catalog repository: list languages %w", err)
	}
	return languages, nil
}

// ActiveLanguageCodes возвращает те из переданных кодов, что есть в справочнике.
func (r *CatalogRepository) ActiveLanguageCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	result := make(map[string]bool, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found,
		`SELECT code FROM languages WHERE is_active = TRUE AND code = ANY($1)`, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("catalog repository: active language codes %w", err)
	}
	for _, code := range found {
		result[code] = true
	}
	return result, nil
}
