package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/geo"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
)

// CatalogRepository справочники категорий и языков.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListLanguages(ctx context.Context) ([]models.Language, error)
}

// CatalogService отдаёт справочники.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService создаёт сервис справочников.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// CategoryTree возвращает активные категории деревом: корни с дочерними.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить категории")
	}
	return buildCategoryTree(all), nil
}

// CategoryBySlug возвращает категорию с активными подкатегориями.
func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrCategoryNotFound, apperror.ErrCategoryNotFound, "не удалось получить категорию")
	}
	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить категории")
	}
	c.Children = []models.Category{}
	for _, child := range all {
		if child.ParentID != nil && *child.ParentID == c.ID {
			c.Children = append(c.Children, child)
		}
	}
	return c, nil
}

// Languages возвращает активные языки.
func (s *CatalogService) Languages(ctx context.Context) ([]models.Language, error) {
	langs, err := s.repo.ListLanguages(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить языки")
	}
	return langs, nil
}

// Cities ищет города справочника.
func (s *CatalogService) Cities(q string, limit int, majorOnly bool) []geo.City {
	return geo.SearchCities(q, limit, majorOnly)
}

// buildCategoryTree раскладывает плоский список по родителям, сохраняя порядок.
// Подкатегории без активного родителя поднимаются в корень.
func buildCategoryTree(all []models.Category) []models.Category {
	byID := make(map[uuid.UUID]bool, len(all))
	for _, c := range all {
		if c.ParentID == nil {
			byID[c.ID] = true
		}
	}
	children := make(map[uuid.UUID][]models.Category)
	roots := make([]models.Category, 0)
	for _, c := range all {
		if c.ParentID != nil && byID[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}
	for i := range roots {
		roots[i].Children = children[roots[i].ID]
	}
	return roots
}
