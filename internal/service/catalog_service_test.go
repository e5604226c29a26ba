package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
)

type fakeCatalogRepo struct {
	categories []models.Category
}

func (f fakeCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return f.categories, nil
}

func (f fakeCatalogRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.Slug == slug {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (f fakeCatalogRepo) ListLanguages(ctx context.Context) ([]models.Language, error) {
	return []models.Language{{Code: "nl", NameEN: "Dutch", NameNative: "Nederlands", IsActive: true}}, nil
}

func TestCatalogService_CategoryTree(t *testing.T) {
	legal := models.Category{ID: uuid.New(), Slug: "legal"}
	medical := models.Category{ID: uuid.New(), Slug: "medical"}
	sworn := models.Category{ID: uuid.New(), Slug: "sworn", ParentID: &legal.ID}
	orphanParent := uuid.New()
	orphan := models.Category{ID: uuid.New(), Slug: "orphan", ParentID: &orphanParent}
	svc := NewCatalogService(fakeCatalogRepo{categories: []models.Category{legal, sworn, medical, orphan}})
	ctx := context.Background()

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 3)
	assert.Equal(t, "legal", tree[0].Slug)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "sworn", tree[0].Children[0].Slug)
	assert.Equal(t, "orphan", tree[2].Slug)

	c, err := svc.CategoryBySlug(ctx, "legal")
	require.NoError(t, err)
	assert.Len(t, c.Children, 1)

	_, err = svc.CategoryBySlug(ctx, "nope")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCatalogService_Cities(t *testing.T) {
	svc := NewCatalogService(fakeCatalogRepo{})
	cities := svc.Cities("den", 5, false)
	require.NotEmpty(t, cities)
	assert.Equal(t, "Den Haag", cities[0].Name)
}
