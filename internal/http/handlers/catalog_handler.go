package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

const maxCitiesLimit = 50

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.CategoryTree(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory GET /categories/:slug
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.catalog.CategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// ListLanguages GET /languages
func (h *CatalogHandler) ListLanguages(c *gin.Context) {
	languages, err := h.catalog.Languages(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

// ListCities GET /cities?q=&limit=&major=true
func (h *CatalogHandler) ListCities(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", 20)
	if limit <= 0 || limit > maxCitiesLimit {
		limit = maxCitiesLimit
	}
	cities := h.catalog.Cities(strings.TrimSpace(c.Query("q")), limit, c.Query("major") == "true")
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}
