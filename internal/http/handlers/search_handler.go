package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// SearchHandler обслуживает публичный поиск поставщиков.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler создаёт хэндлер.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search обрабатывает GET /search.
// languages и categories принимаются списком через запятую.
func (h *SearchHandler) Search(c *gin.Context) {
	q := service.SearchQuery{
		Languages:  splitList(c.Query("languages")),
		Categories: splitList(c.Query("categories")),
		City:       strings.TrimSpace(c.Query("city")),
		Mode:       strings.TrimSpace(c.Query("mode")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		Page:       common.ParseIntQuery(c, "page", 1),
		Limit:      common.ParseIntQuery(c, "limit", 20),
	}

	var err error
	if q.RadiusKM, err = common.ParseFloatQuery(c, "radius"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if q.Lat, err = common.ParseFloatQuery(c, "lat"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if q.Lng, err = common.ParseFloatQuery(c, "lng"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.search.Search(c.Request.Context(), q)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Suggestions обрабатывает GET /search/suggestions?q=...
func (h *SearchHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.search.Suggestions(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
