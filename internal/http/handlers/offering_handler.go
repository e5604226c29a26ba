package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/dto"
	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// OfferingHandler обслуживает услуги поставщика (/api/services).
type OfferingHandler struct {
	offerings *service.OfferingService
}

func NewOfferingHandler(offerings *service.OfferingService) *OfferingHandler {
	return &OfferingHandler{offerings: offerings}
}

func (h *OfferingHandler) List(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	items, page, err := h.offerings.List(c.Request.Context(), userID,
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 20))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items, page))
}

func (h *OfferingHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	offering, err := h.offerings.Get(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}

func (h *OfferingHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var req service.OfferingInput
	if !common.BindJSON(c, &req) {
		return
	}
	offering, err := h.offerings.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offering)
}

func (h *OfferingHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var patch service.Patch
	if !common.BindJSON(c, &patch) {
		return
	}
	offering, err := h.offerings.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}

// Delete снимает услугу с публикации.
func (h *OfferingHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.offerings.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
