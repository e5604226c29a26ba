package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// StaffHandler обслуживает сотрудников поставщика.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler создаёт хэндлер.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// ListContactable обрабатывает GET /staff/contactable/:providerId.
func (h *StaffHandler) ListContactable(c *gin.Context) {
	providerID, ok := common.UUIDParam(c, "providerId")
	if !ok {
		return
	}
	staff, err := h.staff.ListContactable(c.Request.Context(), providerID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// ListMy обрабатывает GET /staff/my.
func (h *StaffHandler) ListMy(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	staff, err := h.staff.ListMy(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// Get обрабатывает GET /staff/:id.
func (h *StaffHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	member, err := h.staff.Get(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Create обрабатывает POST /staff.
func (h *StaffHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var req service.StaffInput
	if !common.BindJSON(c, &req) {
		return
	}
	member, err := h.staff.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// Update обрабатывает PUT /staff/:id: частичное обновление, цель автосохранения сотрудника.
func (h *StaffHandler) Update(c *gin.Context) {
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
	member, err := h.staff.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateContactConfig обрабатывает PUT /staff/contact-config/:id.
func (h *StaffHandler) UpdateContactConfig(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req service.ContactConfig
	if !common.BindJSON(c, &req) {
		return
	}
	member, err := h.staff.UpdateContactConfig(c.Request.Context(), userID, id, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Delete обрабатывает DELETE /staff/:id.
func (h *StaffHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.staff.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
