package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/dto"
	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// SupportHandler обслуживает обращения в поддержку.
type SupportHandler struct {
	support   *service.SupportService
	maxUpload int64
}

// NewSupportHandler создаёт хэндлер.
func NewSupportHandler(support *service.SupportService, maxUploadMB int64) *SupportHandler {
	return &SupportHandler{support: support, maxUpload: maxUploadMB << 20}
}

func currentActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, _ := common.CurrentUserRole(c)
	return service.Actor{UserID: userID, Role: role}, true
}

// Categories обрабатывает GET /support/categories.
func (h *SupportHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.support.Categories()})
}

// List обрабатывает GET /support/tickets.
func (h *SupportHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, page, err := h.support.List(c.Request.Context(), actor, service.TicketListQuery{
		Status:     strings.TrimSpace(c.Query("status")),
		Priority:   strings.TrimSpace(c.Query("priority")),
		Category:   strings.TrimSpace(c.Query("category")),
		AssignedTo: strings.TrimSpace(c.Query("assigned_to")),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       common.ParseIntQuery(c, "page", 1),
		Limit:      common.ParseIntQuery(c, "limit", 50),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items, page))
}

// Get обрабатывает GET /support/tickets/:id.
func (h *SupportHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	details, err := h.support.Get(c.Request.Context(), actor, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Create обрабатывает POST /support/tickets.
func (h *SupportHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.TicketInput
	if !common.BindJSON(c, &req) {
		return
	}
	ticket, err := h.support.Create(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// Respond обрабатывает POST /support/tickets/:id/responses.
func (h *SupportHandler) Respond(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.TicketResponseRequest
	if !common.BindJSON(c, &req) {
		return
	}
	resp, err := h.support.Respond(c.Request.Context(), actor, id, req.Message, req.IsInternal)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateStatus обрабатывает PUT /support/tickets/:id/status.
func (h *SupportHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.TicketStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}
	ticket, err := h.support.UpdateStatus(c.Request.Context(), actor, id, req.Status, req.Notes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Assign обрабатывает PUT /support/tickets/:id/assign. Пустой assigned_to снимает назначение.
func (h *SupportHandler) Assign(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRequest
	if !common.BindJSON(c, &req) {
		return
	}
	ticket, err := h.support.Assign(c.Request.Context(), actor, id, req.AssignedTo)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Bulk обрабатывает POST /support/tickets/bulk.
func (h *SupportHandler) Bulk(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.BulkInput
	if !common.BindJSON(c, &req) {
		return
	}
	result, err := h.support.Bulk(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Dashboard обрабатывает GET /support/dashboard.
func (h *SupportHandler) Dashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	d, err := h.support.Dashboard(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Statistics обрабатывает GET /support/statistics?from=&to= (RFC3339 или YYYY-MM-DD).
func (h *SupportHandler) Statistics(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	stats, err := h.support.Statistics(c.Request.Context(), actor, from, to)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadAttachment обрабатывает POST /support/tickets/:id/attachments.
func (h *SupportHandler) UploadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл обязателен")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	attachment, err := h.support.AddAttachment(c.Request.Context(), actor, id, fileHeader.Filename, file)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// DownloadAttachment обрабатывает GET /support/attachments/:id.
func (h *SupportHandler) DownloadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	attachment, path, err := h.support.Attachment(c.Request.Context(), actor, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Header("Content-Type", attachment.ContentType)
	c.FileAttachment(path, attachment.FileName)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("параметр %s должен быть датой", key)
}
