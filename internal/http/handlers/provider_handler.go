package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/dto"
	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// ProviderHandler обслуживает карточки поставщиков.
type ProviderHandler struct {
	providers *service.ProviderService
	maxUpload int64
}

// NewProviderHandler создаёт хэндлер. maxUploadMB ограничивает тело multipart запроса.
func NewProviderHandler(providers *service.ProviderService, maxUploadMB int64) *ProviderHandler {
	return &ProviderHandler{providers: providers, maxUpload: maxUploadMB << 20}
}

// ListPublic обрабатывает GET /providers.
func (h *ProviderHandler) ListPublic(c *gin.Context) {
	items, page, err := h.providers.ListPublic(c.Request.Context(),
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 20))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items, page))
}

// ListAdmin обрабатывает GET /providers/admin-data.
func (h *ProviderHandler) ListAdmin(c *gin.Context) {
	items, page, err := h.providers.ListAdmin(c.Request.Context(),
		strings.TrimSpace(c.Query("status")), strings.TrimSpace(c.Query("subscription_status")),
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 20))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items, page))
}

// GetMy обрабатывает GET /providers/my.
func (h *ProviderHandler) GetMy(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	details, err := h.providers.GetMy(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetPublic обрабатывает GET /providers/:slug.
func (h *ProviderHandler) GetPublic(c *gin.Context) {
	details, err := h.providers.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UpdateMy обрабатывает PUT /providers/my: частичное обновление, цель автосохранения.
func (h *ProviderHandler) UpdateMy(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var patch service.Patch
	if !common.BindJSON(c, &patch) {
		return
	}

	provider, err := h.providers.UpdateMy(c.Request.Context(), userID, patch)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider, "updated_fields": patch.Fields()})
}

// UpdateStatus обрабатывает PUT /providers/status/:id.
func (h *ProviderHandler) UpdateStatus(c *gin.Context) {
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProviderStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	provider, err := h.providers.UpdateStatus(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

// UpdateSubscription обрабатывает PUT /providers/subscription/:id.
func (h *ProviderHandler) UpdateSubscription(c *gin.Context) {
	id, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SubscriptionRequest
	if !common.BindJSON(c, &req) {
		return
	}

	provider, err := h.providers.UpdateSubscription(c.Request.Context(), id, req.SubscriptionStatus)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

// ReplaceLanguages обрабатывает PUT /providers/languages.
func (h *ProviderHandler) ReplaceLanguages(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var req dto.LanguagesRequest
	if !common.BindJSON(c, &req) {
		return
	}

	langs, err := h.providers.ReplaceLanguages(c.Request.Context(), userID, req.Languages)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": langs})
}

// SubmitForApproval обрабатывает POST /providers/submit-for-approval.
func (h *ProviderHandler) SubmitForApproval(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	provider, err := h.providers.SubmitForApproval(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

// Upload обрабатывает POST /providers/upload (multipart: file, field).
func (h *ProviderHandler) Upload(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	if h.maxUpload > 0 {
		// запас на заголовки multipart
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

	result, err := h.providers.UploadImage(c.Request.Context(), userID, c.PostForm("field"), fileHeader.Filename, file)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DeleteGalleryImage обрабатывает DELETE /providers/gallery/:imageId.
func (h *ProviderHandler) DeleteGalleryImage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	imageID, ok := common.UUIDParam(c, "imageId")
	if !ok {
		return
	}
	if err := h.providers.DeleteGalleryImage(c.Request.Context(), userID, imageID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
