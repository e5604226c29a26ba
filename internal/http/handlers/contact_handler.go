package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// ContactHandler принимает сообщения с публичной формы.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler создаёт хэндлер.
func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// Send обрабатывает POST /contact.
func (h *ContactHandler) Send(c *gin.Context) {
	var req service.ContactInput
	if !common.BindJSON(c, &req) {
		return
	}

	msg, err := h.contact.Send(c.Request.Context(), req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message_id": msg.ID,
		"message":    "сообщение отправлено",
	})
}
