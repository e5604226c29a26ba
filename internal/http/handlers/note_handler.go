package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/dto"
	"github.com/lingora/lingora-backend/internal/http/handlers/common"
	"github.com/lingora/lingora-backend/internal/service"
)

// NoteHandler служебные заметки администраторов: /admin/notes/:contextType/:contextId.
type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	contextID, ok := common.UUIDParam(c, "contextId")
	if !ok {
		return
	}
	notes, err := h.notes.List(c.Request.Context(), c.Param("contextType"), contextID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *NoteHandler) Create(c *gin.Context) {
	adminID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	contextID, ok := common.UUIDParam(c, "contextId")
	if !ok {
		return
	}
	var req dto.NoteRequest
	if !common.BindJSON(c, &req) {
		return
	}
	note, err := h.notes.Create(c.Request.Context(), adminID, c.Param("contextType"), contextID, req.NoteText, req.NoteType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}
