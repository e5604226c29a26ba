package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/validation"
)

type NoteRepository interface {
	Create(ctx context.Context, n *models.AdminNote) error
	List(ctx context.Context, contextType string, contextID uuid.UUID) ([]models.AdminNote, error)
}

type TicketReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
}

// NoteService ведёт внутренние заметки администраторов о поставщиках и обращениях.
type NoteService struct {
	repo      NoteRepository
	providers ProviderReader
	tickets   TicketReader
}

func NewNoteService(repo NoteRepository, providers ProviderReader, tickets TicketReader) *NoteService {
	return &NoteService{repo: repo, providers: providers, tickets: tickets}
}

// List возвращает заметки по контексту, новые первыми.
func (s *NoteService) List(ctx context.Context, contextType string, contextID uuid.UUID) ([]models.AdminNote, error) {
	if err := s.ensureContext(ctx, contextType, contextID); err != nil {
		return nil, err
	}
	notes, err := s.repo.List(ctx, contextType, contextID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить заметки")
	}
	return notes, nil
}

// Create добавляет заметку. Заметки всегда внутренние.
func (s *NoteService) Create(ctx context.Context, adminID uuid.UUID, contextType string, contextID uuid.UUID, text, noteType string) (*models.AdminNote, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateLength("note_text", text, 1, validation.MaxNoteLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	noteType = strings.TrimSpace(noteType)
	if noteType == "" {
		noteType = "general"
	}
	if _, ok := models.ValidNoteTypes[noteType]; !ok {
		return nil, apperror.Validationf("некорректный тип заметки: %s", noteType)
	}
	if err := s.ensureContext(ctx, contextType, contextID); err != nil {
		return nil, err
	}

	note := &models.AdminNote{
		ContextType: contextType,
		ContextID:   contextID,
		AdminUserID: adminID,
		NoteText:    text,
		NoteType:    noteType,
		IsInternal:  true,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, apperror.Internal(err, "не удалось сохранить заметку")
	}
	return note, nil
}

func (s *NoteService) ensureContext(ctx context.Context, contextType string, contextID uuid.UUID) error {
	switch contextType {
	case models.NoteContextProvider:
		if _, err := s.providers.GetByID(ctx, contextID); err != nil {
			return mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
		}
	case models.NoteContextTicket:
		if _, err := s.tickets.GetByID(ctx, contextID); err != nil {
			return mapNotFound(err, repository.ErrTicketNotFound, apperror.ErrTicketNotFound, "не удалось загрузить обращение")
		}
	default:
		return apperror.Validationf("некорректный контекст заметки: %s", contextType)
	}
	return nil
}
