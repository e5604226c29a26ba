package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/queue"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/storage"
	"github.com/lingora/lingora-backend/internal/validation"
)

// SupportRepository хранилище обращений в поддержку.
type SupportRepository interface {
	Create(ctx context.Context, t *models.Ticket, now time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int, error)
	AddResponse(ctx context.Context, resp *models.TicketResponse, markFirstResponse bool) error
	ListResponses(ctx context.Context, ticketID uuid.UUID, includeInternal bool) ([]models.TicketResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, change repository.StatusChange) error
	UpdateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}, activity models.TicketActivity) error
	ListActivity(ctx context.Context, ticketID uuid.UUID) ([]models.TicketActivity, error)
	AddAttachment(ctx context.Context, a *models.TicketAttachment) error
	ListAttachments(ctx context.Context, ticketID uuid.UUID) ([]models.TicketAttachment, error)
	GetAttachment(ctx context.Context, id uuid.UUID) (*models.TicketAttachment, error)
	Dashboard(ctx context.Context, userID uuid.UUID, scope models.TicketFilter) (*models.TicketDashboard, error)
	Statistics(ctx context.Context, from, to time.Time) (*models.TicketStatistics, error)
}

// ProviderByUser находит карточку пользователя.
type ProviderByUser interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
}

// AttachmentStore сохраняет вложения и отдаёт путь к файлу на диске.
type AttachmentStore interface {
	FileStore
	Path(relativePath string) (string, error)
}

// Actor пользователь, выполняющий действие.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin сообщает, является ли пользователь администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// TicketInput данные нового обращения.
type TicketInput struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// TicketListQuery параметры списка обращений.
type TicketListQuery struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo string
	Search     string
	Page       int
	Limit      int
}

// Операции массового изменения
const (
	BulkAssign         = "assign"
	BulkStatusUpdate   = "status_update"
	BulkPriorityUpdate = "priority_update"
)

// BulkInput массовая операция над обращениями.
type BulkInput struct {
	TicketIDs []string `json:"ticket_ids"`
	Operation string   `json:"operation"`
	Value     string   `json:"value"`
}

// BulkItemResult итог операции над одним обращением.
type BulkItemResult struct {
	TicketID string `json:"ticket_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkResult итог массовой операции.
type BulkResult struct {
	Operation string           `json:"operation"`
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// SupportOptions настройки поддержки.
type SupportOptions struct {
	AdminEmail  string
	MaxUploadMB int64
}

const (
	maxBulkTickets      = 100
	statisticsWindow    = 30 * 24 * time.Hour
	defaultTicketsLimit = 50
	maxTicketsLimit     = 100
)

// SupportDeps зависимости SupportService.
type SupportDeps struct {
	Repo      SupportRepository
	Providers ProviderByUser
	Users     UserLookup
	Admins    AdminDirectory
	Files     AttachmentStore
	Publisher queue.Publisher
	Events    EventBroadcaster
}

// SupportService ведёт обращения в поддержку: ветку ответов, статусы, назначение и вложения.
type SupportService struct {
	repo      SupportRepository
	providers ProviderByUser
	users     UserLookup
	admins    AdminDirectory
	files     AttachmentStore
	publisher queue.Publisher
	events    EventBroadcaster
	opts      SupportOptions
	now       func() time.Time
}

// NewSupportService создаёт сервис поддержки.
func NewSupportService(deps SupportDeps, opts SupportOptions) *SupportService {
	return &SupportService{
		repo:      deps.Repo,
		providers: deps.Providers,
		users:     deps.Users,
		admins:    deps.Admins,
		files:     deps.Files,
		publisher: orNoopPublisher(deps.Publisher),
		events:    orNoopBroadcaster(deps.Events),
		opts:      opts,
		now:       time.Now,
	}
}

// Categories возвращает справочник категорий обращений.
func (s *SupportService) Categories() []models.TicketCategory {
	return models.TicketCategories
}

// Create регистрирует обращение и уведомляет администраторов.
func (s *SupportService) Create(ctx context.Context, actor Actor, in TicketInput) (*models.Ticket, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.ValidateRequired(map[string]string{
		"subject": in.Subject,
		"message": in.Message,
	}, "subject", "message"); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("subject", in.Subject, 1, validation.MaxSubjectLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("message", in.Message, 1, validation.MaxMessageLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = models.TicketPriorityMedium
	}
	if _, ok := models.ValidTicketPriorities[priority]; !ok {
		return nil, apperror.Validationf("некорректный приоритет: %s", priority)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultTicketCategory
	}
	if !models.IsValidTicketCategory(category) {
		return nil, apperror.Validationf("некорректная категория: %s", category)
	}

	t := &models.Ticket{
		Subject:   in.Subject,
		Message:   in.Message,
		Status:    models.TicketStatusNew,
		Priority:  priority,
		Category:  category,
		CreatedBy: actor.UserID,
	}
	if p := s.actorProvider(ctx, actor); p != nil {
		t.ProviderID = &p.ID
	}

	if err := s.repo.Create(ctx, t, s.now()); err != nil {
		return nil, apperror.Internal(err, "не удалось создать обращение")
	}

	payload := ticketPayload(t)
	admins, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		logSupportWarning(err, t.ID, "не удалось получить администраторов")
	}
	for _, adminID := range admins {
		if adminID != actor.UserID {
			notify(s.events, adminID, EventTicketCreated, payload)
		}
	}
	if s.opts.AdminEmail != "" {
		publishMail(ctx, s.publisher, queue.MailEvent{
			Type:     queue.EventTicketCreated,
			To:       []string{s.opts.AdminEmail},
			Subject:  fmt.Sprintf("[%s] %s", t.TicketNumber, t.Subject),
			Template: queue.EventTicketCreated,
			Data: map[string]interface{}{
				"ticket_number": t.TicketNumber,
				"subject":       t.Subject,
				"priority":      t.Priority,
				"category":      t.Category,
			},
		})
	}
	return t, nil
}

// List возвращает обращения, видимые пользователю.
func (s *SupportService) List(ctx context.Context, actor Actor, q TicketListQuery) ([]models.Ticket, models.Pagination, error) {
	f := models.TicketFilter{
		Status:   strings.TrimSpace(q.Status),
		Priority: strings.TrimSpace(q.Priority),
		Category: strings.TrimSpace(q.Category),
		Search:   strings.TrimSpace(q.Search),
	}
	if f.Status != "" {
		if _, ok := models.ValidTicketStatuses[f.Status]; !ok {
			return nil, models.Pagination{}, apperror.Validationf("некорректный статус: %s", f.Status)
		}
	}
	if f.Priority != "" {
		if _, ok := models.ValidTicketPriorities[f.Priority]; !ok {
			return nil, models.Pagination{}, apperror.Validationf("некорректный приоритет: %s", f.Priority)
		}
	}
	if f.Category != "" && !models.IsValidTicketCategory(f.Category) {
		return nil, models.Pagination{}, apperror.Validationf("некорректная категория: %s", f.Category)
	}
	if q.AssignedTo != "" {
		id, err := uuid.Parse(q.AssignedTo)
		if err != nil {
			return nil, models.Pagination{}, apperror.Validation("assigned_to должен быть UUID")
		}
		f.AssignedTo = &id
	}
	s.applyScope(ctx, actor, &f)

	page, limit := normalizePage(q.Page, q.Limit, defaultTicketsLimit, maxTicketsLimit)
	f.Limit = limit
	f.Offset = (page - 1) * limit
	tickets, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, apperror.Internal(err, "не удалось получить обращения")
	}
	return tickets, models.NewPagination(page, limit, total), nil
}

// Get возвращает обращение с веткой ответов, журналом и вложениями.
// Внутренние ответы видят только администраторы.
func (s *SupportService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.TicketDetails, error) {
	t, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.repo.ListResponses(ctx, id, actor.IsAdmin())
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить ответы")
	}
	activity, err := s.repo.ListActivity(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить журнал")
	}
	attachments, err := s.repo.ListAttachments(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось загрузить вложения")
	}
	return &models.TicketDetails{
		Ticket:      t,
		Responses:   responses,
		Activity:    activity,
		Attachments: attachments,
	}, nil
}

// Respond добавляет ответ в ветку обращения.
func (s *SupportService) Respond(ctx context.Context, actor Actor, id uuid.UUID, message string, isInternal bool) (*models.TicketResponse, error) {
	message = strings.TrimSpace(message)
	if err := validation.ValidateLength("message", message, 1, validation.MaxMessageLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if isInternal && !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "внутренние заметки доступны только администраторам")
	}
	t, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := &models.TicketResponse{
		TicketID:      id,
		ResponderID:   actor.UserID,
		ResponderType: responderType(actor),
		Message:       message,
		IsInternal:    isInternal,
	}
	if err := s.repo.AddResponse(ctx, resp, actor.IsAdmin() && !isInternal); err != nil {
		return nil, apperror.Internal(err, "не удалось сохранить ответ")
	}

	if !isInternal && t.CreatedBy != actor.UserID {
		notify(s.events, t.CreatedBy, EventTicketResponse, map[string]interface{}{
			"ticket_id":      t.ID,
			"ticket_number":  t.TicketNumber,
			"response_id":    resp.ID,
			"responder_type": resp.ResponderType,
			"message":        resp.Message,
		})
		s.mailCreator(ctx, t, queue.EventTicketResponse, "Nieuwe reactie op "+t.TicketNumber, map[string]interface{}{
			"ticket_number": t.TicketNumber,
			"message":       resp.Message,
		})
	}
	return resp, nil
}

// UpdateStatus меняет статус обращения. Не администратор может только закрыть своё обращение.
func (s *SupportService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status, notes string) (*models.Ticket, error) {
	status = strings.TrimSpace(status)
	if _, ok := models.ValidTicketStatuses[status]; !ok {
		return nil, apperror.Validationf("некорректный статус: %s", status)
	}
	t, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (status != models.TicketStatusClosed || t.CreatedBy != actor.UserID) {
		return nil, apperror.ErrForbidden
	}
	if err := s.changeStatus(ctx, actor, t, status, notes); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *SupportService) changeStatus(ctx context.Context, actor Actor, t *models.Ticket, status, notes string) error {
	if t.Status == status {
		return apperror.Validationf("обращение уже в статусе %s", status)
	}

	now := s.now()
	change := repository.StatusChange{Status: status}
	switch status {
	case models.TicketStatusResolved:
		change.ResolvedAt = &now
	case models.TicketStatusClosed:
		change.ClosedAt = &now
		minutes := int(now.Sub(t.CreatedAt).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		change.ResolutionMinutes = &minutes
	}

	details := fmt.Sprintf("Status changed from '%s' to '%s'", t.Status, status)
	if notes = strings.TrimSpace(notes); notes != "" {
		details += ": " + notes
	}
	actorID := actor.UserID
	change.Activity = models.TicketActivity{ActorID: &actorID, Action: "status_changed", Details: &details}

	if err := s.repo.UpdateStatus(ctx, t.ID, change); err != nil {
		return mapNotFound(err, repository.ErrTicketNotFound, apperror.ErrTicketNotFound, "не удалось изменить статус")
	}

	oldStatus := t.Status
	if t.CreatedBy != actor.UserID {
		notify(s.events, t.CreatedBy, EventTicketStatus, map[string]interface{}{
			"ticket_id":     t.ID,
			"ticket_number": t.TicketNumber,
			"old_status":    oldStatus,
			"new_status":    status,
		})
		s.mailCreator(ctx, t, queue.EventTicketStatus, "Status van "+t.TicketNumber+" gewijzigd", map[string]interface{}{
			"ticket_number": t.TicketNumber,
			"old_status":    oldStatus,
			"new_status":    status,
		})
	}
	t.Status = status
	return nil
}

// Assign назначает обращение администратору; пустое значение снимает назначение.
func (s *SupportService) Assign(ctx context.Context, actor Actor, id uuid.UUID, assignee string) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if _, err := s.ticket(ctx, id); err != nil {
		return nil, err
	}
	if err := s.assign(ctx, actor, id, assignee); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *SupportService) assign(ctx context.Context, actor Actor, id uuid.UUID, assignee string) error {
	var value interface{}
	details := "unassigned"
	if assignee = strings.TrimSpace(assignee); assignee != "" {
		assigneeID, err := uuid.Parse(assignee)
		if err != nil {
			return apperror.Validation("assigned_to должен быть UUID")
		}
		user, err := s.users.GetByID(ctx, assigneeID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperror.Validation("назначаемый пользователь не найден")
			}
			return apperror.Internal(err, "не удалось проверить пользователя")
		}
		if !user.IsAdmin() {
			return apperror.Validation("обращение можно назначить только администратору")
		}
		value = assigneeID
		details = "assigned to " + user.Email
	}

	actorID := actor.UserID
	activity := models.TicketActivity{ActorID: &actorID, Action: "assigned", Details: &details}
	if err := s.repo.UpdateColumn(ctx, id, "assigned_to", value, activity); err != nil {
		return mapNotFound(err, repository.ErrTicketNotFound, apperror.ErrTicketNotFound, "не удалось назначить обращение")
	}
	return nil
}

func (s *SupportService) setPriority(ctx context.Context, actor Actor, t *models.Ticket, priority string) error {
	if _, ok := models.ValidTicketPriorities[priority]; !ok {
		return apperror.Validationf("некорректный приоритет: %s", priority)
	}
	details := fmt.Sprintf("Priority changed from '%s' to '%s'", t.Priority, priority)
	actorID := actor.UserID
	activity := models.TicketActivity{ActorID: &actorID, Action: "priority_changed", Details: &details}
	if err := s.repo.UpdateColumn(ctx, t.ID, "priority", priority, activity); err != nil {
		return mapNotFound(err, repository.ErrTicketNotFound, apperror.ErrTicketNotFound, "не удалось изменить приоритет")
	}
	return nil
}

// Bulk применяет операцию к каждому обращению отдельно; ошибка одного не прерывает остальные.
func (s *SupportService) Bulk(ctx context.Context, actor Actor, in BulkInput) (*BulkResult, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	switch in.Operation {
	case BulkAssign, BulkStatusUpdate, BulkPriorityUpdate:
	default:
		return nil, apperror.Validation("operation должен быть assign, status_update или priority_update")
	}
	if len(in.TicketIDs) == 0 {
		return nil, apperror.Validation("ticket_ids не может быть пустым")
	}
	if len(in.TicketIDs) > maxBulkTickets {
		return nil, apperror.Validationf("не более %d обращений за раз", maxBulkTickets)
	}
	if in.Operation != BulkAssign && strings.TrimSpace(in.Value) == "" {
		return nil, apperror.Validation("value обязателен")
	}

	result := &BulkResult{Operation: in.Operation, Results: make([]BulkItemResult, 0, len(in.TicketIDs))}
	for _, raw := range in.TicketIDs {
		item := BulkItemResult{TicketID: raw}
		if err := s.bulkOne(ctx, actor, raw, in); err != nil {
			item.Error = err.Error()
			if appErr, ok := apperror.As(err); ok {
				item.Error = appErr.Message
			}
			result.Failed++
		} else {
			item.Success = true
			result.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

func (s *SupportService) bulkOne(ctx context.Context, actor Actor, raw string, in BulkInput) error {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperror.Validation("некорректный идентификатор обращения")
	}
	t, err := s.ticket(ctx, id)
	if err != nil {
		return err
	}
	value := strings.TrimSpace(in.Value)
	switch in.Operation {
	case BulkAssign:
		return s.assign(ctx, actor, id, value)
	case BulkStatusUpdate:
		if _, ok := models.ValidTicketStatuses[value]; !ok {
			return apperror.Validationf("некорректный статус: %s", value)
		}
		return s.changeStatus(ctx, actor, t, value, "bulk update")
	default:
		return s.setPriority(ctx, actor, t, value)
	}
}

// Dashboard возвращает счётчики по видимым пользователю обращениям.
func (s *SupportService) Dashboard(ctx context.Context, actor Actor) (*models.TicketDashboard, error) {
	var scope models.TicketFilter
	s.applyScope(ctx, actor, &scope)
	d, err := s.repo.Dashboard(ctx, actor.UserID, scope)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось собрать сводку")
	}
	return d, nil
}

// Statistics считает показатели за период; по умолчанию последние 30 дней.
func (s *SupportService) Statistics(ctx context.Context, actor Actor, from, to *time.Time) (*models.TicketStatistics, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.Add(-statisticsWindow)
	if from != nil {
		start = *from
	}
	if !start.Before(end) {
		return nil, apperror.Validation("from должен быть раньше to")
	}
	stats, err := s.repo.Statistics(ctx, start, end)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось посчитать статистику")
	}
	return stats, nil
}

// AddAttachment прикрепляет файл к обращению.
func (s *SupportService) AddAttachment(ctx context.Context, actor Actor, id uuid.UUID, filename string, file io.ReadSeeker) (*models.TicketAttachment, error) {
	if _, err := s.visibleTicket(ctx, actor, id); err != nil {
		return nil, err
	}
	contentType, err := storage.Detect(file, filename, storage.AttachmentKinds)
	if err != nil {
		return nil, uploadError(err, s.opts.MaxUploadMB)
	}
	rel, size, err := s.files.Save(ctx, "support/"+id.String(), filename, file)
	if err != nil {
		return nil, uploadError(err, s.opts.MaxUploadMB)
	}

	a := &models.TicketAttachment{
		TicketID:    id,
		UploadedBy:  actor.UserID,
		FileName:    filename,
		Path:        rel,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if err := s.repo.AddAttachment(ctx, a); err != nil {
		_ = s.files.Delete(ctx, rel)
		return nil, apperror.Internal(err, "не удалось сохранить вложение")
	}
	return a, nil
}

// Attachment возвращает вложение и путь к файлу, если обращение видно пользователю.
func (s *SupportService) Attachment(ctx context.Context, actor Actor, attachmentID uuid.UUID) (*models.TicketAttachment, string, error) {
	a, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, "", mapNotFound(err, repository.ErrAttachmentNotFound, apperror.ErrAttachmentNotFound, "не удалось загрузить вложение")
	}
	if _, err := s.visibleTicket(ctx, actor, a.TicketID); err != nil {
		if apperror.IsNotFound(err) {
			return nil, "", apperror.ErrAttachmentNotFound
		}
		return nil, "", err
	}
	path, err := s.files.Path(a.Path)
	if err != nil {
		return nil, "", apperror.Internal(err, "не удалось открыть вложение")
	}
	return a, path, nil
}

func (s *SupportService) ticket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrTicketNotFound, apperror.ErrTicketNotFound, "не удалось загрузить обращение")
	}
	return t, nil
}

func (s *SupportService) reload(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.ticket(ctx, id)
}

// visibleTicket скрывает чужие обращения так же, как несуществующие.
func (s *SupportService) visibleTicket(ctx context.Context, actor Actor, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.ticket(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || t.CreatedBy == actor.UserID {
		return t, nil
	}
	if t.ProviderID != nil {
		if p := s.actorProvider(ctx, actor); p != nil && p.ID == *t.ProviderID {
			return t, nil
		}
	}
	return nil, apperror.ErrTicketNotFound
}

func (s *SupportService) applyScope(ctx context.Context, actor Actor, f *models.TicketFilter) {
	if actor.IsAdmin() {
		return
	}
	userID := actor.UserID
	f.VisibleTo = &userID
	if p := s.actorProvider(ctx, actor); p != nil {
		providerID := p.ID
		f.ProviderID = &providerID
	}
}

func (s *SupportService) actorProvider(ctx context.Context, actor Actor) *models.Provider {
	if actor.Role != models.RoleProvider || s.providers == nil {
		return nil
	}
	p, err := s.providers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil
	}
	return p
}

func (s *SupportService) mailCreator(ctx context.Context, t *models.Ticket, eventType, subject string, data map[string]interface{}) {
	creator, err := s.users.GetByID(ctx, t.CreatedBy)
	if err != nil {
		logSupportWarning(err, t.ID, "не удалось найти автора обращения")
		return
	}
	publishMail(ctx, s.publisher, queue.MailEvent{
		Type:     eventType,
		To:       []string{creator.Email},
		Subject:  subject,
		Template: eventType,
		Data:     data,
	})
}

func responderType(actor Actor) string {
	switch actor.Role {
	case models.RoleAdmin:
		return "admin"
	case models.RoleProvider:
		return "provider"
	}
	return "user"
}

func ticketPayload(t *models.Ticket) map[string]interface{} {
	return map[string]interface{}{
		"ticket_id":     t.ID,
		"ticket_number": t.TicketNumber,
		"subject":       t.Subject,
		"priority":      t.Priority,
		"category":      t.Category,
		"status":        t.Status,
	}
}

func logSupportWarning(err error, ticketID uuid.UUID, msg string) {
	logger.Component("support").WithError(err).WithField("ticket_id", ticketID).Warn("service: " + msg)
}
