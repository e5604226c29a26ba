package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы обращений в поддержку
const (
	TicketStatusNew        = "new"
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusPending    = "pending"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Приоритеты обращений
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// DefaultTicketCategory категория обращения по умолчанию.
const DefaultTicketCategory = "general_inquiry"

// ValidTicketStatuses допустимые статусы обращений
var ValidTicketStatuses = map[string]struct{}{
	TicketStatusNew:        {},
	TicketStatusOpen:       {},
	TicketStatusInProgress: {},
	TicketStatusPending:    {},
	TicketStatusResolved:   {},
	TicketStatusClosed:     {},
}

// ValidTicketPriorities допустимые приоритеты
var ValidTicketPriorities = map[string]struct{}{
	TicketPriorityLow:    {},
	TicketPriorityMedium: {},
	TicketPriorityHigh:   {},
	TicketPriorityUrgent: {},
}

// TicketCategory категория обращения для справочника.
type TicketCategory struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TicketCategories список категорий обращений.
var TicketCategories = []TicketCategory{
	{Value: "technical_issue", Label: "Technical issue"},
	{Value: "account_issue", Label: "Account issue"},
	{Value: "billing", Label: "Billing"},
	{Value: "feature_request", Label: "Feature request"},
	{Value: "general_inquiry", Label: "General inquiry"},
	{Value: "bug_report", Label: "Bug report"},
}

// IsValidTicketCategory проверяет значение категории.
func IsValidTicketCategory(value string) bool {
	for _, c := range TicketCategories {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Ticket обращение в поддержку.
type Ticket struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	TicketNumber            string     `db:"ticket_number" json:"ticket_number"`
	Subject                 string     `db:"subject" json:"subject"`
	Message                 string     `db:"message" json:"message"`
	Status                  string     `db:"status" json:"status"`
	Priority                string     `db:"priority" json:"priority"`
	Category                string     `db:"category" json:"category"`
	CreatedBy               uuid.UUID  `db:"created_by" json:"created_by"`
	ProviderID              *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	AssignedTo              *uuid.UUID `db:"assigned_to" json:"assigned_to,omitempty"`
	FirstResponseAt         *time.Time `db:"first_response_at" json:"first_response_at,omitempty"`
	ResolvedAt              *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ClosedAt                *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ActualResolutionMinutes *int       `db:"actual_resolution_minutes" json:"actual_resolution_minutes,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// TicketResponse ответ в ветке обращения.
type TicketResponse struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TicketID      uuid.UUID `db:"ticket_id" json:"ticket_id"`
	ResponderID   uuid.UUID `db:"responder_id" json:"responder_id"`
	ResponderType string    `db:"responder_type" json:"responder_type"`
	ResponderName *string   `db:"responder_email" json:"responder_email,omitempty"`
	Message       string    `db:"message" json:"message"`
	IsInternal    bool      `db:"is_internal" json:"is_internal"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TicketActivity запись журнала изменений обращения.
type TicketActivity struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TicketID  uuid.UUID  `db:"ticket_id" json:"ticket_id"`
	ActorID   *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	Action    string     `db:"action" json:"action"`
	Details   *string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// TicketAttachment файл, приложенный к обращению.
type TicketAttachment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TicketID    uuid.UUID `db:"ticket_id" json:"ticket_id"`
	UploadedBy  uuid.UUID `db:"uploaded_by" json:"uploaded_by"`
	FileName    string    `db:"file_name" json:"file_name"`
	Path        string    `db:"path" json:"-"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TicketDetails обращение со всей веткой.
type TicketDetails struct {
	*Ticket
	Responses   []TicketResponse   `json:"responses"`
	Activity    []TicketActivity   `json:"activity"`
	Attachments []TicketAttachment `json:"attachments"`
}

// TicketFilter фильтры списка обращений.
type TicketFilter struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo *uuid.UUID
	Search     string
	// VisibleTo ограничивает выборку обращениями пользователя и его поставщика.
	VisibleTo  *uuid.UUID
	ProviderID *uuid.UUID
	Limit      int
	Offset     int
}

// TicketDashboard сводка для панели поддержки.
type TicketDashboard struct {
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	MyOpen     int            `json:"my_open"`
	Unassigned int            `json:"unassigned"`
	Total      int            `json:"total"`
}

// TicketStatistics статистика за период.
type TicketStatistics struct {
	From                    time.Time      `json:"from"`
	To                      time.Time      `json:"to"`
	Total                   int            `json:"total"`
	ByStatus                map[string]int `json:"by_status"`
	ByPriority              map[string]int `json:"by_priority"`
	ByCategory              map[string]int `json:"by_category"`
	AvgResolutionMinutes    float64        `json:"avg_resolution_minutes"`
	AvgFirstResponseMinutes float64        `json:"avg_first_response_minutes"`
}

// AdminNote внутренняя заметка администратора о поставщике или обращении.
type AdminNote struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ContextType string    `db:"context_type" json:"context_type"`
	ContextID   uuid.UUID `db:"context_id" json:"context_id"`
	AdminUserID uuid.UUID `db:"admin_user_id" json:"admin_user_id"`
	AdminEmail  *string   `db:"admin_email" json:"admin_name,omitempty"`
	NoteText    string    `db:"note_text" json:"note_text"`
	NoteType    string    `db:"note_type" json:"note_type"`
	IsInternal  bool      `db:"is_internal" json:"is_internal"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Контексты заметок
const (
	NoteContextProvider = "provider"
	NoteContextTicket   = "ticket"
)

// ValidNoteTypes допустимые типы заметок
var ValidNoteTypes = map[string]struct{}{
	"general":   {},
	"warning":   {},
	"follow_up": {},
}
