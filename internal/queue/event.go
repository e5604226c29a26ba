// Package queue доставляет почтовые события через RabbitMQ: сервисы
// публикуют MailEvent, фоновый Consumer передаёт их в Mailer.
package queue

import (
	"context"
	"time"

	"github.com/lingora/lingora-backend/internal/logger"
)

// Типы почтовых событий
const (
	EventVerifyEmail      = "verify_email"
	EventPasswordReset    = "password_reset"
	EventContactMessage   = "contact_message"
	EventContactAutoReply = "contact_auto_reply"
	EventTicketCreated    = "ticket_created"
	EventTicketResponse   = "ticket_response"
	EventTicketStatus     = "ticket_status"
)

// DefaultQueue имя очереди почтовых событий.
const DefaultQueue = "mail.events"

// MailEvent письмо, которое нужно отправить.
type MailEvent struct {
	Type      string                 `json:"type"`
	To        []string               `json:"to"`
	Bcc       []string               `json:"bcc,omitempty"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Publisher отправляет почтовые события в очередь.
type Publisher interface {
	Publish(ctx context.Context, event MailEvent) error
}

// NoopPublisher используется, когда брокер недоступен: событие только логируется.
type NoopPublisher struct{}

// Publish реализует Publisher.
func (NoopPublisher) Publish(_ context.Context, event MailEvent) error {
	logger.Component("queue").WithFields(map[string]interface{}{
		"type": event.Type,
		"to":   event.To,
	}).Warn("queue: брокер недоступен, письмо не поставлено в очередь")
	return nil
}
