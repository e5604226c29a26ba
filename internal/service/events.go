package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/queue"
)

// События WebSocket
const (
	EventProviderSaved  = "provider.saved"
	EventTicketCreated  = "ticket.created"
	EventTicketResponse = "ticket.response"
	EventTicketStatus   = "ticket.status"
)

// EventBroadcaster доставляет события пользователю через WebSocket.
type EventBroadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToUser(uuid.UUID, string, any) error { return nil }

func orNoopBroadcaster(b EventBroadcaster) EventBroadcaster {
	if b == nil {
		return noopBroadcaster{}
	}
	return b
}

func orNoopPublisher(p queue.Publisher) queue.Publisher {
	if p == nil {
		return queue.NoopPublisher{}
	}
	return p
}

// publishMail ставит письмо в очередь; сбой брокера не прерывает запрос.
func publishMail(ctx context.Context, p queue.Publisher, event queue.MailEvent) {
	if err := p.Publish(ctx, event); err != nil {
		logger.Component("mail").WithError(err).WithField("type", event.Type).
			Warn("service: не удалось поставить письмо в очередь")
	}
}

func notify(b EventBroadcaster, userID uuid.UUID, event string, data any) {
	if err := b.BroadcastToUser(userID, event, data); err != nil {
		logger.Component("ws").WithError(err).WithField("event", event).
			Warn("service: не удалось отправить событие")
	}
}

// mapNotFound заменяет ошибку репозитория "не найдено" на доменную.
func mapNotFound(err, repoErr error, appErr *apperror.AppError, message string) error {
	if errors.Is(err, repoErr) {
		return appErr
	}
	return apperror.Internal(err, message)
}
