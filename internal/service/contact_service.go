package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/queue"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/validation"
)

// ContactRepository хранит сообщения формы контакта.
type ContactRepository interface {
	Create(ctx context.Context, m *models.ContactMessage) error
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// UserLookup находит пользователя по ID.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ContactInput тело формы контакта.
type ContactInput struct {
	ProviderID        string `json:"provider_id"`
	ServiceID         string `json:"service_id"`
	StaffID           string `json:"staff_id"`
	SenderName        string `json:"sender_name"`
	SenderEmail       string `json:"sender_email"`
	PreferredLanguage string `json:"preferred_language"`
	Subject           string `json:"subject"`
	Message           string `json:"message"`
	ConsentGiven      bool   `json:"consent_given"`
}

// ContactOptions настройки формы контакта.
type ContactOptions struct {
	HourlyLimit int
	AdminEmail  string
}

// ContactService принимает сообщения посетителей и ставит письма в очередь.
type ContactService struct {
	repo      ContactRepository
	providers ProviderReader
	users     UserLookup
	publisher queue.Publisher
	opts      ContactOptions
	now       func() time.Time
}

// NewContactService создаёт сервис формы контакта.
func NewContactService(repo ContactRepository, providers ProviderReader, users UserLookup, publisher queue.Publisher, opts ContactOptions) *ContactService {
	if opts.HourlyLimit <= 0 {
		opts.HourlyLimit = 5
	}
	return &ContactService{
		repo:      repo,
		providers: providers,
		users:     users,
		publisher: orNoopPublisher(publisher),
		opts:      opts,
		now:       time.Now,
	}
}

// Send проверяет форму и лимит по IP, сохраняет сообщение и уведомляет поставщика.
func (s *ContactService) Send(ctx context.Context, in ContactInput, ip, userAgent string) (*models.ContactMessage, error) {
	msg, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	p, err := s.providers.GetByID(ctx, msg.ProviderID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrProviderNotFound, apperror.ErrProviderNotFound, "не удалось загрузить карточку")
	}
	if !p.IsVisible() {
		return nil, apperror.ErrProviderNotFound
	}

	count, err := s.repo.CountByIPSince(ctx, ip, s.now().Add(-time.Hour))
	if err != nil {
		return nil, apperror.Internal(err, "не удалось проверить лимит сообщений")
	}
	if count >= s.opts.HourlyLimit {
		return nil, apperror.ErrTooManyRequests
	}

	msg.IPAddress = ip
	msg.UserAgent = optionalString(strings.TrimSpace(userAgent))
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, apperror.Internal(err, "не удалось сохранить сообщение")
	}

	s.notifyProvider(ctx, p, msg)
	return msg, nil
}

func (s *ContactService) validate(in ContactInput) (*models.ContactMessage, error) {
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.SenderEmail = strings.TrimSpace(in.SenderEmail)
	in.PreferredLanguage = strings.ToLower(strings.TrimSpace(in.PreferredLanguage))
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if err := validation.ValidateRequired(map[string]string{
		"provider_id":        in.ProviderID,
		"sender_name":        in.SenderName,
		"sender_email":       in.SenderEmail,
		"preferred_language": in.PreferredLanguage,
		"subject":            in.Subject,
		"message":            in.Message,
	}, "provider_id", "sender_name", "sender_email", "preferred_language", "subject", "message"); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if !in.ConsentGiven {
		return nil, apperror.Validation("необходимо согласие на обработку данных")
	}
	if err := validation.ValidateEmail(in.SenderEmail); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLanguageCode(in.PreferredLanguage); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"sender_name", in.SenderName, validation.MaxSenderNameLength},
		{"subject", in.Subject, validation.MaxSubjectLength},
		{"message", in.Message, validation.MaxMessageLength},
	} {
		if err := validation.ValidateLength(f.name, f.value, 1, f.max); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}

	providerID, err := uuid.Parse(strings.TrimSpace(in.ProviderID))
	if err != nil {
		return nil, apperror.Validation("provider_id должен быть UUID")
	}
	serviceID, err := optionalUUID("service_id", in.ServiceID)
	if err != nil {
		return nil, err
	}
	staffID, err := optionalUUID("staff_id", in.StaffID)
	if err != nil {
		return nil, err
	}

	return &models.ContactMessage{
		ProviderID:        providerID,
		ServiceID:         serviceID,
		StaffID:           staffID,
		SenderName:        in.SenderName,
		SenderEmail:       validation.NormalizeEmail(in.SenderEmail),
		PreferredLanguage: in.PreferredLanguage,
		Subject:           in.Subject,
		Message:           in.Message,
		ConsentGiven:      true,
	}, nil
}

func (s *ContactService) notifyProvider(ctx context.Context, p *models.Provider, msg *models.ContactMessage) {
	recipient := ""
	if p.Email != nil {
		recipient = *p.Email
	} else if owner, err := s.users.GetByID(ctx, p.UserID); err == nil {
		recipient = owner.Email
	}

	var bcc []string
	if s.opts.AdminEmail != "" {
		bcc = []string{s.opts.AdminEmail}
	}
	if recipient != "" {
		publishMail(ctx, s.publisher, queue.MailEvent{
			Type:     queue.EventContactMessage,
			To:       []string{recipient},
			Bcc:      bcc,
			Subject:  "Nieuw bericht via Lingora: " + msg.Subject,
			Template: queue.EventContactMessage,
			Data: map[string]interface{}{
				"message_id":         msg.ID.String(),
				"provider_id":        p.ID.String(),
				"business_name":      p.BusinessName,
				"sender_name":        msg.SenderName,
				"sender_email":       msg.SenderEmail,
				"preferred_language": msg.PreferredLanguage,
				"subject":            msg.Subject,
				"message":            msg.Message,
			},
		})
	}

	publishMail(ctx, s.publisher, queue.MailEvent{
		Type:     queue.EventContactAutoReply,
		To:       []string{msg.SenderEmail},
		Subject:  "Uw bericht aan " + p.BusinessName,
		Template: queue.EventContactAutoReply,
		Data: map[string]interface{}{
			"sender_name":   msg.SenderName,
			"business_name": p.BusinessName,
		},
	})
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validationf("%s должен быть UUID", field)
	}
	return &id, nil
}
