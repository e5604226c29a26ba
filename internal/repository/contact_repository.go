package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lingora/lingora-backend/internal/models"
)

// ContactRepository работает с сообщениями формы контакта.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository создаёт экземпляр репозитория.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create сохраняет сообщение.
func (r *ContactRepository) Create(ctx context.Context, m *models.ContactMessage) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO messages (provider_id, service_id, staff_id, sender_name, sender_email,
			preferred_language, subject, message, consent_given, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		m.ProviderID, m.ServiceID, m.StaffID, m.SenderName, m.SenderEmail,
		m.PreferredLanguage, m.Subject, m.Message, m.ConsentGiven, m.IPAddress, m.UserAgent,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("contact repository: create %w", err)
	}
	return nil
}

// CountByIPSince считает сообщения с IP-адреса начиная с момента since.
func (r *ContactRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE ip_address = $1 AND created_at > $2`, ip, since); err != nil {
		return 0, fmt.Errorf("contact repository: count by ip %w", err)
	}
	return count, nil
}
