package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ContactMessage сообщение посетителя поставщику через форму контакта.
type ContactMessage struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ProviderID        uuid.UUID  `db:"provider_id" json:"provider_id"`
	ServiceID         *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	StaffID           *uuid.UUID `db:"staff_id" json:"staff_id,omitempty"`
	SenderName        string     `db:"sender_name" json:"sender_name"`
	SenderEmail       string     `db:"sender_email" json:"sender_email"`
	PreferredLanguage string     `db:"preferred_language" json:"preferred_language"`
	Subject           string     `db:"subject" json:"subject"`
	Message           string     `db:"message" json:"message"`
	ConsentGiven      bool       `db:"consent_given" json:"consent_given"`
	IPAddress         string     `db:"ip_address" json:"-"`
	UserAgent         *string    `db:"user_agent" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// Notification сохранённое событие для пользователя (дублирует WebSocket push).
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
