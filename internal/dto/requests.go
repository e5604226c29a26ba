package dto

import "github.com/lingora/lingora-backend/internal/models"

// RegisterRequest регистрация поставщика.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	BusinessName string `json:"business_name" binding:"required"`
	KVKNumber    string `json:"kvk_number"`
	BTWNumber    string `json:"btw_number"`
}

// LoginRequest вход по email и паролю.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest обмен refresh токена на новую пару.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenRequest подтверждение email.
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ForgotPasswordRequest запрос письма для сброса пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest установка нового пароля по токену.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest смена пароля авторизованным пользователем.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ProviderStatusRequest модерация карточки.
type ProviderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// SubscriptionRequest смена статуса подписки.
type SubscriptionRequest struct {
	SubscriptionStatus string `json:"subscription_status" binding:"required"`
}

// LanguagesRequest полная замена языков карточки.
type LanguagesRequest struct {
	Languages []models.LanguageSkill `json:"languages"`
}

// TicketResponseRequest ответ в ветке обращения.
type TicketResponseRequest struct {
	Message    string `json:"message" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

// TicketStatusRequest смена статуса обращения.
type TicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// AssignRequest назначение обращения; пустое значение снимает назначение.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// NoteRequest заметка администратора.
type NoteRequest struct {
	NoteText string `json:"note_text" binding:"required"`
	NoteType string `json:"note_type"`
}
