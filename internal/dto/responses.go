package dto

import (
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/service"
)

// ErrorResponse стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse ответ без данных.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse публичные поля пользователя.
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// AuthResponse итог регистрации, входа или запроса /me.
type AuthResponse struct {
	User     UserResponse       `json:"user"`
	Provider *models.Provider   `json:"provider,omitempty"`
	Tokens   *service.TokenPair `json:"tokens,omitempty"`
}

// NewAuthResponse собирает ответ из результата сервиса.
func NewAuthResponse(result *service.AuthResult) AuthResponse {
	resp := AuthResponse{Provider: result.Provider, Tokens: result.TokenPair}
	if u := result.User; u != nil {
		resp.User = UserResponse{
			ID:            u.ID.String(),
			Email:         u.Email,
			Role:          u.Role,
			EmailVerified: u.EmailVerified,
		}
	}
	return resp
}

// ListResponse постраничный список.
type ListResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// NewListResponse гарантирует пустой массив вместо null.
func NewListResponse[T any](items []T, p models.Pagination) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Pagination: p}
}
