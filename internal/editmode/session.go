// Package editmode реализует режим редактирования карточки её владельцем:
// права на редактирование, статус сохранения и автосохранение полей.
package editmode

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/models"
)

// SaveStatus состояние автосохранения для индикатора.
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

// User вошедший пользователь.
type User struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// Credentials токен и пользователь текущей сессии.
type Credentials struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Owner карточка, открытая на редактирование.
type Owner struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Slug   string    `json:"slug"`
}

const subscriberBuffer = 8

// Session держит флаг режима редактирования и статус сохранения.
// Безопасна для использования из нескольких горутин.
type Session struct {
	mu       sync.RWMutex
	creds    Credentials
	owner    *Owner
	editMode bool
	status   SaveStatus
	subs     map[int]chan SaveStatus
	nextSub  int
}

// NewSession создаёт сессию. owner может быть nil, пока карточка не загружена.
func NewSession(creds Credentials, owner *Owner) *Session {
	return &Session{
		creds:  creds,
		owner:  owner,
		status: StatusIdle,
		subs:   make(map[int]chan SaveStatus),
	}
}

// IsOwner сообщает, что карточка принадлежит вошедшему поставщику.
func (s *Session) IsOwner() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canEditLocked()
}

// CanEdit сообщает, может ли пользователь редактировать карточку.
// Администратор чужую карточку через этот режим не правит.
func (s *Session) CanEdit() bool {
	return s.IsOwner()
}

func (s *Session) canEditLocked() bool {
	u := s.creds.User
	return u != nil && s.owner != nil && u.ID == s.owner.UserID && u.Role == models.RoleProvider
}

// Token возвращает access токен текущей сессии.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

func (s *Session) IsEditMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editMode
}

// Toggle переключает режим и возвращает новое значение. Без прав ничего не меняет.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canEditLocked() {
		s.editMode = !s.editMode
	}
	return s.editMode
}

// Enter включает режим редактирования, если есть права.
func (s *Session) Enter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canEditLocked() {
		s.editMode = true
	}
}

// Exit выключает режим и сбрасывает статус в idle.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = false
	s.setStatusLocked(StatusIdle)
}

// SetCredentials меняет пользователя (вход, выход, обновление профиля).
// При потере прав режим редактирования выключается.
func (s *Session) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	if !s.canEditLocked() {
		s.editMode = false
	}
}

// SetOwner меняет открытую карточку.
func (s *Session) SetOwner(owner *Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
	if !s.canEditLocked() {
		s.editMode = false
	}
}

func (s *Session) Status() SaveStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) SetStatus(status SaveStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusLocked(status)
}

func (s *Session) setStatusLocked(status SaveStatus) {
	if s.status == status {
		return
	}
	s.status = status
	for _, ch := range s.subs {
		// медленный подписчик пропускает промежуточные статусы
		select {
		case ch <- status:
		default:
		}
	}
}

// Subscribe возвращает канал изменений статуса и функцию отписки.
func (s *Session) Subscribe() (<-chan SaveStatus, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan SaveStatus, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}
