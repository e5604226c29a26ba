package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/queue"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/validation"
)

const defaultResetTokenTTL = time.Hour

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	CreateWithProvider(ctx context.Context, user *models.User, provider *models.Provider) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteAllSessions(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error
}

// OwnerProviderRepository нужен для поиска карточки владельца и проверки slug.
type OwnerProviderRepository interface {
	SlugChecker
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
}

// AuthOptions параметры регистрации и писем.
type AuthOptions struct {
	TrialPeriod   time.Duration
	ResetTokenTTL time.Duration
	PublicURL     string
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	repo         AuthRepository
	providers    OwnerProviderRepository
	tokenManager *TokenManager
	publisher    queue.Publisher
	opts         AuthOptions
	now          func() time.Time
}

// RegisterInput содержит данные владельца и компании при регистрации.
type RegisterInput struct {
	Email        string
	Password     string
	BusinessName string
	KVKNumber    string
	BTWNumber    string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	Provider  *models.Provider
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, providers OwnerProviderRepository, tokenManager *TokenManager, publisher queue.Publisher, opts AuthOptions) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthService{
		repo:         repo,
		providers:    providers,
		tokenManager: tokenManager,
		publisher:    orNoopPublisher(publisher),
		opts:         opts,
		now:          time.Now,
	}
}

// Register создаёт владельца и его карточку поставщика в статусе pending с пробной подпиской.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta map[string]string) (*AuthResult, error) {
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	if err := validation.ValidateRequired(map[string]string{
		"email":         in.Email,
		"password":      in.Password,
		"business_name": in.BusinessName,
	}, "email", "password", "business_name"); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("business_name", in.BusinessName, 2, validation.MaxBusinessNameLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось захешировать пароль")
	}

	slug, err := uniqueSlug(ctx, s.providers, in.BusinessName, uuid.Nil)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось сформировать адрес страницы")
	}

	verifyToken := newOpaqueToken()
	user := &models.User{
		Email:             validation.NormalizeEmail(in.Email),
		PasswordHash:      string(passHash),
		Role:              models.RoleProvider,
		VerificationToken: &verifyToken,
	}

	now := s.now()
	trialEnds := now.Add(s.opts.TrialPeriod)
	provider := &models.Provider{
		BusinessName:       in.BusinessName,
		Slug:               slug,
		Email:              &user.Email,
		KVKNumber:          optionalString(in.KVKNumber),
		BTWNumber:          optionalString(in.BTWNumber),
		Status:             models.ProviderStatusPending,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialStartedAt:     &now,
		TrialExpiresAt:     &trialEnds,
	}

	if err := s.repo.CreateWithProvider(ctx, user, provider); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, apperror.ErrEmailTaken
		case errors.Is(err, repository.ErrKVKExists):
			return nil, apperror.New(apperror.ErrCodeConflict, "номер KvK уже зарегистрирован")
		}
		return nil, apperror.Internal(err, "не удалось зарегистрировать пользователя")
	}

	publishMail(ctx, s.publisher, queue.MailEvent{
		Type:     queue.EventVerifyEmail,
		To:       []string{user.Email},
		Subject:  "Bevestig uw e-mailadres",
		Template: queue.EventVerifyEmail,
		Data: map[string]interface{}{
			"business_name": provider.BusinessName,
			"verify_url":    s.opts.PublicURL + "/verify-email?token=" + verifyToken,
		},
	})

	tokenPair, err := s.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Provider: provider, TokenPair: tokenPair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	user, err := s.repo.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Internal(err, "не удалось выполнить вход")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "аккаунт заблокирован")
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		logger.Component("auth").WithFields(map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	tokenPair, err := s.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	result := &AuthResult{User: user, TokenPair: tokenPair}
	if user.Role == models.RoleProvider {
		if p, err := s.providers.GetByUserID(ctx, user.ID); err == nil {
			result.Provider = p
		}
	}
	return result, nil
}

// Refresh выпускает новую пару токенов и отзывает старую сессию.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta map[string]string) (*TokenPair, error) {
	userID, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	session, err := s.repo.GetSession(ctx, oldToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "сессия не найдена или уже завершена")
		}
		return nil, apperror.Internal(err, "не удалось обновить токен")
	}
	if session.UserID != userID {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrUserNotFound, apperror.ErrUnauthorized, "не удалось обновить токен")
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "аккаунт заблокирован")
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		return nil, apperror.Internal(err, "не удалось обновить токен")
	}

	return s.issue(ctx, user, meta)
}

// Logout завершает сессию по refresh токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return apperror.Internal(err, "не удалось завершить сессию")
	}
	return nil
}

// VerifyEmail подтверждает email по токену из письма.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.Validation("токен обязателен")
	}
	user, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return mapNotFound(err, repository.ErrUserNotFound,
			apperror.Validation("ссылка подтверждения недействительна"), "не удалось подтвердить email")
	}
	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return apperror.Internal(err, "не удалось подтвердить email")
	}
	return nil
}

// ForgotPassword отправляет письмо со ссылкой сброса, если пользователь существует.
// Наличие аккаунта наружу не раскрывается.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.Validation(err.Error())
	}

	log := logger.Component("auth")
	user, err := s.repo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.WithError(err).Error("auth service: поиск пользователя для сброса пароля")
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}

	token := newOpaqueToken()
	expiresAt := s.now().Add(s.opts.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("auth service: не удалось сохранить токен сброса")
		return nil
	}

	publishMail(ctx, s.publisher, queue.MailEvent{
		Type:     queue.EventPasswordReset,
		To:       []string{user.Email},
		Subject:  "Wachtwoord opnieuw instellen",
		Template: queue.EventPasswordReset,
		Data: map[string]interface{}{
			"reset_url":  s.opts.PublicURL + "/reset-password?token=" + token,
			"expires_at": expiresAt.Format("2006-01-02 15:04"),
		},
	})
	return nil
}

// ResetPassword задаёт новый пароль по токену и завершает все сессии.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.Validation("токен обязателен")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.repo.GetByResetToken(ctx, token, s.now())
	if err != nil {
		return mapNotFound(err, repository.ErrUserNotFound,
			apperror.Validation("ссылка для сброса пароля недействительна или устарела"), "не удалось сбросить пароль")
	}

	return s.setPassword(ctx, user.ID, password)
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err, repository.ErrUserNotFound, apperror.ErrUserNotFound, "не удалось сменить пароль")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.Validation("текущий пароль указан неверно")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return apperror.Validation(err.Error())
	}
	if current == next {
		return apperror.Validation("новый пароль совпадает с текущим")
	}
	return s.setPassword(ctx, userID, next)
}

func (s *AuthService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internal(err, "не удалось захешировать пароль")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return mapNotFound(err, repository.ErrUserNotFound, apperror.ErrUserNotFound, "не удалось сохранить пароль")
	}
	if err := s.repo.DeleteAllSessions(ctx, userID); err != nil {
		logger.Component("auth").WithError(err).WithField("user_id", userID).
			Warn("auth service: не удалось завершить сессии после смены пароля")
	}
	return nil
}

// Me возвращает пользователя и, для поставщика, его карточку.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*AuthResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, repository.ErrUserNotFound, apperror.ErrUserNotFound, "не удалось загрузить пользователя")
	}

	result := &AuthResult{User: user}
	if user.Role == models.RoleProvider {
		provider, err := s.providers.GetByUserID(ctx, userID)
		switch {
		case err == nil:
			result.Provider = provider
		case !errors.Is(err, repository.ErrProviderNotFound):
			return nil, apperror.Internal(err, "не удалось загрузить карточку поставщика")
		}
	}
	return result, nil
}

// ListSessions возвращает список активных сессий пользователя.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось получить сессии")
	}
	return sessions, nil
}

// DeleteSession удаляет сессию по идентификатору.
func (s *AuthService) DeleteSession(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	if err := s.repo.DeleteSessionByID(ctx, sessionID, userID); err != nil {
		return mapNotFound(err, repository.ErrSessionNotFound,
			apperror.New(apperror.ErrCodeNotFound, "сессия не найдена"), "не удалось удалить сессию")
	}
	return nil
}

// issue выпускает пару токенов и сохраняет сессию.
func (s *AuthService) issue(ctx context.Context, user *models.User, meta map[string]string) (*TokenPair, error) {
	tokenPair, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось выпустить токены")
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if ua, ok := meta["user_agent"]; ok && ua != "" {
		session.UserAgent = &ua
	}
	if ip, ok := meta["ip"]; ok && ip != "" {
		session.IPAddress = &ip
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, apperror.Internal(err, "не удалось сохранить сессию")
	}
	return tokenPair, nil
}

func newOpaqueToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
