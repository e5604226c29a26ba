package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("не удалось создать mock БД: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@lingora.nl").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@lingora.nl")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateWithProvider(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()
	providerID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "created_at", "updated_at"}).
			AddRow(userID.String(), true, now, now))
	mock.ExpectQuery("INSERT INTO providers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "country", "opening_hours", "social_links",
			"profile_completeness_score", "created_at", "updated_at"}).
			AddRow(providerID.String(), "Netherlands", []byte("{}"), []byte("{}"), 0, now, now))
	mock.ExpectCommit()

	user := &models.User{Email: "info@tolk.nl", PasswordHash: "hash", Role: models.RoleProvider}
	provider := &models.Provider{BusinessName: "Tolk", Slug: "tolk", Status: models.ProviderStatusPending}

	require.NoError(t, repo.CreateWithProvider(context.Background(), user, provider))
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, userID, provider.UserID)
	assert.Equal(t, providerID, provider.ID)
	assert.Equal(t, "Netherlands", provider.Country)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateWithProvider_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateWithProvider(context.Background(), &models.User{Email: "dup@tolk.nl"}, &models.Provider{})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteSessionByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM user_sessions").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteSessionByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProviderRepository_ReplaceLanguages(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProviderRepository(db)
	providerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM provider_languages WHERE provider_id = $1")).
		WithArgs(providerID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO provider_languages (provider_id, language_code, cefr_level) VALUES ($1, $2, $3), ($4, $5, $6)")).
		WithArgs(providerID, "nl", "native", providerID, "en", "C1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.ReplaceLanguages(context.Background(), providerID, []models.LanguageSkill{
		{LanguageCode: "nl", CEFRLevel: "native"},
		{LanguageCode: "en", CEFRLevel: "C1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepository_ReplaceLanguages_EmptyClearsOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProviderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM provider_languages").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceLanguages(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepository_GetBySlug_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProviderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM providers WHERE slug = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestContactRepository_CountByIPSince(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewContactRepository(db)
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM messages WHERE ip_address = $1 AND created_at > $2")).
		WithArgs("10.0.0.1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountByIPSince(context.Background(), "10.0.0.1", since)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSupportRepository_Create_AssignsDailyNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSupportRepository(db)
	now := time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)
	ticketID := uuid.New()
	creator := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO support_ticket_counters").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO support_tickets").
		WithArgs("TKT-20260314-0007", "Login", "Kan niet inloggen", models.TicketStatusNew,
			models.TicketPriorityMedium, models.DefaultTicketCategory, creator, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(ticketID.String(), now, now))
	mock.ExpectQuery("INSERT INTO support_ticket_activity").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), now))
	mock.ExpectCommit()

	ticket := &models.Ticket{
		Subject:   "Login",
		Message:   "Kan niet inloggen",
		Status:    models.TicketStatusNew,
		Priority:  models.TicketPriorityMedium,
		Category:  models.DefaultTicketCategory,
		CreatedBy: creator,
	}
	require.NoError(t, repo.Create(context.Background(), ticket, now))
	assert.Equal(t, "TKT-20260314-0007", ticket.TicketNumber)
	assert.Equal(t, ticketID, ticket.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAsRead(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestBuildSearch_Filters(t *testing.T) {
	cat := uuid.New()
	query, args, err := buildSearch(models.SearchFilter{
		Languages:  []string{"nl", "ar"},
		Categories: []uuid.UUID{cat},
		Mode:       models.ServiceModeOnline,
		Keyword:    "tolk",
		City:       "Zwolle",
	}).Select(searchColumns...).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, `"provider_languages"`)
	assert.Contains(t, query, "HAVING")
	assert.Contains(t, query, "ILIKE")
	assert.Contains(t, query, `"services"`)
	assert.NotContains(t, query, "tolk")
	assert.Contains(t, args, "%tolk%")
	assert.Contains(t, args, "%Zwolle%")
	assert.Contains(t, args, models.ServiceModeBoth)
	assert.Contains(t, args, cat.String())
}

func TestBuildSearch_VisibleOnlyByDefault(t *testing.T) {
	query, args, err := buildSearch(models.SearchFilter{}).Select(searchColumns...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `"p"."status"`)
	assert.Contains(t, args, models.ProviderStatusApproved)
	assert.Contains(t, args, models.SubscriptionFrozen)
	assert.NotContains(t, query, "HAVING")
}
