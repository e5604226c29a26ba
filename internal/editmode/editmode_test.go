package editmode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
)

func ownerSession() (*Session, *Owner) {
	userID := uuid.New()
	owner := &Owner{ID: uuid.New(), UserID: userID, Slug: "taalhuis"}
	return NewSession(Credentials{Token: "tok", User: &User{ID: userID, Role: models.RoleProvider}}, owner), owner
}

type savedField struct {
	Field string
	Value any
}

type recordingSaver struct {
	mu    sync.Mutex
	saves []savedField
	fail  map[string]error
}

func (r *recordingSaver) Save(_ context.Context, field string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, savedField{Field: field, Value: value})
	return r.fail[field]
}

func (r *recordingSaver) snapshot() []savedField {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]savedField(nil), r.saves...)
}

func TestSession_CanEdit(t *testing.T) {
	s, owner := ownerSession()
	assert.True(t, s.CanEdit())

	s.SetCredentials(Credentials{User: &User{ID: owner.UserID, Role: models.RoleAdmin}})
	assert.False(t, s.CanEdit())

	s.SetCredentials(Credentials{User: &User{ID: uuid.New(), Role: models.RoleProvider}})
	assert.False(t, s.CanEdit())

	s.SetCredentials(Credentials{})
	assert.False(t, s.CanEdit())

	assert.False(t, NewSession(Credentials{User: &User{ID: owner.UserID, Role: models.RoleProvider}}, nil).CanEdit())
}

func TestSession_ToggleIsNoopWithoutCapability(t *testing.T) {
	s := NewSession(Credentials{}, &Owner{UserID: uuid.New()})

	assert.False(t, s.Toggle())
	s.Enter()
	assert.False(t, s.IsEditMode())
}

func TestSession_EnterExitAndLosingCapability(t *testing.T) {
	s, _ := ownerSession()

	assert.True(t, s.Toggle())
	assert.False(t, s.Toggle())

	s.Enter()
	s.SetStatus(StatusError)
	s.Exit()
	assert.False(t, s.IsEditMode())
	assert.Equal(t, StatusIdle, s.Status())

	s.Enter()
	require.True(t, s.IsEditMode())
	s.SetCredentials(Credentials{})
	assert.False(t, s.IsEditMode())
}

func TestSession_Subscribe(t *testing.T) {
	s, _ := ownerSession()
	ch, unsubscribe := s.Subscribe()

	s.SetStatus(StatusSaving)
	s.SetStatus(StatusSaving)
	s.SetStatus(StatusSaved)

	assert.Equal(t, StatusSaving, <-ch)
	assert.Equal(t, StatusSaved, <-ch)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestAutosaver_DebouncesPerField(t *testing.T) {
	s, _ := ownerSession()
	saver := &recordingSaver{}
	a := NewAutosaver(s, saver, WithDebounce(30*time.Millisecond), WithSavedHold(time.Hour))
	defer a.Close()

	require.True(t, a.AutoSave("bio_nl", "a"))
	require.True(t, a.AutoSave("website", "https://example.nl"))
	require.True(t, a.AutoSave("bio_nl", "ab"))
	require.True(t, a.AutoSave("bio_nl", "abc"))

	require.Eventually(t, func() bool { return len(saver.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Status() == StatusSaved }, time.Second, 5*time.Millisecond)

	saves := saver.snapshot()
	assert.ElementsMatch(t, []savedField{
		{Field: "bio_nl", Value: "abc"},
		{Field: "website", Value: "https://example.nl"},
	}, saves)
	assert.Empty(t, a.PendingFields())
}

func TestAutosaver_NoopWithoutCapability(t *testing.T) {
	s := NewSession(Credentials{}, &Owner{UserID: uuid.New()})
	saver := &recordingSaver{}
	a := NewAutosaver(s, saver, WithDebounce(time.Millisecond))
	defer a.Close()

	assert.False(t, a.AutoSave("bio_nl", "x"))
	require.NoError(t, a.Flush(context.Background()))
	assert.Empty(t, saver.snapshot())
	assert.Equal(t, StatusIdle, s.Status())
}

func TestAutosaver_SavedReturnsToIdle(t *testing.T) {
	s, _ := ownerSession()
	a := NewAutosaver(s, &recordingSaver{}, WithDebounce(time.Millisecond), WithSavedHold(20*time.Millisecond))
	defer a.Close()

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	a.AutoSave("city", "Utrecht")

	assert.Equal(t, StatusSaving, <-ch)
	assert.Equal(t, StatusSaved, <-ch)
	assert.Equal(t, StatusIdle, <-ch)
}

func TestAutosaver_FlushReportsFailures(t *testing.T) {
	s, _ := ownerSession()
	saver := &recordingSaver{fail: map[string]error{"phone": errors.New("boom")}}
	a := NewAutosaver(s, saver, WithDebounce(time.Hour))
	defer a.Close()

	a.AutoSave("phone", "+31 20 000")
	a.AutoSave("city", "Leiden")
	assert.Equal(t, []string{"city", "phone"}, a.PendingFields())

	err := a.Flush(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, saver.snapshot(), 2)
	assert.Equal(t, StatusError, s.Status())
	assert.Empty(t, a.PendingFields())
}

func TestAutosaver_CloseCancelsPending(t *testing.T) {
	s, _ := ownerSession()
	saver := &recordingSaver{}
	a := NewAutosaver(s, saver, WithDebounce(20*time.Millisecond))

	a.AutoSave("bio_en", "hello")
	a.Close()

	assert.False(t, a.AutoSave("bio_en", "again"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, saver.snapshot())
}

func TestAutosaver_SaveChanges(t *testing.T) {
	s, _ := ownerSession()
	saver := &recordingSaver{}
	a := NewAutosaver(s, saver, WithDebounce(time.Hour))
	defer a.Close()

	original := map[string]any{"city": "Delft", "opening_hours": map[string]any{"mon": []any{"09:00-17:00"}}}
	edited := map[string]any{"city": "Delft", "opening_hours": map[string]any{"mon": []any{"10:00-17:00"}}}

	n := a.SaveChanges(Diff(original, edited))

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"opening_hours"}, a.PendingFields())
}

func TestDiff(t *testing.T) {
	original := map[string]any{
		"city":   "Delft",
		"social": map[string]any{"instagram": "@x"},
		"phone":  "+31",
	}

	assert.False(t, HasChanges(original, map[string]any{
		"city":   "Delft",
		"social": map[string]any{"instagram": "@x"},
		"phone":  "+31",
	}))

	changes := Diff(original, map[string]any{
		"city":    "Leiden",
		"social":  map[string]any{"instagram": "@x"},
		"website": "https://x.nl",
	})
	require.Len(t, changes, 3)
	assert.Equal(t, "city", changes[0].Field)
	assert.Equal(t, "Leiden", changes[0].New)
	assert.Equal(t, "phone", changes[1].Field)
	assert.Nil(t, changes[1].New)
	assert.Equal(t, "website", changes[2].Field)
	assert.Nil(t, changes[2].Old)
}

func TestDiff_MissingKeyEqualsNil(t *testing.T) {
	assert.Empty(t, Diff(map[string]any{}, map[string]any{"logo": nil}))
	assert.Empty(t, Diff(map[string]any{"logo": nil}, map[string]any{}))
	assert.False(t, HasChanges(map[string]any{"logo": nil}, nil))

	changes := Diff(map[string]any{"logo": "a.png"}, map[string]any{"logo": nil})
	require.Len(t, changes, 1)
	assert.Equal(t, "a.png", changes[0].Old)
	assert.Nil(t, changes[0].New)
}

func TestHTTPSaver_Save(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, ProfilePath, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	saver := NewHTTPSaver(srv.URL+"/", ProfilePath, func() string { return "tok" })
	require.NoError(t, saver.Save(context.Background(), "website", "https://x.nl"))

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, map[string]any{"website": "https://x.nl"}, gotBody)
}

func TestHTTPSaver_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"поле website недопустимо"}`))
	}))
	defer srv.Close()

	err := NewHTTPSaver(srv.URL, ProfilePath, nil).Save(context.Background(), "website", "nope")

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, http.StatusBadRequest, saveErr.Status)
	assert.Equal(t, "website", saveErr.Field)
	assert.Contains(t, saveErr.Message, "website")
}

func TestStaffAutosaver(t *testing.T) {
	s, _ := ownerSession()
	var calls []string
	ok := true
	sa := NewStaffAutosaver(s, func(_ context.Context, field string, _ any) (bool, error) {
		calls = append(calls, field)
		return ok, nil
	})

	require.NoError(t, sa.AutoSave(context.Background(), "name", "Anna"))
	assert.Equal(t, StatusSaved, s.Status())

	ok = false
	err := sa.AutoSave(context.Background(), "role", "Docent")
	assert.ErrorIs(t, err, ErrNotSaved)
	assert.Equal(t, StatusError, s.Status())
	assert.Equal(t, []string{"name", "role"}, calls)

	s.SetCredentials(Credentials{})
	require.NoError(t, sa.AutoSave(context.Background(), "email", "a@b.nl"))
	assert.Len(t, calls, 2)
}
