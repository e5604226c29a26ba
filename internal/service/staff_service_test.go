package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
)

type fakeStaffRepo struct {
	members map[uuid.UUID]*models.Staff
	updates []map[string]interface{}
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{members: make(map[uuid.UUID]*models.Staff)}
}

func (r *fakeStaffRepo) Create(ctx context.Context, s *models.Staff) error {
	s.ID = uuid.New()
	s.PreferredContactMethod = models.ContactMethodEmail
	s.ResponseTimeHours = 24
	cp := *s
	r.members[s.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	if m, ok := r.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, repository.ErrStaffNotFound
}

func (r *fakeStaffRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	var out []models.Staff
	for _, m := range r.members {
		if m.ProviderID == providerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeStaffRepo) ListContactable(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	var out []models.Staff
	for _, m := range r.members {
		if m.ProviderID == providerID && m.IsActive && m.IsPublic && m.ContactEnabled {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeStaffRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, langs []models.LanguageSkill) error {
	m, ok := r.members[id]
	if !ok {
		return repository.ErrStaffNotFound
	}
	r.updates = append(r.updates, fields)
	for k, v := range fields {
		switch k {
		case "name":
			m.Name = v.(string)
		case "contact_enabled":
			m.ContactEnabled = v.(bool)
		case "preferred_contact_method":
			m.PreferredContactMethod = v.(string)
		case "response_time_hours":
			m.ResponseTimeHours = v.(int)
		}
	}
	if langs != nil {
		m.Languages = langs
	}
	return nil
}

func (r *fakeStaffRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.members[id]; !ok {
		return repository.ErrStaffNotFound
	}
	delete(r.members, id)
	return nil
}

type staffFixture struct {
	svc      *StaffService
	repo     *fakeStaffRepo
	owner    *fakeOwnership
	provider *models.Provider
}

func newStaffFixture() staffFixture {
	p := &models.Provider{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		Status:             models.ProviderStatusApproved,
		SubscriptionStatus: models.SubscriptionActive,
	}
	owner := &fakeOwnership{provider: p}
	repo := newFakeStaffRepo()
	svc := NewStaffService(repo, owner, newFakeProviderRepo(p), fakeCatalog{"nl": true, "en": true})
	return staffFixture{svc: svc, repo: repo, owner: owner, provider: p}
}

func TestStaffService_CreateAndUpdate(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	userID := f.provider.UserID

	_, err := f.svc.Create(ctx, userID, StaffInput{Name: "  "})
	assert.True(t, apperror.IsValidation(err))

	member, err := f.svc.Create(ctx, userID, StaffInput{
		Name:      "Sanne de Vries",
		Email:     strPtr(" Sanne@Tolk.NL "),
		Languages: []models.LanguageSkill{{LanguageCode: "nl", CEFRLevel: "native"}, {LanguageCode: "en"}},
	})
	require.NoError(t, err)
	assert.True(t, member.IsActive)
	assert.True(t, member.IsPublic)
	assert.Equal(t, "sanne@tolk.nl", *member.Email)
	require.Len(t, member.Languages, 2)
	assert.Equal(t, "B2", member.Languages[1].CEFRLevel)
	assert.Equal(t, 1, f.owner.recalcs)

	_, err = f.svc.Update(ctx, userID, member.ID, patchOf(t, `{"id":"x"}`))
	assert.ErrorIs(t, err, apperror.ErrNoAllowedFields)

	updated, err := f.svc.Update(ctx, userID, member.ID, patchOf(t, `{"name":"Sanne","languages":[{"language_code":"en","cefr_level":"C1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Sanne", updated.Name)
	require.Len(t, updated.Languages, 1)
	assert.Equal(t, "C1", updated.Languages[0].CEFRLevel)

	_, err = f.svc.Update(ctx, userID, member.ID, patchOf(t, `{"languages":[{"language_code":"fr"}]}`))
	assert.True(t, apperror.IsValidation(err))
}

func TestStaffService_OwnershipEnforced(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	foreign := &models.Staff{ID: uuid.New(), ProviderID: uuid.New(), Name: "Other"}
	f.repo.members[foreign.ID] = foreign

	_, err := f.svc.Update(ctx, f.provider.UserID, foreign.ID, patchOf(t, `{"name":"Mine"}`))
	assert.True(t, apperror.IsForbidden(err))

	err = f.svc.Delete(ctx, f.provider.UserID, foreign.ID)
	assert.True(t, apperror.IsForbidden(err))
	assert.Contains(t, f.repo.members, foreign.ID)

	err = f.svc.Delete(ctx, f.provider.UserID, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestStaffService_UpdateContactConfig(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	userID := f.provider.UserID
	member, err := f.svc.Create(ctx, userID, StaffInput{Name: "Ahmed"})
	require.NoError(t, err)

	tooLong := 169
	_, err = f.svc.UpdateContactConfig(ctx, userID, member.ID, ContactConfig{ResponseTimeHours: &tooLong})
	assert.True(t, apperror.IsValidation(err))

	fax := "fax"
	_, err = f.svc.UpdateContactConfig(ctx, userID, member.ID, ContactConfig{PreferredContactMethod: &fax})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UpdateContactConfig(ctx, userID, member.ID, ContactConfig{})
	assert.ErrorIs(t, err, apperror.ErrNoAllowedFields)

	enabled, hours, method := true, 4, models.ContactMethodPhone
	updated, err := f.svc.UpdateContactConfig(ctx, userID, member.ID, ContactConfig{
		ContactEnabled:         &enabled,
		ResponseTimeHours:      &hours,
		PreferredContactMethod: &method,
	})
	require.NoError(t, err)
	assert.True(t, updated.ContactEnabled)
	assert.Equal(t, 4, updated.ResponseTimeHours)
	assert.Equal(t, models.ContactMethodPhone, updated.PreferredContactMethod)
}

func TestStaffService_ListContactable(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	email, phone := "a@tolk.nl", "+31 6 1234 5678"
	visible := &models.Staff{
		ID: uuid.New(), ProviderID: f.provider.ID, Name: "A", Email: &email, Phone: &phone,
		IsActive: true, IsPublic: true, ContactEnabled: true, PreferredContactMethod: models.ContactMethodEmail,
	}
	hidden := &models.Staff{ID: uuid.New(), ProviderID: f.provider.ID, Name: "B", IsActive: true, IsPublic: false, ContactEnabled: true}
	f.repo.members[visible.ID] = visible
	f.repo.members[hidden.ID] = hidden

	staff, err := f.svc.ListContactable(ctx, f.provider.ID)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "A", staff[0].Name)
	assert.Nil(t, staff[0].Phone)
	assert.NotNil(t, staff[0].Email)

	f.provider.SubscriptionStatus = models.SubscriptionFrozen
	_, err = f.svc.ListContactable(ctx, f.provider.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.ListContactable(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
