package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/repository"
)

// fakeProviderRepo хранит карточки в памяти.
type fakeProviderRepo struct {
	providers map[uuid.UUID]*models.Provider
	languages map[uuid.UUID][]models.LanguageSkill
	images    map[uuid.UUID][]models.GalleryImage
	counts    repository.CompletenessCounts
	updates   []map[string]interface{}
	status    struct {
		reason     *string
		approvedAt *time.Time
	}
}

func newFakeProviderRepo(providers ...*models.Provider) *fakeProviderRepo {
	r := &fakeProviderRepo{
		providers: make(map[uuid.UUID]*models.Provider),
		languages: make(map[uuid.UUID][]models.LanguageSkill),
		images:    make(map[uuid.UUID][]models.GalleryImage),
	}
	for _, p := range providers {
		r.providers[p.ID] = p
	}
	return r
}

func (r *fakeProviderRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	for _, p := range r.providers {
		if p.Slug == slug && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	if p, ok := r.providers[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrProviderNotFound
}

func (r *fakeProviderRepo) GetBySlug(ctx context.Context, slug string) (*models.Provider, error) {
	for _, p := range r.providers {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProviderNotFound
}

func (r *fakeProviderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	for _, p := range r.providers {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProviderNotFound
}

func (r *fakeProviderRepo) ListPublic(ctx context.Context, limit, offset int) ([]models.Provider, int, error) {
	var out []models.Provider
	for _, p := range r.providers {
		if p.IsVisible() {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *fakeProviderRepo) ListAdmin(ctx context.Context, status, subscription string, limit, offset int) ([]models.Provider, int, error) {
	var out []models.Provider
	for _, p := range r.providers {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProviderRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	r.updates = append(r.updates, fields)
	for k, v := range fields {
		switch k {
		case "business_name":
			p.BusinessName = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "city":
			if v == nil {
				p.City = nil
			} else {
				s := v.(string)
				p.City = &s
			}
		case "logo_url":
			s := v.(string)
			p.LogoURL = &s
		}
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProviderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, approvedAt *time.Time) error {
	p, ok := r.providers[id]
	if !ok {
		return repository.ErrProviderNotFound
	}
	p.Status = status
	p.RejectionReason = reason
	if approvedAt != nil {
		p.ApprovedAt = approvedAt
	}
	r.status.reason = reason
	r.status.approvedAt = approvedAt
	return nil
}

func (r *fakeProviderRepo) UpdateSubscription(ctx context.Context, id uuid.UUID, status string) error {
	p, ok := r.providers[id]
	if !ok {
		return repository.ErrProviderNotFound
	}
	p.SubscriptionStatus = status
	return nil
}

func (r *fakeProviderRepo) UpdateCompleteness(ctx context.Context, id uuid.UUID, score int) error {
	r.providers[id].ProfileCompletenessScore = score
	return nil
}

func (r *fakeProviderRepo) GetCompletenessCounts(ctx context.Context, id uuid.UUID) (repository.CompletenessCounts, error) {
	c := r.counts
	c.Languages = len(r.languages[id])
	c.Images = len(r.images[id])
	return c, nil
}

func (r *fakeProviderRepo) ListLanguages(ctx context.Context, providerID uuid.UUID) ([]models.LanguageSkill, error) {
	return r.languages[providerID], nil
}

func (r *fakeProviderRepo) ReplaceLanguages(ctx context.Context, providerID uuid.UUID, langs []models.LanguageSkill) error {
	r.languages[providerID] = langs
	return nil
}

func (r *fakeProviderRepo) AddImage(ctx context.Context, img *models.GalleryImage) error {
	img.ID = uuid.New()
	img.SortOrder = len(r.images[img.ProviderID])
	r.images[img.ProviderID] = append(r.images[img.ProviderID], *img)
	return nil
}

func (r *fakeProviderRepo) ListImages(ctx context.Context, providerID uuid.UUID) ([]models.GalleryImage, error) {
	return r.images[providerID], nil
}

func (r *fakeProviderRepo) CountImages(ctx context.Context, providerID uuid.UUID) (int, error) {
	return len(r.images[providerID]), nil
}

func (r *fakeProviderRepo) DeleteImage(ctx context.Context, providerID, imageID uuid.UUID) (*models.GalleryImage, error) {
	imgs := r.images[providerID]
	for i, img := range imgs {
		if img.ID == imageID {
			r.images[providerID] = append(imgs[:i], imgs[i+1:]...)
			return &img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

type fakeOfferingLister struct{ offerings []models.Offering }

func (f fakeOfferingLister) ListByProvider(ctx context.Context, providerID uuid.UUID, activeOnly bool, limit, offset int) ([]models.Offering, int, error) {
	return f.offerings, len(f.offerings), nil
}

type fakeStaffLister struct{ staff []models.Staff }

func (f fakeStaffLister) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	return f.staff, nil
}

type fakeCatalog map[string]bool

func (f fakeCatalog) ActiveLanguageCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, c := range codes {
		if f[c] {
			out[c] = true
		}
	}
	return out, nil
}

type fakeAdmins []uuid.UUID

func (f fakeAdmins) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) { return f, nil }

type fakeFiles struct {
	saved   []string
	deleted []string
}

func (f *fakeFiles) Save(ctx context.Context, dir, originalName string, r io.Reader) (string, int64, error) {
	data, _ := io.ReadAll(r)
	rel := dir + "/" + originalName
	f.saved = append(f.saved, rel)
	return rel, int64(len(data)), nil
}

func (f *fakeFiles) Delete(ctx context.Context, relativePath string) error {
	f.deleted = append(f.deleted, relativePath)
	return nil
}

type sentEvent struct {
	userID uuid.UUID
	event  string
	data   any
}

// recordingBroadcaster запоминает отправленные WebSocket события.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{userID: userID, event: event, data: data})
	return nil
}

type providerFixture struct {
	svc      *ProviderService
	repo     *fakeProviderRepo
	files    *fakeFiles
	events   *recordingBroadcaster
	provider *models.Provider
}

func newProviderFixture(t *testing.T) providerFixture {
	t.Helper()
	kvk := "12345678"
	p := &models.Provider{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		BusinessName:       "Tolk Amsterdam",
		Slug:               "tolk-amsterdam",
		KVKNumber:          &kvk,
		Status:             models.ProviderStatusPending,
		SubscriptionStatus: models.SubscriptionTrial,
	}
	repo := newFakeProviderRepo(p)
	files := &fakeFiles{}
	events := &recordingBroadcaster{}
	svc := NewProviderService(ProviderDeps{
		Repo:      repo,
		Offerings: fakeOfferingLister{},
		Staff:     fakeStaffLister{},
		Catalog:   fakeCatalog{"nl": true, "en": true, "ar": true},
		Admins:    fakeAdmins{uuid.New()},
		Files:     files,
		Events:    events,
	}, ProviderOptions{GalleryMaxImages: 2, MaxUploadMB: 2})
	return providerFixture{svc: svc, repo: repo, files: files, events: events, provider: p}
}

func patchOf(t *testing.T, body string) Patch {
	t.Helper()
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func strPtr(s string) *string { return &s }

func TestComputeCompleteness(t *testing.T) {
	empty := &models.Provider{BusinessName: "X"}
	assert.Equal(t, 5, ComputeCompleteness(empty, repository.CompletenessCounts{}))

	full := &models.Provider{
		BusinessName: "X",
		Address:      strPtr("Damrak 1"),
		City:         strPtr("Amsterdam"),
		PostalCode:   strPtr("1012 LG"),
		Phone:        strPtr("+31 20 123 4567"),
		BioEN:        strPtr("We translate."),
	}
	assert.Equal(t, 100, ComputeCompleteness(full, repository.CompletenessCounts{Languages: 3, Services: 3, Staff: 2, Images: 3}))
	assert.Equal(t, 30+10+15+10+5, ComputeCompleteness(full, repository.CompletenessCounts{Languages: 1, Services: 1, Staff: 1, Images: 1}))
	assert.Equal(t, 30+20+20+10+5, ComputeCompleteness(full, repository.CompletenessCounts{Languages: 2, Services: 2, Staff: 1, Images: 2}))
}

func TestProviderService_UpdateMy_NoAllowedFields(t *testing.T) {
	f := newProviderFixture(t)
	_, err := f.svc.UpdateMy(context.Background(), f.provider.UserID, patchOf(t, `{"status":"approved","kvk_number":"1"}`))
	assert.ErrorIs(t, err, apperror.ErrNoAllowedFields)
	assert.Empty(t, f.repo.updates)
}

func TestProviderService_UpdateMy_RenameRegeneratesSlug(t *testing.T) {
	f := newProviderFixture(t)
	other := &models.Provider{ID: uuid.New(), UserID: uuid.New(), Slug: "vertaalhuis"}
	f.repo.providers[other.ID] = other

	updated, err := f.svc.UpdateMy(context.Background(), f.provider.UserID,
		patchOf(t, `{"business_name":"Vertaalhuis","city":"Utrecht","unknown":1}`))
	require.NoError(t, err)

	assert.Equal(t, "Vertaalhuis", updated.BusinessName)
	assert.Equal(t, "vertaalhuis-1", updated.Slug)
	assert.Equal(t, "Utrecht", *updated.City)
	assert.Equal(t, 10, updated.ProfileCompletenessScore)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventProviderSaved, f.events.events[0].event)
	assert.Equal(t, f.provider.UserID, f.events.events[0].userID)
	data := f.events.events[0].data.(map[string]interface{})
	assert.Equal(t, []string{"business_name", "city"}, data["fields"])
}

func TestProviderService_UpdateMy_Validation(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	cases := []string{
		`{"business_name":"  "}`,
		`{"website":"ftp://tolk.nl"}`,
		`{"social_links":{"facebook":"javascript:alert(1)"}}`,
		`{"latitude":"95.1"}`,
		`{"latitude":"NaN"}`,
		`{"longitude":"+Inf"}`,
		`{"email":"not-an-email"}`,
		`{"opening_hours":{"mon":{"open":true,"slots":[{"open":"17:00","close":"09:00"}]}}}`,
		`{"opening_hours":{"funday":{"open":false}}}`,
	}
	for _, body := range cases {
		_, err := f.svc.UpdateMy(ctx, f.provider.UserID, patchOf(t, body))
		assert.True(t, apperror.IsValidation(err), body)
	}
	assert.Empty(t, f.repo.updates)
}

func TestProviderService_UpdateMy_ClearsFieldWithNull(t *testing.T) {
	f := newProviderFixture(t)
	f.provider.City = strPtr("Delft")

	_, err := f.svc.UpdateMy(context.Background(), f.provider.UserID, patchOf(t, `{"city":null}`))
	require.NoError(t, err)
	require.Len(t, f.repo.updates, 1)
	v, ok := f.repo.updates[0]["city"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestProviderService_GetPublic(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetPublic(ctx, "tolk-amsterdam")
	assert.True(t, apperror.IsNotFound(err))

	f.provider.Status = models.ProviderStatusApproved
	details, err := f.svc.GetPublic(ctx, "tolk-amsterdam")
	require.NoError(t, err)
	assert.Nil(t, details.KVKNumber)

	f.provider.SubscriptionStatus = models.SubscriptionFrozen
	_, err = f.svc.GetPublic(ctx, "tolk-amsterdam")
	assert.True(t, apperror.IsNotFound(err))
}

func TestProviderService_GetMy_TrialExpired(t *testing.T) {
	f := newProviderFixture(t)
	past := time.Now().Add(-time.Hour)
	f.provider.TrialExpiresAt = &past

	details, err := f.svc.GetMy(context.Background(), f.provider.UserID)
	require.NoError(t, err)
	assert.True(t, details.TrialExpired)
	assert.NotNil(t, details.KVKNumber)
}

func TestProviderService_UpdateStatus(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, f.provider.ID, models.ProviderStatusRejected, " ")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UpdateStatus(ctx, f.provider.ID, "deleted", "")
	assert.True(t, apperror.IsValidation(err))

	p, err := f.svc.UpdateStatus(ctx, f.provider.ID, models.ProviderStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusApproved, p.Status)
	assert.NotNil(t, f.repo.status.approvedAt)
	assert.Nil(t, f.repo.status.reason)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), models.ProviderStatusApproved, "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestProviderService_SubmitForApproval(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitForApproval(ctx, f.provider.UserID)
	assert.True(t, apperror.IsValidation(err))

	f.provider.Address = strPtr("Damrak 1")
	f.provider.City = strPtr("Amsterdam")
	f.repo.counts = repository.CompletenessCounts{Services: 1, Staff: 1}
	f.repo.languages[f.provider.ID] = []models.LanguageSkill{{LanguageCode: "nl"}}

	p, err := f.svc.SubmitForApproval(ctx, f.provider.UserID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.ProfileCompletenessScore)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "provider.submitted", f.events.events[0].event)
}

func TestProviderService_ReplaceLanguages(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	_, err := f.svc.ReplaceLanguages(ctx, f.provider.UserID, []models.LanguageSkill{{LanguageCode: "xx", CEFRLevel: "B1"}})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.ReplaceLanguages(ctx, f.provider.UserID, []models.LanguageSkill{{LanguageCode: "nl", CEFRLevel: "D1"}})
	assert.True(t, apperror.IsValidation(err))

	langs, err := f.svc.ReplaceLanguages(ctx, f.provider.UserID, []models.LanguageSkill{
		{LanguageCode: "NL", CEFRLevel: "native"},
		{LanguageCode: "en"},
		{LanguageCode: "nl", CEFRLevel: "A1"},
	})
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "native", langs[0].CEFRLevel)
	assert.Equal(t, models.DefaultCEFRLevel, langs[1].CEFRLevel)
	assert.Equal(t, 5+15, f.repo.providers[f.provider.ID].ProfileCompletenessScore)
}

var testPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestProviderService_UploadImage(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	res, err := f.svc.UploadImage(ctx, f.provider.UserID, "", "one.png", bytes.NewReader(testPNG))
	require.NoError(t, err)
	assert.Equal(t, UploadFieldGallery, res.Field)
	assert.Equal(t, "/media/providers/"+f.provider.ID.String()+"/one.png", res.URL)
	require.NotNil(t, res.Image)

	_, err = f.svc.UploadImage(ctx, f.provider.UserID, "gallery", "two.png", bytes.NewReader(testPNG))
	require.NoError(t, err)

	_, err = f.svc.UploadImage(ctx, f.provider.UserID, "gallery", "three.png", bytes.NewReader(testPNG))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UploadImage(ctx, f.provider.UserID, "logo", "logo.jpg", bytes.NewReader(testPNG))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UploadImage(ctx, f.provider.UserID, "banner", "logo.png", bytes.NewReader(testPNG))
	assert.True(t, apperror.IsValidation(err))

	logo, err := f.svc.UploadImage(ctx, f.provider.UserID, "logo", "logo.png", bytes.NewReader(testPNG))
	require.NoError(t, err)
	assert.Nil(t, logo.Image)
	_, err = f.svc.UploadImage(ctx, f.provider.UserID, "logo", "logo2.png", bytes.NewReader(testPNG))
	require.NoError(t, err)
	assert.Contains(t, f.files.deleted, "providers/"+f.provider.ID.String()+"/logo.png")
}

func TestProviderService_DeleteGalleryImage(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	res, err := f.svc.UploadImage(ctx, f.provider.UserID, "gallery", "one.png", bytes.NewReader(testPNG))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteGalleryImage(ctx, f.provider.UserID, res.Image.ID))
	assert.Equal(t, []string{res.Image.Path}, f.files.deleted)

	err = f.svc.DeleteGalleryImage(ctx, f.provider.UserID, res.Image.ID)
	assert.True(t, apperror.IsNotFound(err))
}
