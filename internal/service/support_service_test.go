package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/queue"
	"github.com/lingora/lingora-backend/internal/repository"
)

type fakeSupportRepo struct {
	tickets     map[uuid.UUID]*models.Ticket
	responses   []models.TicketResponse
	activity    []models.TicketActivity
	attachments []models.TicketAttachment
	lastFilter  models.TicketFilter
	statsRange  [2]time.Time
	seq         int
}

func newFakeSupportRepo() *fakeSupportRepo {
	return &fakeSupportRepo{tickets: make(map[uuid.UUID]*models.Ticket)}
}

func (r *fakeSupportRepo) Create(ctx context.Context, t *models.Ticket, now time.Time) error {
	r.seq++
	t.ID = uuid.New()
	t.TicketNumber = fmt.Sprintf("TKT-%d-%05d", now.Year(), r.seq)
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	r.tickets[t.ID] = &cp
	r.activity = append(r.activity, models.TicketActivity{TicketID: t.ID, Action: "created"})
	return nil
}

func (r *fakeSupportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	if t, ok := r.tickets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrTicketNotFound
}

func (r *fakeSupportRepo) List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int, error) {
	r.lastFilter = f
	out := make([]models.Ticket, 0)
	for _, t := range r.tickets {
		if f.VisibleTo != nil && t.CreatedBy != *f.VisibleTo &&
			(f.ProviderID == nil || t.ProviderID == nil || *t.ProviderID != *f.ProviderID) {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *fakeSupportRepo) AddResponse(ctx context.Context, resp *models.TicketResponse, markFirstResponse bool) error {
	resp.ID = uuid.New()
	r.responses = append(r.responses, *resp)
	if markFirstResponse {
		if t := r.tickets[resp.TicketID]; t != nil && t.FirstResponseAt == nil {
			now := time.Now()
			t.FirstResponseAt = &now
		}
	}
	return nil
}

func (r *fakeSupportRepo) ListResponses(ctx context.Context, ticketID uuid.UUID, includeInternal bool) ([]models.TicketResponse, error) {
	out := make([]models.TicketResponse, 0)
	for _, resp := range r.responses {
		if resp.TicketID == ticketID && (includeInternal || !resp.IsInternal) {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *fakeSupportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, change repository.StatusChange) error {
	t, ok := r.tickets[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.Status = change.Status
	t.ResolvedAt = change.ResolvedAt
	t.ClosedAt = change.ClosedAt
	t.ActualResolutionMinutes = change.ResolutionMinutes
	change.Activity.TicketID = id
	r.activity = append(r.activity, change.Activity)
	return nil
}

func (r *fakeSupportRepo) UpdateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}, activity models.TicketActivity) error {
	t, ok := r.tickets[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	switch column {
	case "assigned_to":
		if value == nil {
			t.AssignedTo = nil
		} else {
			v := value.(uuid.UUID)
			t.AssignedTo = &v
		}
	case "priority":
		t.Priority = value.(string)
	}
	activity.TicketID = id
	r.activity = append(r.activity, activity)
	return nil
}

func (r *fakeSupportRepo) ListActivity(ctx context.Context, ticketID uuid.UUID) ([]models.TicketActivity, error) {
	out := make([]models.TicketActivity, 0)
	for _, a := range r.activity {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeSupportRepo) AddAttachment(ctx context.Context, a *models.TicketAttachment) error {
	a.ID = uuid.New()
	r.attachments = append(r.attachments, *a)
	return nil
}

func (r *fakeSupportRepo) ListAttachments(ctx context.Context, ticketID uuid.UUID) ([]models.TicketAttachment, error) {
	out := make([]models.TicketAttachment, 0)
	for _, a := range r.attachments {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeSupportRepo) GetAttachment(ctx context.Context, id uuid.UUID) (*models.TicketAttachment, error) {
	for _, a := range r.attachments {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, repository.ErrAttachmentNotFound
}

func (r *fakeSupportRepo) Dashboard(ctx context.Context, userID uuid.UUID, scope models.TicketFilter) (*models.TicketDashboard, error) {
	r.lastFilter = scope
	return &models.TicketDashboard{}, nil
}

func (r *fakeSupportRepo) Statistics(ctx context.Context, from, to time.Time) (*models.TicketStatistics, error) {
	r.statsRange = [2]time.Time{from, to}
	return &models.TicketStatistics{}, nil
}

type fakeAttachmentStore struct {
	fakeFiles
}

func (f *fakeAttachmentStore) Path(relativePath string) (string, error) {
	return "/var/uploads/" + relativePath, nil
}

type supportFixture struct {
	svc      *SupportService
	repo     *fakeSupportRepo
	pub      *recordingPublisher
	events   *recordingBroadcaster
	files    *fakeAttachmentStore
	admin    Actor
	user     Actor
	owner    Actor
	provider *models.Provider
}

func newSupportFixture() supportFixture {
	admin := &models.User{ID: uuid.New(), Email: "admin@lingora.nl", Role: models.RoleAdmin}
	user := &models.User{ID: uuid.New(), Email: "client@example.com", Role: models.RoleProvider}
	owner := &models.User{ID: uuid.New(), Email: "owner@tolk.nl", Role: models.RoleProvider}
	p := &models.Provider{ID: uuid.New(), UserID: owner.ID, BusinessName: "Tolk Amsterdam"}

	repo := newFakeSupportRepo()
	pub := &recordingPublisher{}
	events := &recordingBroadcaster{}
	files := &fakeAttachmentStore{}
	svc := NewSupportService(SupportDeps{
		Repo:      repo,
		Providers: newFakeProviderRepo(p),
		Users:     fakeUsers{admin.ID: admin, user.ID: user, owner.ID: owner},
		Admins:    fakeAdmins{admin.ID},
		Files:     files,
		Publisher: pub,
		Events:    events,
	}, SupportOptions{AdminEmail: "support@lingora.nl", MaxUploadMB: 2})

	return supportFixture{
		svc:      svc,
		repo:     repo,
		pub:      pub,
		events:   events,
		files:    files,
		admin:    Actor{UserID: admin.ID, Role: models.RoleAdmin},
		user:     Actor{UserID: user.ID, Role: models.RoleProvider},
		owner:    Actor{UserID: owner.ID, Role: models.RoleProvider},
		provider: p,
	}
}

func (f supportFixture) ticket(t *testing.T, actor Actor) *models.Ticket {
	t.Helper()
	ticket, err := f.svc.Create(context.Background(), actor, TicketInput{Subject: "Login", Message: "Ik kan niet inloggen"})
	require.NoError(t, err)
	return ticket
}

func TestSupportService_Create(t *testing.T) {
	f := newSupportFixture()

	ticket := f.ticket(t, f.owner)
	assert.Equal(t, models.TicketStatusNew, ticket.Status)
	assert.Equal(t, models.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, models.DefaultTicketCategory, ticket.Category)
	require.NotNil(t, ticket.ProviderID)
	assert.Equal(t, f.provider.ID, *ticket.ProviderID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, f.admin.UserID, f.events.events[0].userID)
	assert.Equal(t, EventTicketCreated, f.events.events[0].event)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, queue.EventTicketCreated, f.pub.events[0].Type)
	assert.Equal(t, []string{"support@lingora.nl"}, f.pub.events[0].To)
	assert.Equal(t, ticket.TicketNumber, f.pub.events[0].Data["ticket_number"])
}

func TestSupportService_Create_Validation(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()

	cases := map[string]TicketInput{
		"empty subject":    {Subject: " ", Message: "x"},
		"empty message":    {Subject: "x"},
		"bad priority":     {Subject: "x", Message: "y", Priority: "asap"},
		"unknown category": {Subject: "x", Message: "y", Category: "complaint"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.user, in)
			assert.True(t, apperror.IsValidation(err), err)
		})
	}
}

func TestSupportService_Visibility(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	ticket := f.ticket(t, f.owner)

	_, err := f.svc.Get(ctx, f.user, ticket.ID)
	assert.True(t, apperror.IsNotFound(err))

	details, err := f.svc.Get(ctx, f.owner, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, details.ID)

	_, page, err := f.svc.List(ctx, f.user, TicketListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	require.NotNil(t, f.repo.lastFilter.VisibleTo)
	assert.Equal(t, f.user.UserID, *f.repo.lastFilter.VisibleTo)

	_, page, err = f.svc.List(ctx, f.admin, TicketListQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Nil(t, f.repo.lastFilter.VisibleTo)
	assert.Equal(t, maxTicketsLimit, f.repo.lastFilter.Limit)

	_, _, err = f.svc.List(ctx, f.admin, TicketListQuery{Status: "archived"})
	assert.True(t, apperror.IsValidation(err))
}

func TestSupportService_Respond(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	ticket := f.ticket(t, f.user)
	f.pub.events = nil

	_, err := f.svc.Respond(ctx, f.user, ticket.ID, "intern", true)
	assert.True(t, apperror.IsForbidden(err))

	resp, err := f.svc.Respond(ctx, f.admin, ticket.ID, "We kijken ernaar", false)
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.ResponderType)
	assert.NotNil(t, f.repo.tickets[ticket.ID].FirstResponseAt)

	_, err = f.svc.Respond(ctx, f.admin, ticket.ID, "klant belt vaak", true)
	require.NoError(t, err)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, queue.EventTicketResponse, f.pub.events[0].Type)
	assert.Equal(t, []string{"client@example.com"}, f.pub.events[0].To)

	userView, err := f.svc.Get(ctx, f.user, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, userView.Responses, 1)

	adminView, err := f.svc.Get(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, adminView.Responses, 2)
}

func TestSupportService_UpdateStatus(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	ticket := f.ticket(t, f.user)
	f.pub.events = nil

	_, err := f.svc.UpdateStatus(ctx, f.user, ticket.ID, models.TicketStatusResolved, "")
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.UpdateStatus(ctx, f.admin, ticket.ID, "archived", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UpdateStatus(ctx, f.admin, ticket.ID, models.TicketStatusNew, "")
	assert.True(t, apperror.IsValidation(err))

	updated, err := f.svc.UpdateStatus(ctx, f.admin, ticket.ID, models.TicketStatusResolved, "opgelost")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, updated.Status)
	assert.NotNil(t, updated.ResolvedAt)

	last := f.repo.activity[len(f.repo.activity)-1]
	require.NotNil(t, last.Details)
	assert.Equal(t, "Status changed from 'new' to 'resolved': opgelost", *last.Details)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "resolved", f.pub.events[0].Data["new_status"])

	closed, err := f.svc.UpdateStatus(ctx, f.user, ticket.ID, models.TicketStatusClosed, "")
	require.NoError(t, err)
	assert.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ActualResolutionMinutes)
}

func TestSupportService_AssignAndBulk(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	first := f.ticket(t, f.user)
	second := f.ticket(t, f.owner)

	_, err := f.svc.Assign(ctx, f.user, first.ID, f.admin.UserID.String())
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Assign(ctx, f.admin, first.ID, f.user.UserID.String())
	assert.True(t, apperror.IsValidation(err))

	assigned, err := f.svc.Assign(ctx, f.admin, first.ID, f.admin.UserID.String())
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)

	unassigned, err := f.svc.Assign(ctx, f.admin, first.ID, "")
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedTo)

	res, err := f.svc.Bulk(ctx, f.admin, BulkInput{
		TicketIDs: []string{first.ID.String(), second.ID.String(), uuid.NewString(), "bad"},
		Operation: BulkPriorityUpdate,
		Value:     models.TicketPriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, models.TicketPriorityUrgent, f.repo.tickets[second.ID].Priority)
	assert.False(t, res.Results[2].Success)

	_, err = f.svc.Bulk(ctx, f.admin, BulkInput{TicketIDs: []string{first.ID.String()}, Operation: "delete"})
	assert.True(t, apperror.IsValidation(err))
}

func TestSupportService_Statistics(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	_, err := f.svc.Statistics(ctx, f.user, nil, nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Statistics(ctx, f.admin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), f.repo.statsRange[0])
	assert.Equal(t, now, f.repo.statsRange[1])

	_, err = f.svc.Statistics(ctx, f.admin, &now, &now)
	assert.True(t, apperror.IsValidation(err))
}

func TestSupportService_Attachments(t *testing.T) {
	f := newSupportFixture()
	ctx := context.Background()
	ticket := f.ticket(t, f.owner)

	a, err := f.svc.AddAttachment(ctx, f.owner, ticket.ID, "screen.png", bytes.NewReader(testPNG))
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, []string{"support/" + ticket.ID.String() + "/screen.png"}, f.files.saved)

	_, err = f.svc.AddAttachment(ctx, f.owner, ticket.ID, "screen.exe", bytes.NewReader(testPNG))
	assert.True(t, apperror.IsValidation(err))

	_, path, err := f.svc.Attachment(ctx, f.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/var/uploads/support/"+ticket.ID.String()+"/screen.png", path)

	_, _, err = f.svc.Attachment(ctx, f.user, a.ID)
	assert.ErrorIs(t, err, apperror.ErrAttachmentNotFound)
}
