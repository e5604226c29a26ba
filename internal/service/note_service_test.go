package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
)

type fakeNoteRepo struct {
	notes []models.AdminNote
}

func (r *fakeNoteRepo) Create(ctx context.Context, n *models.AdminNote) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	r.notes = append([]models.AdminNote{*n}, r.notes...)
	return nil
}

func (r *fakeNoteRepo) List(ctx context.Context, contextType string, contextID uuid.UUID) ([]models.AdminNote, error) {
	out := make([]models.AdminNote, 0)
	for _, n := range r.notes {
		if n.ContextType == contextType && n.ContextID == contextID {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestNoteService(t *testing.T) {
	p := &models.Provider{ID: uuid.New(), UserID: uuid.New()}
	tickets := newFakeSupportRepo()
	ticket := &models.Ticket{Subject: "x", Message: "y", CreatedBy: uuid.New()}
	require.NoError(t, tickets.Create(context.Background(), ticket, time.Now()))

	repo := &fakeNoteRepo{}
	svc := NewNoteService(repo, newFakeProviderRepo(p), tickets)
	ctx := context.Background()
	admin := uuid.New()

	note, err := svc.Create(ctx, admin, models.NoteContextProvider, p.ID, "  KvK gecontroleerd ", "")
	require.NoError(t, err)
	assert.Equal(t, "general", note.NoteType)
	assert.Equal(t, "KvK gecontroleerd", note.NoteText)
	assert.True(t, note.IsInternal)

	_, err = svc.Create(ctx, admin, models.NoteContextProvider, p.ID, "Bel terug", "follow_up")
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, models.NoteContextTicket, ticket.ID, "Dubbel", "warning")
	require.NoError(t, err)

	notes, err := svc.List(ctx, models.NoteContextProvider, p.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Bel terug", notes[0].NoteText)

	_, err = svc.Create(ctx, admin, models.NoteContextProvider, p.ID, "x", "praise")
	assert.True(t, apperror.IsValidation(err))
	_, err = svc.Create(ctx, admin, models.NoteContextProvider, p.ID, " ", "general")
	assert.True(t, apperror.IsValidation(err))
	_, err = svc.Create(ctx, admin, models.NoteContextProvider, uuid.New(), "x", "general")
	assert.True(t, apperror.IsNotFound(err))
	_, err = svc.List(ctx, models.NoteContextTicket, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
	_, err = svc.List(ctx, "order", uuid.New())
	assert.True(t, apperror.IsValidation(err))
}
