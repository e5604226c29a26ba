package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lingora/lingora-backend/internal/models"
)

type NoteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create сохраняет заметку администратора.
func (r *NoteRepository) Create(ctx context.Context, n *models.AdminNote) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO admin_notes (context_type, context_id, admin_user_id, note_text, note_type, is_internal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.ContextType, n.ContextID, n.AdminUserID, n.NoteText, n.NoteType, n.IsInternal,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("note repository: create %w", err)
	}
	return nil
}

// List возвращает заметки по контексту, новые первыми.
func (r *NoteRepository) List(ctx context.Context, contextType string, contextID uuid.UUID) ([]models.AdminNote, error) {
	notes := make([]models.AdminNote, 0)
	if err := r.db.SelectContext(ctx, &notes, `
		SELECT n.id, n.context_type, n.context_id, n.admin_user_id, u.email AS admin_email,
			n.note_text, n.note_type, n.is_internal, n.created_at
		FROM admin_notes n
		LEFT JOIN users u ON u.id = n.admin_user_id
		WHERE n.context_type = $1 AND n.context_id = $2
		ORDER BY n.created_at DESC`, contextType, contextID); err != nil {
		return nil, fmt.Errorf("note repository: list %w", err)
	}
	return notes, nil
}
