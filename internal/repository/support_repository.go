package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository/common"
)

var (
	// ErrTicketNotFound возвращается, когда обращение не найдено.
	ErrTicketNotFound = errors.New("support ticket not found")
	// ErrAttachmentNotFound возвращается, когда вложение не найдено.
	ErrAttachmentNotFound = errors.New("ticket attachment not found")
)

var ticketColumns = []interface{}{
	"id", "ticket_number", "subject", "message", "status", "priority", "category", "created_by",
	"provider_id", "assigned_to", "first_response_at", "resolved_at", "closed_at",
	"actual_resolution_minutes", "created_at", "updated_at",
}

// SupportRepository работает с обращениями в поддержку и их веткой.
type SupportRepository struct {
	db *sqlx.DB
}

// NewSupportRepository создаёт экземпляр репозитория.
func NewSupportRepository(db *sqlx.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// FormatTicketNumber формирует номер вида TKT-YYYYMMDD-NNNN.
func FormatTicketNumber(day time.Time, seq int) string {
	return fmt.Sprintf("TKT-%s-%04d", day.Format("20060102"), seq)
}

// Create присваивает номер по дневному счётчику, сохраняет обращение и запись журнала.
func (r *SupportRepository) Create(ctx context.Context, t *models.Ticket, now time.Time) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		day := now.UTC().Truncate(24 * time.Hour)
		var seq int
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO support_ticket_counters (day, last_value) VALUES ($1, 1)
			ON CONFLICT (day) DO UPDATE SET last_value = support_ticket_counters.last_value + 1
			RETURNING last_value`, day).Scan(&seq); err != nil {
			return fmt.Errorf("support repository: next ticket number %w", err)
		}
		t.TicketNumber = FormatTicketNumber(day, seq)

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO support_tickets (ticket_number, subject, message, status, priority, category, created_by, provider_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`,
			t.TicketNumber, t.Subject, t.Message, t.Status, t.Priority, t.Category, t.CreatedBy, t.ProviderID,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("support repository: create %w", err)
		}

		return insertActivity(ctx, tx, &models.TicketActivity{TicketID: t.ID, ActorID: &t.CreatedBy, Action: "created"})
	})
}

func insertActivity(ctx context.Context, q sqlx.QueryerContext, a *models.TicketActivity) error {
	if err := q.QueryRowxContext(ctx, `
		INSERT INTO support_ticket_activity (ticket_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, a.TicketID, a.ActorID, a.Action, a.Details,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("support repository: add activity %w", err)
	}
	return nil
}

// GetByID возвращает обращение.
func (r *SupportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query, args, err := psql.From("support_tickets").Prepared(true).
		Select(ticketColumns...).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("support repository: build get %w", err)
	}
	t, err := common.GetOne[models.Ticket](ctx, r.db, ErrTicketNotFound, query, args...)
	if err != nil && !errors.Is(err, ErrTicketNotFound) {
		return nil, fmt.Errorf("support repository: get by id %w", err)
	}
	return t, err
}

func applyTicketFilter(ds *goqu.SelectDataset, f models.TicketFilter) *goqu.SelectDataset {
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}
	if f.Priority != "" {
		ds = ds.Where(goqu.C("priority").Eq(f.Priority))
	}
	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.AssignedTo != nil {
		ds = ds.Where(goqu.C("assigned_to").Eq(*f.AssignedTo))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("subject").ILike(pattern),
			goqu.C("ticket_number").ILike(pattern),
			goqu.C("message").ILike(pattern),
		))
	}
	if f.VisibleTo != nil {
		visible := goqu.Or(goqu.C("created_by").Eq(*f.VisibleTo))
		if f.ProviderID != nil {
			visible = goqu.Or(goqu.C("created_by").Eq(*f.VisibleTo), goqu.C("provider_id").Eq(*f.ProviderID))
		}
		ds = ds.Where(visible)
	}
	return ds
}

// List возвращает обращения по фильтру, новые первыми, и общее количество.
func (r *SupportRepository) List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int, error) {
	ds := applyTicketFilter(psql.From("support_tickets").Prepared(true), f)

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("support repository: build count %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("support repository: count %w", err)
	}

	query, args, err := ds.Select(ticketColumns...).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(f.Limit)).Offset(uint(f.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("support repository: build list %w", err)
	}
	tickets := make([]models.Ticket, 0)
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("support repository: list %w", err)
	}
	return tickets, total, nil
}

// AddResponse сохраняет ответ; markFirstResponse проставляет first_response_at, если он пуст.
func (r *SupportRepository) AddResponse(ctx context.Context, resp *models.TicketResponse, markFirstResponse bool) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO support_ticket_responses (ticket_id, responder_id, responder_type, message, is_internal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			resp.TicketID, resp.ResponderID, resp.ResponderType, resp.Message, resp.IsInternal,
		).Scan(&resp.ID, &resp.CreatedAt); err != nil {
			return fmt.Errorf("support repository: add response %w", err)
		}

		query := `UPDATE support_tickets SET updated_at = NOW() WHERE id = $1`
		if markFirstResponse {
			query = `UPDATE support_tickets SET updated_at = NOW(), first_response_at = COALESCE(first_response_at, NOW()) WHERE id = $1`
		}
		if _, err := tx.ExecContext(ctx, query, resp.TicketID); err != nil {
			return fmt.Errorf("support repository: touch ticket %w", err)
		}

		action := "response_added"
		if resp.IsInternal {
			action = "internal_note_added"
		}
		return insertActivity(ctx, tx, &models.TicketActivity{TicketID: resp.TicketID, ActorID: &resp.ResponderID, Action: action})
	})
}

// ListResponses возвращает ветку ответов; внутренние включаются по флагу.
func (r *SupportRepository) ListResponses(ctx context.Context, ticketID uuid.UUID, includeInternal bool) ([]models.TicketResponse, error) {
	query := `
		SELECT r.id, r.ticket_id, r.responder_id, r.responder_type, u.email AS responder_email,
			r.message, r.is_internal, r.created_at
		FROM support_ticket_responses r
		LEFT JOIN users u ON u.id = r.responder_id
		WHERE r.ticket_id = $1`
	if !includeInternal {
		query += ` AND r.is_internal = FALSE`
	}
	query += ` ORDER BY r.created_at`

	responses := make([]models.TicketResponse, 0)
	if err := r.db.SelectContext(ctx, &responses, query, ticketID); err != nil {
		return nil, fmt.Errorf("support repository: list responses %w", err)
	}
	return responses, nil
}

// StatusChange описывает смену статуса обращения.
type StatusChange struct {
	Status            string
	ResolvedAt        *time.Time
	ClosedAt          *time.Time
	ResolutionMinutes *int
	Activity          models.TicketActivity
}

// UpdateStatus меняет статус и пишет запись в журнал.
func (r *SupportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE support_tickets
			SET status = $2,
				resolved_at = COALESCE($3, resolved_at),
				closed_at = COALESCE($4, closed_at),
				actual_resolution_minutes = COALESCE($5, actual_resolution_minutes),
				updated_at = NOW()
			WHERE id = $1`, id, change.Status, change.ResolvedAt, change.ClosedAt, change.ResolutionMinutes)
		if err != nil {
			return fmt.Errorf("support repository: update status %w", err)
		}
		if err := common.RequireAffected(result, ErrTicketNotFound); err != nil {
			return err
		}
		change.Activity.TicketID = id
		return insertActivity(ctx, tx, &change.Activity)
	})
}

// UpdateColumn меняет одну колонку обращения (assigned_to, priority) и пишет журнал.
func (r *SupportRepository) UpdateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}, activity models.TicketActivity) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args, err := psql.Update("support_tickets").Prepared(true).
			Set(goqu.Record{column: value, "updated_at": goqu.L("NOW()")}).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("support repository: build update %s %w", column, err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("support repository: update %s %w", column, err)
		}
		if err := common.RequireAffected(result, ErrTicketNotFound); err != nil {
			return err
		}
		activity.TicketID = id
		return insertActivity(ctx, tx, &activity)
	})
}

// ListActivity возвращает журнал изменений обращения.
func (r *SupportRepository) ListActivity(ctx context.Context, ticketID uuid.UUID) ([]models.TicketActivity, error) {
	activity := make([]models.TicketActivity, 0)
	if err := r.db.SelectContext(ctx, &activity, `
		SELECT id, ticket_id, actor_id, action, details, created_at
		FROM support_ticket_activity WHERE ticket_id = $1 ORDER BY created_at`, ticketID); err != nil {
		return nil, fmt.Errorf("support repository: list activity %w", err)
	}
	return activity, nil
}

// AddAttachment сохраняет метаданные вложения.
func (r *SupportRepository) AddAttachment(ctx context.Context, a *models.TicketAttachment) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO support_ticket_attachments (ticket_id, uploaded_by, file_name, path, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.TicketID, a.UploadedBy, a.FileName, a.Path, a.ContentType, a.SizeBytes,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("support repository: add attachment %w", err)
	}
	return nil
}

// ListAttachments возвращает вложения обращения.
func (r *SupportRepository) ListAttachments(ctx context.Context, ticketID uuid.UUID) ([]models.TicketAttachment, error) {
	attachments := make([]models.TicketAttachment, 0)
	if err := r.db.SelectContext(ctx, &attachments, `
		SELECT id, ticket_id, uploaded_by, file_name, path, content_type, size_bytes, created_at
		FROM support_ticket_attachments WHERE ticket_id = $1 ORDER BY created_at`, ticketID); err != nil {
		return nil, fmt.Errorf("support repository: list attachments %w", err)
	}
	return attachments, nil
}

// GetAttachment возвращает вложение по идентификатору.
func (r *SupportRepository) GetAttachment(ctx context.Context, id uuid.UUID) (*models.TicketAttachment, error) {
	a, err := common.GetOne[models.TicketAttachment](ctx, r.db, ErrAttachmentNotFound, `
		SELECT id, ticket_id, uploaded_by, file_name, path, content_type, size_bytes, created_at
		FROM support_ticket_attachments WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrAttachmentNotFound) {
		return nil, fmt.Errorf("support repository: get attachment %w", err)
	}
	return a, err
}

type groupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

func (r *SupportRepository) countBy(ctx context.Context, column string, ds *goqu.SelectDataset) (map[string]int, error) {
	query, args, err := ds.Select(goqu.C(column).As("key"), goqu.COUNT(goqu.Star()).As("count")).
		GroupBy(goqu.C(column)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("support repository: build count by %s %w", column, err)
	}
	var rows []groupCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("support repository: count by %s %w", column, err)
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

func (r *SupportRepository) count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("support repository: build count %w", err)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("support repository: count %w", err)
	}
	return n, nil
}

var openStatuses = []string{
	models.TicketStatusNew, models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusPending,
}

// Dashboard собирает счётчики для панели; scope ограничивает видимость как в List.
func (r *SupportRepository) Dashboard(ctx context.Context, userID uuid.UUID, scope models.TicketFilter) (*models.TicketDashboard, error) {
	base := applyTicketFilter(psql.From("support_tickets").Prepared(true), scope)

	byStatus, err := r.countBy(ctx, "status", base)
	if err != nil {
		return nil, err
	}
	byPriority, err := r.countBy(ctx, "priority", base.Where(goqu.C("status").In(openStatuses)))
	if err != nil {
		return nil, err
	}
	myOpen, err := r.count(ctx, base.Where(goqu.C("assigned_to").Eq(userID), goqu.C("status").In(openStatuses)))
	if err != nil {
		return nil, err
	}
	unassigned, err := r.count(ctx, base.Where(goqu.C("assigned_to").IsNull(), goqu.C("status").In(openStatuses)))
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &models.TicketDashboard{
		ByStatus:   byStatus,
		ByPriority: byPriority,
		MyOpen:     myOpen,
		Unassigned: unassigned,
		Total:      total,
	}, nil
}

// Statistics считает показатели обращений, созданных в интервале [from, to).
func (r *SupportRepository) Statistics(ctx context.Context, from, to time.Time) (*models.TicketStatistics, error) {
	base := psql.From("support_tickets").Prepared(true).
		Where(goqu.C("created_at").Gte(from), goqu.C("created_at").Lt(to))

	stats := &models.TicketStatistics{From: from, To: to}
	var err error
	if stats.ByStatus, err = r.countBy(ctx, "status", base); err != nil {
		return nil, err
	}
	if stats.ByPriority, err = r.countBy(ctx, "priority", base); err != nil {
		return nil, err
	}
	if stats.ByCategory, err = r.countBy(ctx, "category", base); err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}

	query, args, err := base.Select(
		goqu.L("COALESCE(AVG(actual_resolution_minutes), 0)").As("avg_resolution"),
		goqu.L("COALESCE(AVG(EXTRACT(EPOCH FROM (first_response_at - created_at)) / 60), 0)").As("avg_first_response"),
	).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("support repository: build averages %w", err)
	}
	var avg struct {
		Resolution    float64 `db:"avg_resolution"`
		FirstResponse float64 `db:"avg_first_response"`
	}
	if err := r.db.GetContext(ctx, &avg, query, args...); err != nil {
		return nil, fmt.Errorf("support repository: averages %w", err)
	}
	stats.AvgResolutionMinutes = avg.Resolution
	stats.AvgFirstResponseMinutes = avg.FirstResponse
	return stats, nil
}
