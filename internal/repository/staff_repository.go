package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository/common"
)

// ErrStaffNotFound возвращается, когда сотрудник не найден.
var ErrStaffNotFound = errors.New("staff member not found")

const staffColumns = `id, provider_id, name, role, bio_nl, bio_en, email, phone, photo_url,
	is_contact_person, contact_enabled, preferred_contact_method, response_time_hours,
	availability_note, is_active, is_public, sort_order, created_at, updated_at`

// StaffRepository работает с таблицами staff и staff_languages.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository создаёт экземпляр репозитория.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create сохраняет сотрудника вместе с языками.
func (r *StaffRepository) Create(ctx context.Context, s *models.Staff) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO staff (provider_id, name, role, bio_nl, bio_en, email, phone, photo_url,
				is_active, is_public, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, is_contact_person, contact_enabled, preferred_contact_method,
				response_time_hours, created_at, updated_at`,
			s.ProviderID, s.Name, s.Role, s.BioNL, s.BioEN, s.Email, s.Phone, s.PhotoURL,
			s.IsActive, s.IsPublic, s.SortOrder,
		).Scan(&s.ID, &s.IsContactPerson, &s.ContactEnabled, &s.PreferredContactMethod,
			&s.ResponseTimeHours, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return fmt.Errorf("staff repository: create %w", err)
		}
		return replaceStaffLanguages(ctx, tx, s.ID, s.Languages)
	})
}

func replaceStaffLanguages(ctx context.Context, tx *sqlx.Tx, staffID uuid.UUID, langs []models.LanguageSkill) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM staff_languages WHERE staff_id = $1`, staffID); err != nil {
		return fmt.Errorf("staff repository: clear languages %w", err)
	}
	inserter := common.NewBatchInserter(tx,
		`INSERT INTO staff_languages (staff_id, language_code, cefr_level)`, 3, 50)
	for _, l := range langs {
		if err := inserter.Add(ctx, staffID, l.LanguageCode, l.CEFRLevel); err != nil {
			return fmt.Errorf("staff repository: add language %w", err)
		}
	}
	if err := inserter.Flush(ctx); err != nil {
		return fmt.Errorf("staff repository: insert languages %w", err)
	}
	return nil
}

// GetByID возвращает сотрудника с языками.
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	s, err := common.GetOne[models.Staff](ctx, r.db, ErrStaffNotFound,
		`SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("staff repository: get by id %w", err)
	}
	langs, err := r.languagesFor(ctx, []uuid.UUID{s.ID})
	if err != nil {
		return nil, err
	}
	s.Languages = nonNilSkills(langs[s.ID])
	return s, nil
}

// ListByProvider возвращает всех сотрудников поставщика.
func (r *StaffRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	return r.list(ctx, "list", `SELECT `+staffColumns+` FROM staff WHERE provider_id = $1
		ORDER BY sort_order, created_at`, providerID)
}

// ListContactable возвращает сотрудников, доступных для связи через форму.
func (r *StaffRepository) ListContactable(ctx context.Context, providerID uuid.UUID) ([]models.Staff, error) {
	return r.list(ctx, "list contactable", `SELECT `+staffColumns+` FROM staff
		WHERE provider_id = $1 AND is_active = TRUE AND is_public = TRUE AND contact_enabled = TRUE
		ORDER BY is_contact_person DESC, sort_order, name`, providerID)
}

func (r *StaffRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Staff, error) {
	staff := make([]models.Staff, 0)
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("staff repository: %s %w", op, err)
	}
	if len(staff) == 0 {
		return staff, nil
	}

	ids := make([]uuid.UUID, len(staff))
	for i := range staff {
		ids[i] = staff[i].ID
	}
	langs, err := r.languagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range staff {
		staff[i].Languages = nonNilSkills(langs[staff[i].ID])
	}
	return staff, nil
}

type staffLanguageRow struct {
	StaffID uuid.UUID `db:"staff_id"`
	models.LanguageSkill
}

func (r *StaffRepository) languagesFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.LanguageSkill, error) {
	var rows []staffLanguageRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT sl.staff_id, sl.language_code, sl.cefr_level, l.name_en, l.name_native
		FROM staff_languages sl
		JOIN languages l ON l.code = sl.language_code
		WHERE sl.staff_id = ANY($1)
		ORDER BY l.sort_order, l.code`, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("staff repository: languages %w", err)
	}
	result := make(map[uuid.UUID][]models.LanguageSkill, len(ids))
	for _, row := range rows {
		result[row.StaffID] = append(result[row.StaffID], row.LanguageSkill)
	}
	return result, nil
}

// Update обновляет переданные колонки и, если langs не nil, заменяет языки.
func (r *StaffRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, langs []models.LanguageSkill) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		record := goqu.Record{"updated_at": goqu.L("NOW()")}
		for column, value := range fields {
			record[column] = value
		}
		query, args, err := psql.Update("staff").Prepared(true).
			Set(record).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("staff repository: build update %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("staff repository: update %w", err)
		}
		if err := common.RequireAffected(result, ErrStaffNotFound); err != nil {
			return err
		}
		if langs != nil {
			return replaceStaffLanguages(ctx, tx, id, langs)
		}
		return nil
	})
}

// Delete удаляет сотрудника и его языки.
func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM staff_languages WHERE staff_id = $1`, id); err != nil {
			return fmt.Errorf("staff repository: delete languages %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("staff repository: delete %w", err)
		}
		return common.RequireAffected(result, ErrStaffNotFound)
	})
}

func nonNilSkills(s []models.LanguageSkill) []models.LanguageSkill {
	if s == nil {
		return []models.LanguageSkill{}
	}
	return s
}
