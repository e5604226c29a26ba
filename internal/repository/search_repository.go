package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/lingora/lingora-backend/internal/models"
)

// SearchRepository строит динамические запросы поиска поставщиков.
type SearchRepository struct {
	db *sqlx.DB
}

// NewSearchRepository создаёт экземпляр репозитория.
func NewSearchRepository(db *sqlx.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

var searchColumns = []interface{}{
	"p.id", "p.business_name", "p.slug", "p.city", "p.address", "p.latitude", "p.longitude",
	"p.bio_nl", "p.bio_en", "p.logo_url", "p.profile_completeness_score",
}

// buildSearch собирает запрос по фильтрам без сортировки и пагинации.
func buildSearch(f models.SearchFilter) *goqu.SelectDataset {
	ds := psql.From(goqu.T("providers").As("p")).Prepared(true).
		Where(
			goqu.I("p.status").Eq(models.ProviderStatusApproved),
			goqu.I("p.subscription_status").Neq(models.SubscriptionFrozen),
		)

	if len(f.Languages) > 0 {
		// провайдер должен владеть всеми запрошенными языками
		ds = ds.Where(goqu.I("p.id").In(
			psql.From("provider_languages").
				Select("provider_id").
				Where(goqu.C("language_code").In(f.Languages)).
				GroupBy("provider_id").
				Having(goqu.COUNT(goqu.DISTINCT("language_code")).Eq(len(f.Languages))),
		))
	}

	if len(f.Categories) > 0 {
		ds = ds.Where(goqu.I("p.id").In(
			psql.From("services").
				Select("provider_id").
				Where(goqu.C("category_id").In(uuidStrings(f.Categories)), goqu.C("is_active").IsTrue()),
		))
	}

	if f.Mode != "" {
		modes := []string{f.Mode}
		if f.Mode != models.ServiceModeBoth {
			modes = append(modes, models.ServiceModeBoth)
		}
		ds = ds.Where(goqu.I("p.id").In(
			psql.From("services").
				Select("provider_id").
				Where(goqu.C("service_mode").In(modes), goqu.C("is_active").IsTrue()),
		))
	}

	if f.Keyword != "" {
		pattern := "%" + f.Keyword + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("p.business_name").ILike(pattern),
			goqu.I("p.bio_nl").ILike(pattern),
			goqu.I("p.bio_en").ILike(pattern),
		))
	}

	if f.City != "" {
		ds = ds.Where(goqu.I("p.city").ILike("%" + f.City + "%"))
	}

	if f.Box != nil {
		ds = ds.Where(
			goqu.I("p.latitude").Between(goqu.Range(f.Box.MinLat, f.Box.MaxLat)),
			goqu.I("p.longitude").Between(goqu.Range(f.Box.MinLng, f.Box.MaxLng)),
		)
	}

	return ds
}

// Search возвращает поставщиков по фильтру и общее количество совпадений.
// При Limit == 0 возвращаются все кандидаты.
func (r *SearchRepository) Search(ctx context.Context, f models.SearchFilter) ([]models.SearchResult, int, error) {
	ds := buildSearch(f)

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("search repository: build count %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("search repository: count %w", err)
	}

	listDS := ds.Select(searchColumns...).
		Order(goqu.I("p.profile_completeness_score").Desc(), goqu.I("p.business_name").Asc())
	if f.Limit > 0 {
		listDS = listDS.Limit(uint(f.Limit)).Offset(uint(f.Offset))
	}
	query, args, err := listDS.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("search repository: build %w", err)
	}

	results := make([]models.SearchResult, 0)
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search repository: select %w", err)
	}
	return results, total, nil
}

// SuggestProviders возвращает названия видимых поставщиков, похожие на q.
func (r *SearchRepository) SuggestProviders(ctx context.Context, q string, limit int) ([]models.Suggestion, error) {
	query, args, err := buildSearch(models.SearchFilter{}).
		Select(goqu.L("'provider'").As("type"), goqu.I("p.business_name").As("value"), goqu.I("p.slug").As("slug")).
		Where(goqu.I("p.business_name").ILike("%" + q + "%")).
		Order(goqu.I("p.profile_completeness_score").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("search repository: build suggestions %w", err)
	}

	suggestions := make([]models.Suggestion, 0)
	if err := r.db.SelectContext(ctx, &suggestions, query, args...); err != nil {
		return nil, fmt.Errorf("search repository: suggestions %w", err)
	}
	return suggestions, nil
}
