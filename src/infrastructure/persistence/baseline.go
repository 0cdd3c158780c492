package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

type baselineRepository struct {
	db config.PgxIface
}

func NewBaselineRepository(db config.PgxIface) repository.BaselineRepository {
	return &baselineRepository{db}
}

func (self *baselineRepository) WithQuerier(querier config.PgxIface) repository.BaselineRepository {
	return &baselineRepository{querier}
}

func (self *baselineRepository) GetSeries(metric string, limit int) (series domain.BaselineSeries, err error) {
	return series, pgxscan.Select(
		context.Background(), self.db, &series,
		`SELECT metric, value, created_at FROM (
			SELECT metric, value, created_at
			FROM baseline_sample
			WHERE metric = $1
			ORDER BY created_at DESC
			LIMIT $2
		) AS tail ORDER BY created_at ASC`,
		metric, limit,
	)
}

func (self *baselineRepository) GetPage(metric string, page *repository.Page) ([]domain.MetricSample, error) {
	samples := make([]domain.MetricSample, 0, page.Limit)
	return samples, fetchPage(
		self.db, page, &samples,
		`metric, value, created_at`, `baseline_sample WHERE metric = $1`, `created_at DESC`,
		metric,
	)
}

func (self *baselineRepository) Save(sample *domain.MetricSample) error {
	_, err := self.db.Exec(
		context.Background(),
		`INSERT INTO baseline_sample (metric, value, created_at) VALUES ($1, $2, $3)`,
		sample.Metric, sample.Value, sample.CreatedAt,
	)
	return err
}

func (self *baselineRepository) Prune(metric string, keep int) error {
	_, err := self.db.Exec(
		context.Background(),
		`DELETE FROM baseline_sample
		WHERE metric = $1 AND ctid NOT IN (
			SELECT ctid FROM baseline_sample
			WHERE metric = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`,
		metric, keep,
	)
	return err
}
