package repository

import (
	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
)

// BaselineRepository is the narrow read/append interface over the
// externally-owned baseline history. It is append-only; samples are
// never updated in place.
type BaselineRepository interface {
	WithQuerier(config.PgxIface) BaselineRepository

	// GetSeries returns the last limit samples of a metric,
	// ordered by time ascending.
	GetSeries(metric string, limit int) (domain.BaselineSeries, error)
	GetPage(metric string, page *Page) ([]domain.MetricSample, error)
	Save(*domain.MetricSample) error
	// Prune drops all but the newest keep samples of a metric.
	Prune(metric string, keep int) error
}
