package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

// artifactBaselineRepository keeps baseline history as one JSON file per
// metric under an artifact directory. It serves runners that carry their
// history in CI artifacts instead of a database.
type artifactBaselineRepository struct {
	dir string
}

func NewArtifactBaselineRepository(dir string) repository.BaselineRepository {
	return &artifactBaselineRepository{dir}
}

// WithQuerier is a no-op; artifact files know no transactions.
func (self *artifactBaselineRepository) WithQuerier(config.PgxIface) repository.BaselineRepository {
	return self
}

func (self *artifactBaselineRepository) path(metric string) string {
	return filepath.Join(self.dir, metric+".json")
}

func (self *artifactBaselineRepository) read(metric string) (domain.BaselineSeries, error) {
	content, err := os.ReadFile(self.path(metric))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.WithMessagef(err, "While reading baseline artifact for metric %q", metric)
	}

	series := domain.BaselineSeries{}
	if err := json.Unmarshal(content, &series); err != nil {
		return nil, errors.WithMessagef(err, "While decoding baseline artifact for metric %q", metric)
	}
	return series, nil
}

func (self *artifactBaselineRepository) write(metric string, series domain.BaselineSeries) error {
	if err := os.MkdirAll(self.dir, 0o755); err != nil {
		return err
	}

	content, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return err
	}

	// Write-then-rename so a crashed run never leaves a torn file.
	tmp := self.path(metric) + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, self.path(metric))
}

func (self *artifactBaselineRepository) GetSeries(metric string, limit int) (domain.BaselineSeries, error) {
	series, err := self.read(metric)
	if err != nil {
		return nil, err
	}
	return series.Tail(limit), nil
}

func (self *artifactBaselineRepository) GetPage(metric string, page *repository.Page) ([]domain.MetricSample, error) {
	series, err := self.read(metric)
	if err != nil {
		return nil, err
	}
	page.Total = len(series)

	// Newest first, like the database repository.
	newest := make([]domain.MetricSample, 0, page.Limit)
	for i := len(series) - 1 - page.Offset; i >= 0 && len(newest) < page.Limit; i -= 1 {
		newest = append(newest, series[i])
	}
	return newest, nil
}

func (self *artifactBaselineRepository) Save(sample *domain.MetricSample) error {
	series, err := self.read(sample.Metric)
	if err != nil {
		return err
	}
	return self.write(sample.Metric, append(series, *sample))
}

func (self *artifactBaselineRepository) Prune(metric string, keep int) error {
	series, err := self.read(metric)
	if err != nil {
		return err
	}
	if len(series) <= keep {
		return nil
	}
	return self.write(metric, series.Tail(keep))
}
