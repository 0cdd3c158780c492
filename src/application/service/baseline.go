package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

type BaselineService interface {
	WithQuerier(config.PgxIface) BaselineService

	GetSeries(metric string, limit int) (domain.BaselineSeries, error)
	GetPage(metric string, page *repository.Page) ([]domain.MetricSample, error)
	Append(*domain.MetricSample) error
	Prune(metric string, keep int) error
}

type baselineService struct {
	logger             zerolog.Logger
	baselineRepository repository.BaselineRepository
}

func NewBaselineService(baselineRepository repository.BaselineRepository, logger *zerolog.Logger) BaselineService {
	return &baselineService{
		logger:             logger.With().Str("component", "BaselineService").Logger(),
		baselineRepository: baselineRepository,
	}
}

func (self *baselineService) WithQuerier(querier config.PgxIface) BaselineService {
	return &baselineService{
		logger:             self.logger,
		baselineRepository: self.baselineRepository.WithQuerier(querier),
	}
}

func (self *baselineService) GetSeries(metric string, limit int) (series domain.BaselineSeries, err error) {
	self.logger.Debug().Str("metric", metric).Int("limit", limit).Msg("Getting baseline series")
	series, err = self.baselineRepository.GetSeries(metric, limit)
	err = errors.WithMessagef(err, "Could not select baseline series for metric %q", metric)
	return
}

func (self *baselineService) GetPage(metric string, page *repository.Page) (samples []domain.MetricSample, err error) {
	self.logger.Debug().Str("metric", metric).Msg("Getting baseline page")
	samples, err = self.baselineRepository.GetPage(metric, page)
	err = errors.WithMessagef(err, "Could not select baseline samples for metric %q", metric)
	return
}

func (self *baselineService) Append(sample *domain.MetricSample) error {
	self.logger.Debug().Str("metric", sample.Metric).Float64("value", sample.Value).Msg("Appending baseline sample")
	if err := self.baselineRepository.Save(sample); err != nil {
		return errors.WithMessagef(err, "Could not insert baseline sample for metric %q", sample.Metric)
	}
	return nil
}

func (self *baselineService) Prune(metric string, keep int) error {
	self.logger.Debug().Str("metric", metric).Int("keep", keep).Msg("Pruning baseline series")
	return errors.WithMessagef(
		self.baselineRepository.Prune(metric, keep),
		"Could not prune baseline series for metric %q", metric,
	)
}
