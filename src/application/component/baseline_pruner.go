package component

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/application/service"
	"github.com/umpire-ci/umpire/src/domain"
)

// BaselinePruner periodically trims each declared metric's baseline
// history so the append-only series does not grow without bound.
type BaselinePruner struct {
	Logger          zerolog.Logger
	BaselineService service.BaselineService
	Metrics         []domain.MetricSpec
	Keep            int
	Interval        time.Duration
}

func (self *BaselinePruner) Start(ctx context.Context) error {
	self.Logger.Info().Dur("interval", self.Interval).Int("keep", self.Keep).Msg("Starting")

	ticker := time.NewTicker(self.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, spec := range self.Metrics {
				if err := self.BaselineService.Prune(spec.Name, self.Keep); err != nil {
					self.Logger.Err(err).Str("metric", spec.Name).Msg("While pruning baseline")
				}
			}
		}
	}
}
