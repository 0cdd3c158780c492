package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
)

// DecisionService is the orchestration entry point: it sequences
// classification, planning, and regression evaluation, and surfaces the
// first error without a partial result.
type DecisionService interface {
	WithQuerier(config.PgxIface) DecisionService

	Decide(changes domain.ChangeSet, config *domain.DecisionConfig, samples []domain.MetricSample, appendBaseline bool) (domain.Decision, error)
}

type decisionService struct {
	logger                zerolog.Logger
	classificationService ClassificationService
	plannerService        PlannerService
	regressionService     RegressionService
	baselineService       BaselineService
}

func NewDecisionService(
	classificationService ClassificationService,
	plannerService PlannerService,
	regressionService RegressionService,
	baselineService BaselineService,
	logger *zerolog.Logger,
) DecisionService {
	return &decisionService{
		logger:                logger.With().Str("component", "DecisionService").Logger(),
		classificationService: classificationService,
		plannerService:        plannerService,
		regressionService:     regressionService,
		baselineService:       baselineService,
	}
}

// WithQuerier scopes the baseline reads and appends of a decision to
// the given querier, usually an open transaction.
func (self *decisionService) WithQuerier(querier config.PgxIface) DecisionService {
	return &decisionService{
		logger:                self.logger,
		classificationService: self.classificationService,
		plannerService:        self.plannerService,
		regressionService:     self.regressionService,
		baselineService:       self.baselineService.WithQuerier(querier),
	}
}

func (self *decisionService) Decide(changes domain.ChangeSet, config *domain.DecisionConfig, samples []domain.MetricSample, appendBaseline bool) (decision domain.Decision, err error) {
	decision = domain.Decision{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		ChangeSet: changes,
	}

	if decision.Classification, err = self.classificationService.Classify(changes, config.Rules); err != nil {
		return
	}

	if decision.Plan, err = self.plannerService.Plan(decision.Classification, config.Policy, config.Rules); err != nil {
		return
	}

	decision.Verdicts = make([]domain.RegressionVerdict, 0, len(samples))
	for _, sample := range samples {
		sample := sample

		series, seriesErr := self.baselineService.GetSeries(sample.Metric, config.Regression.Window)
		if seriesErr != nil {
			err = seriesErr
			return
		}

		verdict, verdictErr := self.regressionService.Evaluate(sample, series, config.Regression)
		if verdictErr != nil {
			err = verdictErr
			return
		}
		decision.Verdicts = append(decision.Verdicts, verdict)
	}

	// Samples enter the baseline only once every verdict exists so a
	// failed run cannot pollute the history.
	if appendBaseline {
		for _, sample := range samples {
			sample := sample
			if appendErr := self.baselineService.Append(&sample); appendErr != nil {
				err = errors.WithMessage(appendErr, "While appending samples to baseline")
				return
			}
		}
	}

	self.logger.Info().
		Str("id", decision.ID.String()).
		Int("files", len(changes)).
		Strs("skipped", decision.Plan.Skipped()).
		Float64("score", decision.Plan.Score).
		Bool("regressed", decision.Regressed()).
		Msg("Computed decision")

	return
}
