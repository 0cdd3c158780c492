package service

import (
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/umpire-ci/umpire/src/domain"
)

type PlannerService interface {
	Plan(domain.ClassificationResult, domain.Policy, domain.RuleSet) (domain.ExecutionPlan, error)
}

type plannerService struct {
	logger zerolog.Logger
}

func NewPlannerService(logger *zerolog.Logger) PlannerService {
	return &plannerService{
		logger: logger.With().Str("component", "PlannerService").Logger(),
	}
}

// Plan decides run or skip per job-group. A job-group is skip-eligible
// only when every matched category is whitelisted for it and no file is
// unclassified; ambiguity always resolves to run. If the resulting
// optimization score stays under the policy minimum the savings are not
// worth the risk and everything runs.
func (self *plannerService) Plan(classification domain.ClassificationResult, policy domain.Policy, ruleSet domain.RuleSet) (domain.ExecutionPlan, error) {
	plan := domain.ExecutionPlan{JobGroups: map[string]domain.JobAction{}}

	if err := policy.Validate(ruleSet); err != nil {
		return plan, err
	}

	matched := classification.Categories()

	for _, jobGroup := range policy.JobGroups {
		plan.JobGroups[jobGroup.Name] = domain.JobActionRun

		if jobGroup.ForceRun.Else(false) {
			continue
		}
		if classification.HasUnclassified() {
			continue
		}
		if classification.Empty() {
			if policy.SkipOnEmpty && len(jobGroup.SkipWhenOnly) > 0 {
				plan.JobGroups[jobGroup.Name] = domain.JobActionSkip
			}
			continue
		}

		eligible := len(jobGroup.SkipWhenOnly) > 0
		for _, category := range matched {
			if !slices.Contains(jobGroup.SkipWhenOnly, category) {
				eligible = false
				break
			}
		}
		if eligible {
			plan.JobGroups[jobGroup.Name] = domain.JobActionSkip
		}
	}

	plan.Score = score(plan)
	if plan.Score > 0 && plan.Score < policy.MinScore {
		for name := range plan.JobGroups {
			plan.JobGroups[name] = domain.JobActionRun
		}
		plan.Score = 0
	}

	self.logger.Debug().
		Strs("skipped", plan.Skipped()).
		Float64("score", plan.Score).
		Msg("Planned job-groups")

	return plan, nil
}

func score(plan domain.ExecutionPlan) float64 {
	if len(plan.JobGroups) == 0 {
		return 0
	}
	ratio := float64(len(plan.Skipped())) / float64(len(plan.JobGroups))
	return math.Round(ratio*1000) / 10
}
