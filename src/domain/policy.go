package domain

import (
	"fmt"

	"github.com/prometheus/common/model"
	"golang.org/x/exp/slices"

	"github.com/umpire-ci/umpire/src/util"
)

// PatternRule maps a category name to the glob patterns that select it.
// Patterns use `*`, `**` and `?` with `/` as separator and are matched
// case-sensitively against repository-root-relative paths.
type PatternRule struct {
	Category string   `yaml:"category" json:"category"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

type RuleSet []PatternRule

func (self RuleSet) Validate() error {
	if len(self) == 0 {
		return ConfigurationError{Scope: "rule set", Reason: "must contain at least one rule"}
	}
	seen := make(map[string]struct{}, len(self))
	for _, rule := range self {
		if rule.Category == "" {
			return ConfigurationError{Scope: "rule", Reason: "category name must not be empty"}
		}
		if rule.Category == CategoryUnclassified {
			return ConfigurationError{Scope: "rule", Name: rule.Category, Reason: "category name is reserved"}
		}
		if _, dup := seen[rule.Category]; dup {
			return ConfigurationError{Scope: "rule", Name: rule.Category, Reason: "category defined twice"}
		}
		seen[rule.Category] = struct{}{}
		if len(rule.Patterns) == 0 {
			return ConfigurationError{Scope: "rule", Name: rule.Category, Reason: "must have at least one pattern"}
		}
		for _, pattern := range rule.Patterns {
			if pattern == "" {
				return ConfigurationError{Scope: "rule", Name: rule.Category, Reason: "pattern must not be empty"}
			}
		}
	}
	return nil
}

// Categories returns the declared category names in declaration order.
func (self RuleSet) Categories() []string {
	categories := make([]string, 0, len(self))
	for _, rule := range self {
		categories = append(categories, rule.Category)
	}
	return categories
}

// JobGroupPolicy states when one coarse unit of CI work may be skipped.
type JobGroupPolicy struct {
	Name string `yaml:"name" json:"name"`

	// SkipWhenOnly lists the categories whose exclusive presence in a
	// change set makes this job-group skip-eligible. Empty means the
	// group always runs.
	SkipWhenOnly []string `yaml:"skip_when_only" json:"skip_when_only"`

	// ForceRun overrides eligibility when true. False does not force
	// a skip; the default is always to run.
	ForceRun util.MayBool `yaml:"force_run" json:"force_run"`
}

// Policy is the typed form of the skip configuration. It is validated
// eagerly against the rule set so that structural mistakes surface as a
// single ConfigurationError instead of failing deep inside planning.
type Policy struct {
	JobGroups []JobGroupPolicy `yaml:"job_groups" json:"job_groups"`

	// SkipOnEmpty permits skipping on a zero-file change set.
	SkipOnEmpty bool `yaml:"skip_on_empty" json:"skip_on_empty"`

	// MinScore is the optimization score below which skipping is not
	// worth the risk; plans scoring under it run everything.
	MinScore float64 `yaml:"min_score" json:"min_score"`
}

func (self Policy) Validate(ruleSet RuleSet) error {
	if len(self.JobGroups) == 0 {
		return ConfigurationError{Scope: "policy", Reason: "must define at least one job-group"}
	}
	if self.MinScore < 0 || self.MinScore > 100 {
		return ConfigurationError{Scope: "policy", Reason: fmt.Sprintf("min_score %v out of range 0-100", self.MinScore)}
	}

	categories := ruleSet.Categories()
	seen := make(map[string]struct{}, len(self.JobGroups))
	for _, jobGroup := range self.JobGroups {
		if jobGroup.Name == "" {
			return ConfigurationError{Scope: "job-group", Reason: "name must not be empty"}
		}
		if _, dup := seen[jobGroup.Name]; dup {
			return ConfigurationError{Scope: "job-group", Name: jobGroup.Name, Reason: "defined twice"}
		}
		seen[jobGroup.Name] = struct{}{}

		for _, category := range jobGroup.SkipWhenOnly {
			if category == CategoryUnclassified {
				return ConfigurationError{Scope: "job-group", Name: jobGroup.Name, Reason: "unclassified files are never skip-safe"}
			}
			if !slices.Contains(categories, category) {
				return ConfigurationError{Scope: "job-group", Name: jobGroup.Name, Reason: fmt.Sprintf("references undefined category %q", category)}
			}
		}
	}
	return nil
}

// MetricSpec declares a metric the engine may judge. Directionality is a
// declared property, never inferred from the metric name.
type MetricSpec struct {
	Name      string          `yaml:"name" json:"name"`
	Direction MetricDirection `yaml:"direction" json:"direction"`
}

// RegressionPolicy holds the thresholds of the regression evaluator.
type RegressionPolicy struct {
	// ThresholdPercent is the adverse delta beyond which a metric regressed.
	ThresholdPercent float64 `yaml:"threshold_percent" json:"threshold_percent"`
	// SignificanceFloor is the absolute delta under which a metric is
	// always considered stable.
	SignificanceFloor float64 `yaml:"significance_floor" json:"significance_floor"`
	// Window is how many trailing baseline samples enter the statistic.
	Window int `yaml:"window" json:"window"`

	Metrics []MetricSpec `yaml:"metrics" json:"metrics"`
}

const (
	DefaultThresholdPercent  = 10
	DefaultSignificanceFloor = 1
	DefaultWindow            = 10
)

func (self *RegressionPolicy) ApplyDefaults() {
	if self.ThresholdPercent == 0 {
		self.ThresholdPercent = DefaultThresholdPercent
	}
	if self.SignificanceFloor == 0 {
		self.SignificanceFloor = DefaultSignificanceFloor
	}
	if self.Window == 0 {
		self.Window = DefaultWindow
	}
}

func (self RegressionPolicy) Validate() error {
	if self.ThresholdPercent <= 0 {
		return ConfigurationError{Scope: "regression", Reason: "threshold_percent must be positive"}
	}
	if self.SignificanceFloor < 0 {
		return ConfigurationError{Scope: "regression", Reason: "significance_floor must not be negative"}
	}
	if self.SignificanceFloor >= self.ThresholdPercent {
		return ConfigurationError{Scope: "regression", Reason: "significance_floor must be below threshold_percent"}
	}
	if self.Window < 2 {
		return ConfigurationError{Scope: "regression", Reason: "window must be at least 2"}
	}

	seen := make(map[string]struct{}, len(self.Metrics))
	for _, spec := range self.Metrics {
		if !model.IsValidMetricName(model.LabelValue(spec.Name)) {
			return ConfigurationError{Scope: "metric", Name: spec.Name, Reason: "not a valid metric name"}
		}
		if _, dup := seen[spec.Name]; dup {
			return ConfigurationError{Scope: "metric", Name: spec.Name, Reason: "declared twice"}
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

// Spec looks up the declaration of a metric by name.
func (self RegressionPolicy) Spec(metric string) (MetricSpec, bool) {
	for _, spec := range self.Metrics {
		if spec.Name == metric {
			return spec, true
		}
	}
	return MetricSpec{}, false
}

// DecisionConfig is the whole engine configuration as loaded from file.
type DecisionConfig struct {
	Rules      RuleSet          `yaml:"rules" json:"rules"`
	Policy     Policy           `yaml:"policy" json:"policy"`
	Regression RegressionPolicy `yaml:"regression" json:"regression"`
	Patterns   []FailurePattern `yaml:"patterns" json:"patterns"`
}

func (self *DecisionConfig) Validate() error {
	if err := self.Rules.Validate(); err != nil {
		return err
	}
	if err := self.Policy.Validate(self.Rules); err != nil {
		return err
	}
	self.Regression.ApplyDefaults()
	if err := self.Regression.Validate(); err != nil {
		return err
	}
	for _, pattern := range self.Patterns {
		if err := pattern.Validate(); err != nil {
			return err
		}
	}
	return nil
}
