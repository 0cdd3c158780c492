package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/umpire-ci/umpire/src/domain"
)

// LoadDecisionConfig reads the rule set, policy, regression thresholds,
// and failure patterns from a YAML file and validates them eagerly so
// that a structural mistake surfaces as one ConfigurationError here
// instead of failing somewhere deep in planning.
func LoadDecisionConfig(path string) (*domain.DecisionConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "While reading configuration file %q", path)
	}
	return ParseDecisionConfig(content)
}

func ParseDecisionConfig(content []byte) (*domain.DecisionConfig, error) {
	config := domain.DecisionConfig{}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, domain.ConfigurationError{Scope: "configuration", Reason: err.Error()}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
