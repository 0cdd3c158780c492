package service

import (
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/domain"
)

type ClassificationService interface {
	Classify(domain.ChangeSet, domain.RuleSet) (domain.ClassificationResult, error)
}

type classificationService struct {
	logger zerolog.Logger
}

func NewClassificationService(logger *zerolog.Logger) ClassificationService {
	return &classificationService{
		logger: logger.With().Str("component", "ClassificationService").Logger(),
	}
}

type compiledRule struct {
	category string
	globs    []glob.Glob
}

func compileRules(ruleSet domain.RuleSet) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		globs := make([]glob.Glob, 0, len(rule.Patterns))
		for _, pattern := range rule.Patterns {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, domain.ConfigurationError{
					Scope:  "rule",
					Name:   rule.Category,
					Reason: "pattern " + pattern + ": " + err.Error(),
				}
			}
			globs = append(globs, g)
		}
		compiled = append(compiled, compiledRule{rule.Category, globs})
	}
	return compiled, nil
}

// Classify attributes every file of the change set to the categories whose
// patterns it matches, in rule declaration order. A file matching no rule
// lands in the unclassified category. Matching is case-sensitive against
// the repository-root-relative path.
func (self *classificationService) Classify(changes domain.ChangeSet, ruleSet domain.RuleSet) (domain.ClassificationResult, error) {
	result := domain.ClassificationResult{Matched: map[string][]string{}}

	if err := ruleSet.Validate(); err != nil {
		return result, err
	}
	if err := changes.Validate(); err != nil {
		return result, err
	}

	compiled, err := compileRules(ruleSet)
	if err != nil {
		return result, err
	}

	for _, rule := range compiled {
		result.Matched[rule.category] = []string{}
	}
	result.Matched[domain.CategoryUnclassified] = []string{}

	for _, path := range changes {
		matched := false
		for _, rule := range compiled {
			for _, g := range rule.globs {
				if g.Match(path) {
					result.Matched[rule.category] = append(result.Matched[rule.category], path)
					matched = true
					break
				}
			}
		}
		if !matched {
			result.Matched[domain.CategoryUnclassified] = append(result.Matched[domain.CategoryUnclassified], path)
		}
	}

	self.logger.Debug().
		Int("files", len(changes)).
		Strs("categories", result.Categories()).
		Msg("Classified change set")

	return result, nil
}
