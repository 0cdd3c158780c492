package service

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/domain"
)

// HealingService matches a failed CI step against known failure
// patterns and applies the attached fix. Pattern matching is pure;
// Apply runs the fix commands and rolls back when one of them fails.
type HealingService interface {
	Analyze(domain.FailureReport, []domain.FailurePattern) (*domain.FailurePattern, error)
	Apply(domain.FixSpec, string) HealStatus
	WriteStatus(path string, status HealStatus) error
}

// HealStatus is what the surrounding CI job reads back after a healing
// attempt, mirrored into a key=value status file.
type HealStatus struct {
	Pattern  string
	Healed   bool
	Rollback bool
	Error    string
}

type healingService struct {
	logger zerolog.Logger
}

func NewHealingService(logger *zerolog.Logger) HealingService {
	return &healingService{
		logger: logger.With().Str("component", "HealingService").Logger(),
	}
}

// Analyze returns the first pattern, in declaration order, whose match
// expression unifies with the failure report. No pattern matching is
// not an error; the caller simply has no fix to apply.
func (self *healingService) Analyze(report domain.FailureReport, patterns []domain.FailurePattern) (*domain.FailurePattern, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	value := report.Value()
	for _, pattern := range patterns {
		pattern := pattern
		if err := pattern.Validate(); err != nil {
			return nil, err
		}

		matchErr, err := pattern.Match.MatchValue(value)
		if err != nil {
			return nil, errors.WithMessagef(err, "While matching pattern %q", pattern.Name)
		}
		if matchErr == nil {
			self.logger.Info().Str("pattern", pattern.Name).Str("tool", report.Tool).Msg("Failure matches pattern")
			return &pattern, nil
		}

		self.logger.Trace().Str("pattern", pattern.Name).AnErr("mismatch", matchErr).Msg("Pattern does not apply")
	}

	self.logger.Info().Str("tool", report.Tool).Msg("No pattern matches failure")
	return nil, nil
}

func (self *healingService) Apply(fix domain.FixSpec, dir string) HealStatus {
	status := HealStatus{}

	if err := self.runAll(fix.Commands, dir); err != nil {
		status.Error = fmt.Sprintf("fix failed: %s", err)

		if rollbackErr := self.runAll(fix.Rollback, dir); rollbackErr != nil {
			status.Error += fmt.Sprintf("; rollback failed: %s", rollbackErr)
		} else {
			status.Rollback = len(fix.Rollback) > 0
		}
		return status
	}

	status.Healed = true
	return status
}

func (self *healingService) runAll(commands [][]string, dir string) error {
	for _, argv := range commands {
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Dir = dir

		self.logger.Debug().Stringer("command", cmd).Msg("Running fix command")

		if output, err := cmd.CombinedOutput(); err != nil {
			self.logger.Warn().Stringer("command", cmd).Bytes("output", output).Err(err).Msg("Fix command failed")
			return errors.WithMessagef(err, "While running %q", argv[0])
		}
	}
	return nil
}

// WriteStatus writes the healed/rollback/error key=value lines the CI
// workflow reads to decide whether to re-run the failed step.
func (self *healingService) WriteStatus(path string, status HealStatus) error {
	content := fmt.Sprintf(
		"healed=%t\nrollback=%t\nerror=%s\npattern=%s\n",
		status.Healed, status.Rollback, status.Error, status.Pattern,
	)
	return errors.WithMessagef(
		os.WriteFile(path, []byte(content), 0o644),
		"While writing healing status file %q", path,
	)
}
