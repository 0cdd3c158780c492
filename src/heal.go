package umpire

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/application/service"
	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
)

type HealCmd struct {
	Report string `arg:"--report,required" help:"JSON file with the failure report"`

	Config     string `arg:"--config,env:UMPIRE_CONFIG" help:"engine configuration file"`
	ProjectDir string `arg:"--project-dir" default:"." help:"directory fix commands run in"`
	StatusFile string `arg:"--status-file" default:".healing_status" help:"key=value status file for the CI job"`
	DryRun     bool   `arg:"--dry-run" help:"report the matching pattern without applying its fix"`
}

func (cmd HealCmd) Run(logger *zerolog.Logger) error {
	configPath := cmd.Config
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	decisionConfig, err := config.LoadDecisionConfig(configPath)
	if err != nil {
		return err
	}

	report, err := cmd.failureReport()
	if err != nil {
		return err
	}

	healingService := service.NewHealingService(logger)

	status := service.HealStatus{}
	pattern, err := healingService.Analyze(report, decisionConfig.Patterns)
	switch {
	case err != nil:
		return err
	case pattern == nil:
		status.Error = "No applicable fix found"
	case cmd.DryRun:
		status.Pattern = pattern.Name
	default:
		status = healingService.Apply(pattern.Fix, cmd.ProjectDir)
		status.Pattern = pattern.Name
	}

	return healingService.WriteStatus(cmd.StatusFile, status)
}

func (cmd HealCmd) failureReport() (domain.FailureReport, error) {
	report := domain.FailureReport{}

	content, err := os.ReadFile(cmd.Report)
	if err != nil {
		return report, domain.InputError{Reason: "failure report: " + err.Error()}
	}
	if err := json.Unmarshal(content, &report); err != nil {
		return report, domain.InputError{Reason: "failure report: " + err.Error()}
	}
	return report, nil
}
