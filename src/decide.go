package umpire

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/application/service"
	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/infrastructure/persistence"
)

type DecideCmd struct {
	Files []string `arg:"positional" help:"changed file paths; - reads them from stdin"`

	Config      string `arg:"--config,env:UMPIRE_CONFIG" help:"engine configuration file"`
	Samples     string `arg:"--samples" help:"JSON file with current metric samples"`
	ArtifactDir string `arg:"--artifact-dir,env:UMPIRE_ARTIFACT_DIR" default:".umpire" help:"directory holding baseline artifacts"`

	AppendBaseline bool   `arg:"--append-baseline" help:"record current samples in the baseline after a successful run"`
	Summary        bool   `arg:"--summary" help:"write a markdown step summary"`
	SummaryFile    string `arg:"--summary-file" help:"summary target; defaults to $GITHUB_STEP_SUMMARY"`
	NotifyUrl      string `arg:"--notify-url" help:"webhook that receives the decision summary"`
}

func (cmd DecideCmd) Run(logger *zerolog.Logger) error {
	configPath := cmd.Config
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	decisionConfig, err := config.LoadDecisionConfig(configPath)
	if err != nil {
		return err
	}

	changes, err := cmd.changeSet()
	if err != nil {
		return err
	}

	samples, err := cmd.samples()
	if err != nil {
		return err
	}

	classificationService := service.NewClassificationService(logger)
	plannerService := service.NewPlannerService(logger)
	regressionService := service.NewRegressionService(logger)
	baselineService := service.NewBaselineService(persistence.NewArtifactBaselineRepository(cmd.ArtifactDir), logger)
	decisionService := service.NewDecisionService(classificationService, plannerService, regressionService, baselineService, logger)

	decision, err := decisionService.Decide(changes, decisionConfig, samples, cmd.AppendBaseline)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(decision); err != nil {
		return errors.WithMessage(err, "While encoding decision")
	}

	if cmd.Summary {
		reportService := service.NewReportService(logger)
		if err := reportService.Write(reportService.Render(decision), cmd.SummaryFile); err != nil {
			return err
		}
	}

	if cmd.NotifyUrl != "" {
		if err := service.NewNotificationService(logger).Notify(cmd.NotifyUrl, decision); err != nil {
			return err
		}
	}

	return nil
}

func (cmd DecideCmd) changeSet() (domain.ChangeSet, error) {
	if len(cmd.Files) == 1 && cmd.Files[0] == "-" {
		changes := domain.ChangeSet{}
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				changes = append(changes, line)
			}
		}
		return changes, errors.WithMessage(scanner.Err(), "While reading changed files from stdin")
	}
	return domain.ChangeSet(cmd.Files), nil
}

func (cmd DecideCmd) samples() ([]domain.MetricSample, error) {
	if cmd.Samples == "" {
		return nil, nil
	}

	content, err := os.ReadFile(cmd.Samples)
	if err != nil {
		return nil, errors.WithMessagef(err, "While reading samples file %q", cmd.Samples)
	}

	samples := []domain.MetricSample{}
	if err := json.Unmarshal(content, &samples); err != nil {
		return nil, domain.InputError{Reason: "samples file: " + err.Error()}
	}

	now := time.Now().UTC()
	for i := range samples {
		if samples[i].CreatedAt.IsZero() {
			samples[i].CreatedAt = now
		}
	}
	return samples, nil
}
