package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
)

// ReportService renders a human-readable step summary for a decision.
type ReportService interface {
	Render(domain.Decision) string
	// Write appends the summary to the given file, defaulting to the
	// file named by GITHUB_STEP_SUMMARY when path is empty.
	Write(summary, path string) error
}

type reportService struct {
	logger zerolog.Logger
}

func NewReportService(logger *zerolog.Logger) ReportService {
	return &reportService{
		logger: logger.With().Str("component", "ReportService").Logger(),
	}
}

func (self *reportService) Render(decision domain.Decision) string {
	b := strings.Builder{}

	fmt.Fprintf(&b, "## CI Decision `%s`\n\n", decision.ID)
	fmt.Fprintf(&b, "%d changed file(s), optimization score **%.1f**\n\n", len(decision.ChangeSet), decision.Plan.Score)

	if categories := decision.Classification.Categories(); len(categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(categories, ", "))
		if decision.Classification.HasUnclassified() {
			b.WriteString("⚠️ Unclassified files present; no job-group may be skipped.\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("| Job-group | Action |\n|---|---|\n")
	for _, name := range sortedJobGroups(decision.Plan) {
		action := decision.Plan.JobGroups[name]
		str, _ := action.String()
		fmt.Fprintf(&b, "| %s | %s |\n", name, str)
	}
	b.WriteString("\n")

	if len(decision.Verdicts) > 0 {
		b.WriteString("### Regressions\n\n")
		b.WriteString("| Metric | Verdict | Δ% | Baseline mean | Samples |\n|---|---|---|---|---|\n")
		for _, verdict := range decision.Verdicts {
			verdict := verdict
			class, _ := verdict.Class.String()
			if verdict.Class == domain.VerdictInsufficientData {
				fmt.Fprintf(&b, "| %s | %s | – | – | %d |\n", verdict.Metric, class, verdict.BaselineSamples)
			} else {
				fmt.Fprintf(&b, "| %s | %s | %+.2f | %.2f | %d |\n",
					verdict.Metric, class, verdict.DeltaPercent, verdict.BaselineMean, verdict.BaselineSamples)
			}
		}
		b.WriteString("\n")

		if decision.Regressed() {
			b.WriteString("❌ At least one metric regressed beyond its threshold.\n")
		}
	}

	return b.String()
}

func (self *reportService) Write(summary, path string) error {
	if path == "" {
		path = config.GetenvStr("GITHUB_STEP_SUMMARY")
	}
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, summary)
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WithMessagef(err, "While opening summary file %q", path)
	}
	defer file.Close()

	_, err = file.WriteString(summary)
	return errors.WithMessagef(err, "While writing summary file %q", path)
}

func sortedJobGroups(plan domain.ExecutionPlan) []string {
	names := maps.Keys(plan.JobGroups)
	slices.Sort(names)
	return names
}
