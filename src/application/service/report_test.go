package service

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/umpire-ci/umpire/src/domain"
)

func testDecision() domain.Decision {
	return domain.Decision{
		ID:        uuid.MustParse("b10b2574-5a54-446f-b63e-0c1da34bcc9a"),
		ChangeSet: domain.ChangeSet{"README.md", "docs/install.md"},
		Classification: domain.ClassificationResult{Matched: map[string][]string{
			"docs": {"README.md", "docs/install.md"},
		}},
		Plan: domain.ExecutionPlan{
			JobGroups: map[string]domain.JobAction{
				"tests": domain.JobActionSkip,
				"build": domain.JobActionRun,
			},
			Score: 50,
		},
		Verdicts: []domain.RegressionVerdict{
			{
				Metric:           "benchmark_time_ms",
				Class:            domain.VerdictRegressed,
				DeltaPercent:     20,
				BaselineMean:     100,
				BaselineSamples:  10,
				ExceedsThreshold: true,
			},
			{
				Metric:          "coverage_percent",
				Class:           domain.VerdictInsufficientData,
				BaselineSamples: 1,
			},
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	reportService := NewReportService(&logger)

	// when
	summary := reportService.Render(testDecision())

	// then
	assert.Contains(t, summary, "b10b2574-5a54-446f-b63e-0c1da34bcc9a")
	assert.Contains(t, summary, "2 changed file(s), optimization score **50.0**")
	assert.Contains(t, summary, "Categories: docs")
	assert.Contains(t, summary, "| build | run |")
	assert.Contains(t, summary, "| tests | skip |")
	assert.Contains(t, summary, "| benchmark_time_ms | regressed | +20.00 | 100.00 | 10 |")
	assert.Contains(t, summary, "| coverage_percent | insufficient-data | – | – | 1 |")
	assert.Contains(t, summary, "At least one metric regressed")
	assert.NotContains(t, summary, "Unclassified files present")
}

func TestRenderUnclassifiedWarning(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	reportService := NewReportService(&logger)
	decision := testDecision()
	decision.Classification.Matched[domain.CategoryUnclassified] = []string{"Makefile"}
	decision.Verdicts = nil

	// when
	summary := reportService.Render(decision)

	// then
	assert.Contains(t, summary, "Unclassified files present")
	assert.NotContains(t, summary, "Regressions")
	assert.NotContains(t, summary, "At least one metric regressed")
}

func TestWriteAppends(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	reportService := NewReportService(&logger)
	path := filepath.Join(t.TempDir(), "summary.md")

	// when
	assert.Nil(t, reportService.Write("first\n", path))
	assert.Nil(t, reportService.Write("second\n", path))

	// then
	content, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}
