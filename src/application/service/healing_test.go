package service

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/util"
)

func testFailureReport() domain.FailureReport {
	return domain.FailureReport{
		Tool:     "pytest",
		ExitCode: 2,
		Lines: []string{
			"ImportError: cannot import name 'fixtures'",
		},
	}
}

func testPattern(name string, match util.CUEString) domain.FailurePattern {
	return domain.FailurePattern{
		Name:  name,
		Match: match,
		Fix: domain.FixSpec{
			Description: "reinstall dependencies",
			Commands:    [][]string{{"true"}},
			Rollback:    [][]string{{"true"}},
		},
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	tries := map[string]struct {
		match   util.CUEString
		applies bool
	}{
		"exact tool":      {`tool: "pytest"`, true},
		"other tool":      {`tool: "cargo"`, false},
		"exit code":       {`tool: "pytest", exit_code: 2`, true},
		"wrong exit code": {`tool: "pytest", exit_code: 1`, false},
		"open constraint": {`exit_code: >0`, true},
		"line contents":   {`lines: [=~"ImportError"]`, true},
		"missing line":    {`lines: [=~"SegFault"]`, false},
		"tool type only":  {`tool: string`, true},
		"missing field":   {`signal: int`, false},
	}

	for k, try := range tries {
		k := k
		try := try

		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when
			pattern, err := healingService.Analyze(testFailureReport(), []domain.FailurePattern{testPattern("fix", try.match)})

			// then
			assert.Nil(t, err)
			if try.applies {
				if assert.NotNil(t, pattern) {
					assert.Equal(t, "fix", pattern.Name)
				}
			} else {
				assert.Nil(t, pattern)
			}
		})
	}
}

func TestAnalyzeFirstMatchWins(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)
	patterns := []domain.FailurePattern{
		testPattern("wrong-tool", `tool: "cargo"`),
		testPattern("by-tool", `tool: "pytest"`),
		testPattern("by-exit-code", `exit_code: 2`),
	}

	// when
	pattern, err := healingService.Analyze(testFailureReport(), patterns)

	// then
	assert.Nil(t, err)
	if assert.NotNil(t, pattern) {
		assert.Equal(t, "by-tool", pattern.Name)
	}
}

func TestAnalyzeInvalidPattern(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	tries := map[string]domain.FailurePattern{
		"empty name":  testPattern("", `tool: "pytest"`),
		"empty match": testPattern("fix", ``),
		"no commands": {Name: "fix", Match: `tool: "pytest"`},
	}

	for k, pattern := range tries {
		k := k
		pattern := pattern

		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when
			_, err := healingService.Analyze(testFailureReport(), []domain.FailurePattern{pattern})

			// then
			var configurationError domain.ConfigurationError
			assert.ErrorAs(t, err, &configurationError)
		})
	}
}

func TestAnalyzeReportWithoutTool(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	// when
	_, err := healingService.Analyze(domain.FailureReport{}, nil)

	// then
	var inputError domain.InputError
	assert.ErrorAs(t, err, &inputError)
}

func TestApply(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	// when
	status := healingService.Apply(domain.FixSpec{
		Commands: [][]string{{"true"}, {"true"}},
	}, t.TempDir())

	// then
	assert.True(t, status.Healed)
	assert.False(t, status.Rollback)
	assert.Equal(t, "", status.Error)
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	// when
	status := healingService.Apply(domain.FixSpec{
		Commands: [][]string{{"false"}},
		Rollback: [][]string{{"true"}},
	}, t.TempDir())

	// then
	assert.False(t, status.Healed)
	assert.True(t, status.Rollback)
	assert.Contains(t, status.Error, "fix failed")
}

func TestApplyReportsFailedRollback(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)

	// when
	status := healingService.Apply(domain.FixSpec{
		Commands: [][]string{{"false"}},
		Rollback: [][]string{{"false"}},
	}, t.TempDir())

	// then
	assert.False(t, status.Healed)
	assert.False(t, status.Rollback)
	assert.Contains(t, status.Error, "rollback failed")
}

func TestWriteStatus(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	healingService := NewHealingService(&logger)
	path := filepath.Join(t.TempDir(), "healing_status")

	// when
	err := healingService.WriteStatus(path, HealStatus{
		Pattern:  "stale-lockfile",
		Healed:   true,
		Rollback: false,
	})

	// then
	assert.Nil(t, err)
	content, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "healed=true\nrollback=false\nerror=\npattern=stale-lockfile\n", string(content))
}
