package service

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/umpire-ci/umpire/src/domain"
)

func testRegressionPolicy() domain.RegressionPolicy {
	return domain.RegressionPolicy{
		ThresholdPercent:  10,
		SignificanceFloor: 1,
		Window:            10,
		Metrics: []domain.MetricSpec{
			{Name: "benchmark_time_ms", Direction: domain.LowerIsBetter},
			{Name: "coverage_percent", Direction: domain.HigherIsBetter},
		},
	}
}

func series(values ...float64) domain.BaselineSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make(domain.BaselineSeries, 0, len(values))
	for i, value := range values {
		samples = append(samples, domain.MetricSample{
			Metric:    "benchmark_time_ms",
			Value:     value,
			CreatedAt: start.Add(time.Duration(i) * time.Hour),
		})
	}
	return samples
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	regressionService := NewRegressionService(&logger)

	tries := map[string]struct {
		sample   domain.MetricSample
		baseline domain.BaselineSeries
		callback func(*testing.T, domain.RegressionVerdict)
	}{
		"time above threshold regresses": {
			domain.MetricSample{Metric: "benchmark_time_ms", Value: 120},
			series(100, 100, 100),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictRegressed, verdict.Class)
				assert.InDelta(t, 20, verdict.DeltaPercent, 0.001)
				assert.True(t, verdict.ExceedsThreshold)
			},
		},
		"time below threshold improves": {
			domain.MetricSample{Metric: "benchmark_time_ms", Value: 80},
			series(100, 100, 100),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictImproved, verdict.Class)
				assert.True(t, verdict.ExceedsThreshold)
			},
		},
		"equal to mean is stable": {
			domain.MetricSample{Metric: "benchmark_time_ms", Value: 100},
			series(90, 100, 110),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictStable, verdict.Class)
				assert.Equal(t, 0.0, verdict.DeltaPercent)
			},
		},
		"below significance floor is stable": {
			domain.MetricSample{Metric: "benchmark_time_ms", Value: 100.5},
			series(100, 100, 100),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictStable, verdict.Class)
			},
		},
		"adverse but under threshold is stable": {
			domain.MetricSample{Metric: "benchmark_time_ms", Value: 105},
			series(100, 100, 100),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictStable, verdict.Class)
				assert.False(t, verdict.ExceedsThreshold)
			},
		},
		"coverage drop regresses": {
			domain.MetricSample{Metric: "coverage_percent", Value: 70},
			series(90, 90, 90),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictRegressed, verdict.Class)
				assert.Negative(t, verdict.DeltaPercent)
			},
		},
		"coverage rise improves": {
			domain.MetricSample{Metric: "coverage_percent", Value: 99},
			series(80, 80, 80),
			func(t *testing.T, verdict domain.RegressionVerdict) {
				assert.Equal(t, domain.VerdictImproved, verdict.Class)
			},
		},
	}

	for k, try := range tries {
		k := k
		try := try

		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when
			verdict, err := regressionService.Evaluate(try.sample, try.baseline, testRegressionPolicy())

			// then
			assert.Nil(t, err)
			try.callback(t, verdict)
		})
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	regressionService := NewRegressionService(&logger)

	tries := map[string]domain.BaselineSeries{
		"no samples": {},
		"one sample": series(100),
		"zero mean":  series(0, 0, 0),
	}

	for k, baseline := range tries {
		k := k
		baseline := baseline

		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when: the sample value must not matter
			verdict, err := regressionService.Evaluate(
				domain.MetricSample{Metric: "benchmark_time_ms", Value: 9999},
				baseline, testRegressionPolicy(),
			)

			// then
			assert.Nil(t, err)
			assert.Equal(t, domain.VerdictInsufficientData, verdict.Class)
			assert.False(t, verdict.ExceedsThreshold)
		})
	}
}

func TestEvaluateWindow(t *testing.T) {
	t.Parallel()

	// given: old outliers outside the window must not count
	logger := zerolog.New(io.Discard)
	regressionService := NewRegressionService(&logger)
	policy := testRegressionPolicy()
	policy.Window = 3
	baseline := series(1000, 1000, 100, 100, 100)

	// when
	verdict, err := regressionService.Evaluate(
		domain.MetricSample{Metric: "benchmark_time_ms", Value: 100},
		baseline, policy,
	)

	// then
	assert.Nil(t, err)
	assert.Equal(t, domain.VerdictStable, verdict.Class)
	assert.Equal(t, 100.0, verdict.BaselineMean)
	assert.Equal(t, 3, verdict.BaselineSamples)
}

func TestEvaluateUndeclaredMetric(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	regressionService := NewRegressionService(&logger)

	// when
	_, err := regressionService.Evaluate(
		domain.MetricSample{Metric: "mystery_metric", Value: 1},
		series(1, 2, 3), testRegressionPolicy(),
	)

	// then
	var configurationError domain.ConfigurationError
	assert.ErrorAs(t, err, &configurationError)
}

func TestEvaluateNonFiniteSample(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.New(io.Discard)
	regressionService := NewRegressionService(&logger)

	// when
	_, err := regressionService.Evaluate(
		domain.MetricSample{Metric: "benchmark_time_ms", Value: math.NaN()},
		series(1, 2, 3), testRegressionPolicy(),
	)

	// then
	var inputError domain.InputError
	assert.ErrorAs(t, err, &inputError)
}

func TestMeanStddev(t *testing.T) {
	t.Parallel()

	// when
	mean, stddev := meanStddev(series(2, 4, 4, 4, 5, 5, 7, 9))

	// then
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.138, stddev, 0.001)
}
