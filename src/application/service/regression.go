package service

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/domain"
)

type RegressionService interface {
	Evaluate(domain.MetricSample, domain.BaselineSeries, domain.RegressionPolicy) (domain.RegressionVerdict, error)
}

type regressionService struct {
	logger zerolog.Logger
}

func NewRegressionService(logger *zerolog.Logger) RegressionService {
	return &regressionService{
		logger: logger.With().Str("component", "RegressionService").Logger(),
	}
}

// Evaluate judges a current sample against the trailing window of its
// baseline. Directionality comes from the metric declaration; a sample
// for an undeclared metric is a ConfigurationError. Baselines with
// fewer than two samples, or a zero mean, yield the insufficient-data
// verdict so absent history can never fail a build.
func (self *regressionService) Evaluate(sample domain.MetricSample, series domain.BaselineSeries, policy domain.RegressionPolicy) (domain.RegressionVerdict, error) {
	verdict := domain.RegressionVerdict{Metric: sample.Metric}

	spec, declared := policy.Spec(sample.Metric)
	if !declared {
		return verdict, domain.ConfigurationError{Scope: "metric", Name: sample.Metric, Reason: "not declared in regression policy"}
	}
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		return verdict, domain.InputError{Reason: "metric sample " + sample.Metric + " is not a finite number"}
	}

	window := series.Tail(policy.Window)
	verdict.BaselineSamples = len(window)

	if len(window) < 2 {
		verdict.Class = domain.VerdictInsufficientData
		return verdict, nil
	}

	mean, stddev := meanStddev(window)
	verdict.BaselineMean = mean
	verdict.BaselineStddev = stddev

	if mean == 0 {
		verdict.Class = domain.VerdictInsufficientData
		return verdict, nil
	}

	delta := (sample.Value - mean) / mean * 100
	verdict.DeltaPercent = delta

	adverse := delta
	if spec.Direction == domain.HigherIsBetter {
		adverse = -delta
	}

	switch {
	case math.Abs(delta) < policy.SignificanceFloor:
		verdict.Class = domain.VerdictStable
	case adverse > policy.ThresholdPercent:
		verdict.Class = domain.VerdictRegressed
		verdict.ExceedsThreshold = true
	case adverse < -policy.ThresholdPercent:
		verdict.Class = domain.VerdictImproved
		verdict.ExceedsThreshold = true
	default:
		verdict.Class = domain.VerdictStable
	}

	self.logger.Debug().
		Str("metric", sample.Metric).
		Float64("delta", delta).
		Int("samples", len(window)).
		Msg("Evaluated sample against baseline")

	return verdict, nil
}

// meanStddev is the arithmetic mean and sample standard deviation.
func meanStddev(series domain.BaselineSeries) (mean, stddev float64) {
	for _, sample := range series {
		mean += sample.Value
	}
	mean /= float64(len(series))

	if len(series) < 2 {
		return
	}
	var sum float64
	for _, sample := range series {
		diff := sample.Value - mean
		sum += diff * diff
	}
	stddev = math.Sqrt(sum / float64(len(series)-1))
	return
}
