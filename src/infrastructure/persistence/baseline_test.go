package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"github.com/umpire-ci/umpire/src/config/mocks"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

func TestShouldGetBaselineSeries(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	// given
	mock, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error %q was not expected when opening a stub database connection", err)
	}
	defer mock.Close(context.Background())
	rows := mock.NewRows([]string{"metric", "value", "created_at"}).
		AddRow("benchmark_time_ms", 98.5, now.Add(-time.Hour)).
		AddRow("benchmark_time_ms", 101.0, now)
	mock.ExpectQuery("SELECT(.*)").WithArgs("benchmark_time_ms", 10).WillReturnRows(rows)
	baselineRepository := NewBaselineRepository(mock)

	// when
	series, err := baselineRepository.GetSeries("benchmark_time_ms", 10)

	// then
	assert.Nil(t, err)
	if assert.Len(t, series, 2) {
		assert.Equal(t, 98.5, series[0].Value)
		assert.Equal(t, 101.0, series[1].Value)
	}
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestShouldGetBaselinePage(t *testing.T) {
	t.Skip("pgxmock does not support SendBatch()", "https://github.com/pashagolub/pgxmock/issues/52")

	t.Parallel()

	page := repository.Page{
		Limit:  1,
		Offset: 0,
	}

	// given
	mock, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error %q was not expected when opening a stub database connection", err)
	}
	defer mock.Close(context.Background())
	rows := mock.NewRows([]string{"metric", "value", "created_at"}).AddRow("benchmark_time_ms", 98.5, time.Now().UTC())
	mock.ExpectQuery("SELECT(.*)").WithArgs("benchmark_time_ms", page.Limit, page.Offset).WillReturnRows(rows)
	baselineRepository := NewBaselineRepository(mock)

	// when
	samples, err := baselineRepository.GetPage("benchmark_time_ms", &page)

	// then
	assert.Nil(t, err)
	assert.Len(t, samples, 1)
}

func TestShouldSaveBaselineSample(t *testing.T) {
	t.Parallel()

	sample := domain.MetricSample{
		Metric:    "benchmark_time_ms",
		Value:     101.0,
		CreatedAt: time.Now().UTC(),
	}

	// given
	mock, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error %q was not expected when opening a stub database connection", err)
	}
	defer mock.Close(context.Background())
	mock.ExpectExec("INSERT INTO baseline_sample").
		WithArgs(sample.Metric, sample.Value, sample.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	baselineRepository := NewBaselineRepository(mock)

	// when
	err = baselineRepository.Save(&sample)

	// then
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestShouldSaveBaselineSampleInTransaction(t *testing.T) {
	t.Parallel()

	sample := domain.MetricSample{
		Metric:    "benchmark_time_ms",
		Value:     101.0,
		CreatedAt: time.Now().UTC(),
	}

	// given
	mock, tx := mocks.BuildTransaction(context.Background(), t)
	mock.ExpectExec("INSERT INTO baseline_sample").
		WithArgs(sample.Metric, sample.Value, sample.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	baselineRepository := NewBaselineRepository(mock).WithQuerier(tx)

	// when
	err := baselineRepository.Save(&sample)

	// then
	assert.Nil(t, err)
}

func TestShouldPruneBaselineSeries(t *testing.T) {
	t.Parallel()

	// given
	mock, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error %q was not expected when opening a stub database connection", err)
	}
	defer mock.Close(context.Background())
	mock.ExpectExec("DELETE FROM baseline_sample").
		WithArgs("benchmark_time_ms", 100).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	baselineRepository := NewBaselineRepository(mock)

	// when
	err = baselineRepository.Prune("benchmark_time_ms", 100)

	// then
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}
