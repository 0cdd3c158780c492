package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeSetValidate(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		changes ChangeSet
		valid   bool
	}{
		"relative paths": {ChangeSet{"README.md", "src/app.go"}, true},
		"empty set":      {ChangeSet{}, true},
		"empty entry":    {ChangeSet{""}, false},
		"absolute path":  {ChangeSet{"/etc/passwd"}, false},
		"backslashes":    {ChangeSet{`src\app.go`}, false},
	}

	for k, try := range tries {
		k := k
		try := try

		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when
			err := try.changes.Validate()

			// then
			if try.valid {
				assert.Nil(t, err)
			} else {
				var inputError InputError
				assert.ErrorAs(t, err, &inputError)
			}
		})
	}
}

func TestBaselineSeriesTail(t *testing.T) {
	t.Parallel()

	// given
	series := BaselineSeries{
		{Metric: "m", Value: 1},
		{Metric: "m", Value: 2},
		{Metric: "m", Value: 3},
	}

	// then
	assert.Len(t, series.Tail(2), 2)
	assert.Equal(t, 2.0, series.Tail(2)[0].Value)
	assert.Equal(t, series, series.Tail(5))
	assert.Equal(t, series, series.Tail(0))
}

func TestExecutionPlanSkipped(t *testing.T) {
	t.Parallel()

	// given
	plan := ExecutionPlan{JobGroups: map[string]JobAction{
		"tests":    JobActionSkip,
		"build":    JobActionRun,
		"security": JobActionSkip,
	}}

	// then: sorted for stable output
	assert.Equal(t, []string{"security", "tests"}, plan.Skipped())
}

func TestJobActionJson(t *testing.T) {
	t.Parallel()

	// when
	marshaled, err := json.Marshal(map[string]JobAction{"tests": JobActionSkip})

	// then
	assert.NoError(t, err)
	assert.JSONEq(t, `{"tests": "skip"}`, string(marshaled))

	// when
	var unmarshaled map[string]JobAction
	err = json.Unmarshal(marshaled, &unmarshaled)

	// then
	assert.NoError(t, err)
	assert.Equal(t, JobActionSkip, unmarshaled["tests"])

	// when
	err = json.Unmarshal([]byte(`{"tests": "maybe"}`), &unmarshaled)

	// then
	assert.Error(t, err)
}

func TestVerdictClassJson(t *testing.T) {
	t.Parallel()

	// when
	marshaled, err := json.Marshal(VerdictInsufficientData)

	// then
	assert.NoError(t, err)
	assert.Equal(t, `"insufficient-data"`, string(marshaled))

	// when
	var unmarshaled VerdictClass
	err = json.Unmarshal(marshaled, &unmarshaled)

	// then
	assert.NoError(t, err)
	assert.Equal(t, VerdictInsufficientData, unmarshaled)
}
