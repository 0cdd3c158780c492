package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// ChangeSet is the ordered list of repository-root-relative paths
// touched by a proposed change. It is never mutated after construction.
type ChangeSet []string

func (self ChangeSet) Validate() error {
	for i, path := range self {
		switch {
		case path == "":
			return InputError{Reason: fmt.Sprintf("change set entry %d is empty", i)}
		case strings.HasPrefix(path, "/"):
			return InputError{Reason: fmt.Sprintf("change set entry %q is not repository-relative", path)}
		case strings.Contains(path, "\\"):
			return InputError{Reason: fmt.Sprintf("change set entry %q must use forward slashes", path)}
		}
	}
	return nil
}

// CategoryUnclassified is the implicit category for files that match no rule.
// It is treated conservatively: its presence disables every skip.
const CategoryUnclassified = "unclassified"

// ClassificationResult attributes every file of a ChangeSet
// to at least one category.
type ClassificationResult struct {
	// Matched holds one entry per known category, including CategoryUnclassified.
	// Files keep change set order.
	Matched map[string][]string `json:"matched"`
}

func (self ClassificationResult) Empty() bool {
	for _, files := range self.Matched {
		if len(files) > 0 {
			return false
		}
	}
	return true
}

// Categories returns the names of all categories with at least one file, sorted.
func (self ClassificationResult) Categories() []string {
	categories := make([]string, 0, len(self.Matched))
	for category, files := range self.Matched {
		if len(files) > 0 {
			categories = append(categories, category)
		}
	}
	slices.Sort(categories)
	return categories
}

func (self ClassificationResult) HasUnclassified() bool {
	return len(self.Matched[CategoryUnclassified]) > 0
}

type JobAction uint

const (
	JobActionRun JobAction = iota
	JobActionSkip
)

func (self *JobAction) String() (string, error) {
	switch *self {
	case JobActionRun:
		return "run", nil
	case JobActionSkip:
		return "skip", nil
	default:
		return "", fmt.Errorf("Unknown value %d", *self)
	}
}

func (self *JobAction) FromString(str string) error {
	switch str {
	case "run":
		*self = JobActionRun
	case "skip":
		*self = JobActionSkip
	default:
		return fmt.Errorf("Unknown value %q", str)
	}
	return nil
}

func (self *JobAction) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return self.FromString(str)
}

func (self JobAction) MarshalJSON() ([]byte, error) {
	if str, err := self.String(); err != nil {
		return nil, err
	} else {
		return json.Marshal(str)
	}
}

// ExecutionPlan is the run/skip decision per job-group plus the
// optimization score, the percentage of job-groups skipped
// rounded to one decimal.
type ExecutionPlan struct {
	JobGroups map[string]JobAction `json:"job_groups"`
	Score     float64              `json:"optimization_score"`
}

func (self ExecutionPlan) Skipped() []string {
	skipped := make([]string, 0, len(self.JobGroups))
	for name, action := range self.JobGroups {
		if action == JobActionSkip {
			skipped = append(skipped, name)
		}
	}
	slices.Sort(skipped)
	return skipped
}

type MetricDirection uint

const (
	// LowerIsBetter marks metrics like execution time where a
	// positive delta against baseline is a regression.
	LowerIsBetter MetricDirection = iota
	// HigherIsBetter marks metrics like coverage where a
	// negative delta against baseline is a regression.
	HigherIsBetter
)

func (self *MetricDirection) String() (string, error) {
	switch *self {
	case LowerIsBetter:
		return "lower_is_better", nil
	case HigherIsBetter:
		return "higher_is_better", nil
	default:
		return "", fmt.Errorf("Unknown value %d", *self)
	}
}

func (self *MetricDirection) FromString(str string) error {
	switch str {
	case "lower_is_better":
		*self = LowerIsBetter
	case "higher_is_better":
		*self = HigherIsBetter
	default:
		return fmt.Errorf("Unknown value %q", str)
	}
	return nil
}

func (self *MetricDirection) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return self.FromString(str)
}

func (self MetricDirection) MarshalJSON() ([]byte, error) {
	if str, err := self.String(); err != nil {
		return nil, err
	} else {
		return json.Marshal(str)
	}
}

func (self *MetricDirection) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	return self.FromString(str)
}

// MetricSample is one observation of a named metric.
type MetricSample struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BaselineSeries is the historical samples of one metric,
// ordered by time ascending. It is append-only and owned by
// the persistence collaborator, never cached across runs.
type BaselineSeries []MetricSample

// Tail returns the last n samples, or all of them if fewer exist.
func (self BaselineSeries) Tail(n int) BaselineSeries {
	if n <= 0 || len(self) <= n {
		return self
	}
	return self[len(self)-n:]
}

type VerdictClass uint

const (
	VerdictStable VerdictClass = iota
	VerdictImproved
	VerdictRegressed
	// VerdictInsufficientData is returned for baselines with fewer
	// than two samples. It must never block a build.
	VerdictInsufficientData
)

func (self *VerdictClass) String() (string, error) {
	switch *self {
	case VerdictStable:
		return "stable", nil
	case VerdictImproved:
		return "improved", nil
	case VerdictRegressed:
		return "regressed", nil
	case VerdictInsufficientData:
		return "insufficient-data", nil
	default:
		return "", fmt.Errorf("Unknown value %d", *self)
	}
}

func (self *VerdictClass) FromString(str string) error {
	switch str {
	case "stable":
		*self = VerdictStable
	case "improved":
		*self = VerdictImproved
	case "regressed":
		*self = VerdictRegressed
	case "insufficient-data":
		*self = VerdictInsufficientData
	default:
		return fmt.Errorf("Unknown value %q", str)
	}
	return nil
}

func (self *VerdictClass) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return self.FromString(str)
}

func (self VerdictClass) MarshalJSON() ([]byte, error) {
	if str, err := self.String(); err != nil {
		return nil, err
	} else {
		return json.Marshal(str)
	}
}

// RegressionVerdict is the judgement of one current sample
// against its baseline.
type RegressionVerdict struct {
	Metric           string       `json:"metric"`
	Class            VerdictClass `json:"classification"`
	DeltaPercent     float64      `json:"delta_percent"`
	BaselineMean     float64      `json:"baseline_mean"`
	BaselineStddev   float64      `json:"baseline_stddev"`
	BaselineSamples  int          `json:"baseline_samples"`
	ExceedsThreshold bool         `json:"exceeds_threshold"`
}

// Decision is one complete run of the engine: classification,
// plan, and regression verdicts for a change set.
type Decision struct {
	ID             uuid.UUID            `json:"id"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	ChangeSet      ChangeSet            `json:"change_set" db:"change_set"`
	Classification ClassificationResult `json:"classification"`
	Plan           ExecutionPlan        `json:"plan"`
	Verdicts       []RegressionVerdict  `json:"verdicts"`
}

// Summary flattens a Decision into the key/value pairs
// posted to notification sinks.
func (self Decision) Summary() map[string]any {
	verdicts := make(map[string]string, len(self.Verdicts))
	for _, verdict := range self.Verdicts {
		verdict := verdict
		if str, err := verdict.Class.String(); err == nil {
			verdicts[verdict.Metric] = str
		}
	}
	return map[string]any{
		"id":                 self.ID.String(),
		"created_at":         self.CreatedAt,
		"changed_files":      len(self.ChangeSet),
		"categories":         self.Classification.Categories(),
		"skipped":            self.Plan.Skipped(),
		"optimization_score": self.Plan.Score,
		"verdicts":           verdicts,
	}
}

// Regressed reports whether any verdict exceeds its threshold
// in the adverse direction.
func (self Decision) Regressed() bool {
	return slices.ContainsFunc(self.Verdicts, func(verdict RegressionVerdict) bool {
		return verdict.Class == VerdictRegressed
	})
}
