package domain

import (
	"github.com/umpire-ci/umpire/src/util"
)

// FailureReport is the structured summary of a failed CI step that the
// healing engine matches patterns against.
type FailureReport struct {
	Tool     string   `json:"tool"`
	ExitCode int      `json:"exit_code"`
	Lines    []string `json:"lines"`
}

func (self FailureReport) Validate() error {
	if self.Tool == "" {
		return InputError{Reason: "failure report has no tool name"}
	}
	return nil
}

// Value is the shape given to the pattern match expression.
func (self FailureReport) Value() map[string]any {
	lines := make([]any, len(self.Lines))
	for i, line := range self.Lines {
		lines[i] = line
	}
	return map[string]any{
		"tool":      self.Tool,
		"exit_code": self.ExitCode,
		"lines":     lines,
	}
}

// FixSpec is the remedy attached to a failure pattern: the commands to
// run, and the commands that undo them when application fails.
type FixSpec struct {
	Description string     `yaml:"description" json:"description"`
	Commands    [][]string `yaml:"commands" json:"commands"`
	Rollback    [][]string `yaml:"rollback" json:"rollback"`
}

// FailurePattern pairs a CUE match expression with a fix. A pattern
// applies when its expression unifies with the failure report value.
type FailurePattern struct {
	Name  string         `yaml:"name" json:"name"`
	Match util.CUEString `yaml:"match" json:"match"`
	Fix   FixSpec        `yaml:"fix" json:"fix"`
}

func (self FailurePattern) Validate() error {
	if self.Name == "" {
		return ConfigurationError{Scope: "pattern", Reason: "name must not be empty"}
	}
	if self.Match == "" {
		return ConfigurationError{Scope: "pattern", Name: self.Name, Reason: "match expression must not be empty"}
	}
	if value := self.Match.Value(nil, nil); value.Err() != nil {
		return ConfigurationError{Scope: "pattern", Name: self.Name, Reason: value.Err().Error()}
	}
	if len(self.Fix.Commands) == 0 {
		return ConfigurationError{Scope: "pattern", Name: self.Name, Reason: "fix must have at least one command"}
	}
	for _, argv := range append(append([][]string{}, self.Fix.Commands...), self.Fix.Rollback...) {
		if len(argv) == 0 {
			return ConfigurationError{Scope: "pattern", Name: self.Name, Reason: "fix command must not be empty"}
		}
	}
	return nil
}
