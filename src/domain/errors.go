package domain

import "fmt"

// ConfigurationError marks a structural mistake in the engine
// configuration. It aborts the run; a partial decision is never worth
// acting on.
type ConfigurationError struct {
	// Scope names the configuration part, like "rule" or "job-group".
	Scope  string
	Name   string
	Reason string
}

func (self ConfigurationError) Error() string {
	if self.Name == "" {
		return fmt.Sprintf("invalid configuration: %s: %s", self.Scope, self.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s %q: %s", self.Scope, self.Name, self.Reason)
}

// InputError marks malformed caller input, like a non-relative path in
// a change set or a non-finite metric sample.
type InputError struct {
	Reason string
}

func (self InputError) Error() string {
	return "invalid input: " + self.Reason
}
