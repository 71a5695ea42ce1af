// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"strings"
	"sync"
)

// MockRunner implements Runner for testing. It records every spec it
// receives and replies with scripted results in order; once the script
// runs out, every call succeeds.
type MockRunner struct {
	mu sync.Mutex

	results []Result

	// Specs holds every spec passed to Run, in call order.
	Specs []Spec
}

var _ Runner = (*MockRunner)(nil)

// NewMockRunner creates a MockRunner that replies with the given
// results in order.
func NewMockRunner(results ...Result) *MockRunner {
	return &MockRunner{results: results}
}

// WithResults replaces the scripted results.
func (m *MockRunner) WithResults(results ...Result) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	return m
}

// Run records the spec and returns the next scripted result.
func (m *MockRunner) Run(_ context.Context, spec Spec) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Specs = append(m.Specs, spec)
	if len(m.results) == 0 {
		return Result{}
	}
	res := m.results[0]
	m.results = m.results[1:]
	return res
}

// CallCount returns how many specs have been run.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Specs)
}

// Commands renders each recorded spec as a single string (argv joined
// with spaces, or the script text), for order assertions.
func (m *MockRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmds := make([]string, len(m.Specs))
	for i, spec := range m.Specs {
		if len(spec.Argv) > 0 {
			cmds[i] = strings.Join(spec.Argv, " ")
		} else {
			cmds[i] = spec.Script
		}
	}
	return cmds
}
