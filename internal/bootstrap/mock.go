// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"shed-cli/pkg/shedfile"
)

// MockToolchain implements Toolchain for testing. It records every call
// in order and keeps the end state visible: the last selected channel
// and the registered targets and components.
type MockToolchain struct {
	mu sync.Mutex

	available    bool
	channelErr   error
	targetErr    error
	componentErr error

	// DefaultChannel is the channel most recently selected.
	DefaultChannel shedfile.ChannelName
	// Targets and Components accumulate in registration order.
	Targets    []shedfile.TargetName
	Components []shedfile.ComponentName
	// Calls records every invocation as "verb value".
	Calls []string
}

var _ Toolchain = (*MockToolchain)(nil)

// NewMockToolchain creates an available MockToolchain where every call
// succeeds.
func NewMockToolchain() *MockToolchain {
	return &MockToolchain{available: true}
}

// WithAvailable sets whether the toolchain manager reports available.
func (m *MockToolchain) WithAvailable(available bool) *MockToolchain {
	m.available = available
	return m
}

// WithChannelError makes SetDefaultChannel fail.
func (m *MockToolchain) WithChannelError(err error) *MockToolchain {
	m.channelErr = err
	return m
}

// WithTargetError makes AddTarget fail.
func (m *MockToolchain) WithTargetError(err error) *MockToolchain {
	m.targetErr = err
	return m
}

// WithComponentError makes AddComponent fail.
func (m *MockToolchain) WithComponentError(err error) *MockToolchain {
	m.componentErr = err
	return m
}

// SetDefaultChannel records the call and selects the channel.
func (m *MockToolchain) SetDefaultChannel(_ context.Context, channel shedfile.ChannelName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("default %s", channel))
	if m.channelErr != nil {
		return m.channelErr
	}
	m.DefaultChannel = channel
	return nil
}

// AddTarget records the call and registers the target.
func (m *MockToolchain) AddTarget(_ context.Context, target shedfile.TargetName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("target add %s", target))
	if m.targetErr != nil {
		return m.targetErr
	}
	m.Targets = append(m.Targets, target)
	return nil
}

// AddComponent records the call and registers the component.
func (m *MockToolchain) AddComponent(_ context.Context, component shedfile.ComponentName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("component add %s", component))
	if m.componentErr != nil {
		return m.componentErr
	}
	m.Components = append(m.Components, component)
	return nil
}

// Available reports the configured availability.
func (m *MockToolchain) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// CallCount returns how many toolchain calls were made.
func (m *MockToolchain) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockInstaller implements Installer for testing. Every extension
// reports already-present unless overridden globally or per name.
type MockInstaller struct {
	mu sync.Mutex

	result  EnsureResult
	err     error
	perName map[shedfile.ExtensionName]mockEnsure

	// Extensions records every extension passed to EnsureInstalled.
	Extensions []shedfile.Extension
}

type mockEnsure struct {
	result EnsureResult
	err    error
}

var _ Installer = (*MockInstaller)(nil)

// NewMockInstaller creates a MockInstaller reporting already-present
// for every extension.
func NewMockInstaller() *MockInstaller {
	return &MockInstaller{
		result:  EnsureAlreadyPresent,
		perName: make(map[shedfile.ExtensionName]mockEnsure),
	}
}

// WithResult sets the default outcome for every extension.
func (m *MockInstaller) WithResult(result EnsureResult, err error) *MockInstaller {
	m.result = result
	m.err = err
	return m
}

// WithResultFor overrides the outcome for a single extension.
func (m *MockInstaller) WithResultFor(name shedfile.ExtensionName, result EnsureResult, err error) *MockInstaller {
	m.perName[name] = mockEnsure{result: result, err: err}
	return m
}

// EnsureInstalled records the extension and returns the scripted outcome.
func (m *MockInstaller) EnsureInstalled(_ context.Context, ext shedfile.Extension) (EnsureResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Extensions = append(m.Extensions, ext)
	if scripted, ok := m.perName[ext.Name]; ok {
		return scripted.result, scripted.err
	}
	return m.result, m.err
}

// CallCount returns how many extensions were ensured.
func (m *MockInstaller) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Extensions)
}
