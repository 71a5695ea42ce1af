// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	"fmt"
	"strings"
)

type (
	// Shedfile is the root of a parsed manifest. One shedfile describes one
	// development shell: what it needs per platform, how the toolchain is
	// bootstrapped, and what runs on entry. Nothing here is mutated after
	// parsing.
	Shedfile struct {
		// Name identifies the environment ("scriptdeck").
		Name string `json:"name"`
		// Description provides optional help text shown by `shed resolve`.
		Description DescriptionText `json:"description,omitempty"`
		// Platforms lists the per-platform dependency sets. At least one
		// entry is required; the entry matching the session platform is the
		// only one consulted.
		Platforms []PlatformConfig `json:"platforms"`
		// Toolchain configures the toolchain-manager bootstrap. Optional;
		// when absent the channel/target/component actions are skipped.
		Toolchain *ToolchainConfig `json:"toolchain,omitempty"`
		// Extensions lists auxiliary CLIs ensured via probe-then-install.
		Extensions []Extension `json:"extensions,omitempty"`
		// Hooks are scripts run at session entry.
		Hooks *Hooks `json:"hooks,omitempty"`
		// Env configures extra environment variables for the session.
		Env *EnvConfig `json:"env,omitempty"`

		// FilePath is where this shedfile was loaded from.
		// Set by Parse, not by the manifest itself.
		FilePath FilesystemPath `json:"-"`
	}

	// PlatformConfig declares the dependency lists for one platform.
	// Order within each list is preserved through resolution; duplicates
	// are tolerated and collapsed at resolve time.
	PlatformConfig struct {
		// Name is the opaque platform identifier ("x86_64-linux").
		Name PlatformID `json:"name"`
		// Libraries are shared libraries needed on the linker search path.
		Libraries []PackageName `json:"libraries,omitempty"`
		// Tools are command-line programs needed on PATH.
		Tools []PackageName `json:"tools,omitempty"`
	}

	// ToolchainConfig describes the idempotent toolchain bootstrap: which
	// release channel becomes the default and which targets and components
	// are registered. Every underlying toolchain-manager operation is
	// expected to be a no-op when already applied.
	ToolchainConfig struct {
		// Channel is selected as the default toolchain.
		Channel ChannelName `json:"channel"`
		// Targets are additional compilation targets to register.
		Targets []TargetName `json:"targets,omitempty"`
		// Components are editor/tooling components to register.
		Components []ComponentName `json:"components,omitempty"`
	}

	// Extension describes an auxiliary CLI ensured at bootstrap via the
	// probe-then-install pattern: Probe succeeding means already installed,
	// Probe failing triggers Install.
	Extension struct {
		// Name identifies the extension ("tauri-cli").
		Name ExtensionName `json:"name"`
		// Probe is the argv whose zero exit status means "present".
		// Its output is discarded on both streams.
		Probe []string `json:"probe"`
		// Install is the argv run when the probe fails.
		Install []string `json:"install"`
	}

	// Hooks are scripts run inside the provisioned environment.
	Hooks struct {
		// OnEnter runs after bootstrap, before the interactive shell.
		// Executed by the embedded shell interpreter so behavior does not
		// depend on the host's /bin/sh.
		OnEnter string `json:"on_enter,omitempty"`
	}

	// EnvConfig configures extra session environment variables.
	EnvConfig struct {
		// Files lists dotenv files loaded relative to the shedfile.
		// A trailing '?' marks a file as optional.
		Files []EnvFilePath `json:"files,omitempty"`
		// Vars are set verbatim, after Files (so Vars win).
		Vars map[string]string `json:"vars,omitempty"`
	}

	// ValidationError is a single cross-field validation issue.
	ValidationError struct {
		// Field locates the issue ("platforms[0].libraries[2]").
		Field string
		// Message is the human-readable description.
		Message string
	}

	// ValidationErrors aggregates all issues from one validation pass and
	// implements the error interface so Parse can return it directly.
	ValidationErrors []ValidationError
)

// PlatformFor returns the PlatformConfig whose name matches id, or false
// when the manifest does not declare the platform. Matching is exact; the
// caller is responsible for canonicalizing the identifier first.
func (s *Shedfile) PlatformFor(id PlatformID) (*PlatformConfig, bool) {
	for i := range s.Platforms {
		if s.Platforms[i].Name == id {
			return &s.Platforms[i], true
		}
	}
	return nil, false
}

// SupportedPlatforms returns the declared platform identifiers in manifest
// order.
func (s *Shedfile) SupportedPlatforms() []PlatformID {
	ids := make([]PlatformID, len(s.Platforms))
	for i := range s.Platforms {
		ids[i] = s.Platforms[i].Name
	}
	return ids
}

// Validate performs the cross-field checks the CUE schema cannot express
// and returns all issues found. An empty result means the manifest is
// ready for resolution.
func (s *Shedfile) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "must be non-empty"})
	}
	if valid, fieldErrs := s.Description.IsValid(); !valid {
		errs = append(errs, ValidationError{Field: "description", Message: fieldErrs[0].Error()})
	}

	if len(s.Platforms) == 0 {
		errs = append(errs, ValidationError{Field: "platforms", Message: "at least one platform is required"})
	}
	seen := make(map[PlatformID]bool, len(s.Platforms))
	for i := range s.Platforms {
		p := &s.Platforms[i]
		field := fmt.Sprintf("platforms[%d]", i)
		if valid, fieldErrs := p.Name.IsValid(); !valid {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fieldErrs[0].Error()})
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate platform %q", p.Name)})
		}
		seen[p.Name] = true
		for j, lib := range p.Libraries {
			if valid, fieldErrs := lib.IsValid(); !valid {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.libraries[%d]", field, j), Message: fieldErrs[0].Error()})
			}
		}
		for j, tool := range p.Tools {
			if valid, fieldErrs := tool.IsValid(); !valid {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.tools[%d]", field, j), Message: fieldErrs[0].Error()})
			}
		}
	}

	if s.Toolchain != nil {
		if valid, fieldErrs := s.Toolchain.Channel.IsValid(); !valid {
			errs = append(errs, ValidationError{Field: "toolchain.channel", Message: fieldErrs[0].Error()})
		}
		for i, target := range s.Toolchain.Targets {
			if valid, fieldErrs := target.IsValid(); !valid {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("toolchain.targets[%d]", i), Message: fieldErrs[0].Error()})
			}
		}
		for i, comp := range s.Toolchain.Components {
			if valid, fieldErrs := comp.IsValid(); !valid {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("toolchain.components[%d]", i), Message: fieldErrs[0].Error()})
			}
		}
	}

	for i := range s.Extensions {
		ext := &s.Extensions[i]
		field := fmt.Sprintf("extensions[%d]", i)
		if valid, fieldErrs := ext.Name.IsValid(); !valid {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fieldErrs[0].Error()})
		}
		if len(ext.Probe) == 0 {
			errs = append(errs, ValidationError{Field: field + ".probe", Message: "probe argv must be non-empty"})
		}
		if len(ext.Install) == 0 {
			errs = append(errs, ValidationError{Field: field + ".install", Message: "install argv must be non-empty"})
		}
	}

	if s.Env != nil {
		for i, envFile := range s.Env.Files {
			if valid, fieldErrs := envFile.IsValid(); !valid {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("env.files[%d]", i), Message: fieldErrs[0].Error()})
			}
		}
	}

	return errs
}

// Error implements the error interface for ValidationErrors.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "no validation errors"
	}
	lines := make([]string, len(v))
	for i, e := range v {
		lines[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("shedfile validation failed:\n  %s", strings.Join(lines, "\n  "))
}
