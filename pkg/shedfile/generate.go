// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// GenerateCUE generates CUE text from a Shedfile struct.
// This is useful for creating shedfile.cue files programmatically
// (`shed init` templates).
func GenerateCUE(sf *Shedfile) string {
	var sb strings.Builder

	sb.WriteString("// Shedfile - declarative development shell\n")
	sb.WriteString("// Run 'shed enter' in this directory to provision and enter it.\n\n")

	fmt.Fprintf(&sb, "name: %q\n", sf.Name)
	if sf.Description != "" {
		fmt.Fprintf(&sb, "description: %q\n", sf.Description)
	}

	sb.WriteString("\nplatforms: [\n")
	for i := range sf.Platforms {
		generatePlatform(&sb, &sf.Platforms[i])
	}
	sb.WriteString("]\n")

	if sf.Toolchain != nil {
		sb.WriteString("\ntoolchain: {\n")
		fmt.Fprintf(&sb, "\tchannel: %q\n", sf.Toolchain.Channel)
		if len(sf.Toolchain.Targets) > 0 {
			sb.WriteString("\ttargets: [")
			for i, target := range sf.Toolchain.Targets {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%q", target)
			}
			sb.WriteString("]\n")
		}
		if len(sf.Toolchain.Components) > 0 {
			sb.WriteString("\tcomponents: [")
			for i, comp := range sf.Toolchain.Components {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%q", comp)
			}
			sb.WriteString("]\n")
		}
		sb.WriteString("}\n")
	}

	if len(sf.Extensions) > 0 {
		sb.WriteString("\nextensions: [\n")
		for i := range sf.Extensions {
			generateExtension(&sb, &sf.Extensions[i])
		}
		sb.WriteString("]\n")
	}

	if sf.Hooks != nil && sf.Hooks.OnEnter != "" {
		sb.WriteString("\nhooks: on_enter: ")
		generateScriptLiteral(&sb, sf.Hooks.OnEnter)
		sb.WriteString("\n")
	}

	generateEnvBlock(&sb, sf.Env)

	return sb.String()
}

// generatePlatform generates CUE for a single platform entry.
func generatePlatform(sb *strings.Builder, p *PlatformConfig) {
	sb.WriteString("\t{\n")
	fmt.Fprintf(sb, "\t\tname: %q\n", p.Name)
	if len(p.Libraries) > 0 {
		sb.WriteString("\t\tlibraries: [\n")
		for _, lib := range p.Libraries {
			fmt.Fprintf(sb, "\t\t\t%q,\n", lib)
		}
		sb.WriteString("\t\t]\n")
	}
	if len(p.Tools) > 0 {
		sb.WriteString("\t\ttools: [\n")
		for _, tool := range p.Tools {
			fmt.Fprintf(sb, "\t\t\t%q,\n", tool)
		}
		sb.WriteString("\t\t]\n")
	}
	sb.WriteString("\t},\n")
}

// generateExtension generates CUE for a single extension entry.
func generateExtension(sb *strings.Builder, ext *Extension) {
	sb.WriteString("\t{\n")
	fmt.Fprintf(sb, "\t\tname: %q\n", ext.Name)
	sb.WriteString("\t\tprobe: [")
	for i, arg := range ext.Probe {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%q", arg)
	}
	sb.WriteString("]\n")
	sb.WriteString("\t\tinstall: [")
	for i, arg := range ext.Install {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%q", arg)
	}
	sb.WriteString("]\n")
	sb.WriteString("\t},\n")
}

// generateScriptLiteral writes a script as a CUE string literal, using the
// multi-line form for scripts with newlines.
func generateScriptLiteral(sb *strings.Builder, script string) {
	if !strings.Contains(script, "\n") {
		fmt.Fprintf(sb, "%q", script)
		return
	}
	sb.WriteString("\"\"\"\n")
	for _, line := range strings.Split(strings.TrimSuffix(script, "\n"), "\n") {
		sb.WriteString("\t")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\t\"\"\"")
}

// generateEnvBlock generates a CUE env: {...} block.
// No-op when env is nil or has no files/vars.
func generateEnvBlock(sb *strings.Builder, env *EnvConfig) {
	if env == nil || (len(env.Files) == 0 && len(env.Vars) == 0) {
		return
	}
	sb.WriteString("\nenv: {\n")
	if len(env.Files) > 0 {
		sb.WriteString("\tfiles: [")
		for i, ef := range env.Files {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%q", ef)
		}
		sb.WriteString("]\n")
	}
	if len(env.Vars) > 0 {
		sb.WriteString("\tvars: {\n")
		for _, k := range slices.Sorted(maps.Keys(env.Vars)) {
			fmt.Fprintf(sb, "\t\t%s: %q\n", k, env.Vars[k])
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")
}
