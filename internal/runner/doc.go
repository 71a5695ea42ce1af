// SPDX-License-Identifier: MPL-2.0

// Package runner executes the commands a session needs: toolchain
// bootstrap actions, extension probes and installs, on-enter hooks, and
// the final interactive handover. Everything goes through the Runner
// interface, so tests substitute a recording double and assert on the
// exact commands a flow would have run.
//
// ExecRunner spawns real processes via os/exec. ShellRunner evaluates
// scripts with an embedded POSIX interpreter, so hook behavior does not
// depend on whichever shell the host happens to have.
package runner
