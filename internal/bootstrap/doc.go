// SPDX-License-Identifier: MPL-2.0

// Package bootstrap prepares the toolchain side of a session: selecting
// the default channel, registering compilation targets and editor
// components, and ensuring auxiliary CLI extensions are installed.
// Every underlying command is idempotent, so re-entering an environment
// converges instead of accumulating state. The sequence is fail-fast:
// the first failing action aborts and later actions never run.
package bootstrap
