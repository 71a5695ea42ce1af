// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"shed-cli/internal/config"
	"shed-cli/internal/core/serverbase"
	"shed-cli/internal/testutil"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

type (
	// Token represents an authentication token for a shared session.
	Token struct {
		Value     TokenValue
		CreatedAt time.Time
		ExpiresAt time.Time
		SessionID string
	}

	// Server shares a provisioned environment over loopback SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		*serverbase.Base

		// Immutable configuration (set at creation, never modified)
		cfg Config

		// Initialized during Start() - protected by srvMu for writes
		srvMu    sync.Mutex
		srv      *ssh.Server
		listener serverListener
		addr     string // Actual bound address (including resolved port)

		// Token management
		tokens  map[TokenValue]*Token
		tokenMu sync.RWMutex

		// Clock abstraction for token expiry (FakeClock in tests)
		clock testutil.Clock

		// Logger
		logger *log.Logger
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host HostAddress
		// Port is the port to listen on (0 = auto-select)
		Port ListenPort
		// TokenTTL is how long tokens are valid (default: 1 hour)
		TokenTTL time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s)
		ShutdownTimeout time.Duration
		// DefaultShell is the shell served to interactive sessions (default: /bin/sh)
		DefaultShell config.ShellPath
		// StartupTimeout is the max time to wait for server to be ready (default: 5s)
		StartupTimeout time.Duration
		// Env is the session environment handed to every served shell and
		// command. When nil, the server's own process environment is used.
		Env []string
		// Dir is the working directory for served processes.
		// Empty means the server's own working directory.
		Dir string
	}

	// ConnectionInfo contains everything a client needs to connect.
	ConnectionInfo struct {
		Host     string
		Port     int
		Token    TokenValue
		User     string
		ExpireAt time.Time
	}
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		TokenTTL:        time.Hour,
		ShutdownTimeout: 10 * time.Second,
		DefaultShell:    "/bin/sh",
		StartupTimeout:  5 * time.Second,
	}
}

// New creates a new SSH server instance using the system clock.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config) *Server {
	return NewWithClock(cfg, testutil.RealClock{})
}

// NewWithClock creates a new SSH server instance with an injected clock.
// Tests use this with a testutil.FakeClock to control token expiry.
func NewWithClock(cfg Config, clock testutil.Clock) *Server {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = "/bin/sh"
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "ssh-server",
	})

	return &Server{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		tokens: make(map[TokenValue]*Token),
		clock:  clock,
		logger: logger,
	}
}

// sessionMiddleware dispatches each SSH session to an interactive shell
// or a single command, depending on what the client requested.
func (s *Server) sessionMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			cmd := sess.Command()

			if len(cmd) == 0 {
				// Interactive shell session
				s.runInteractiveShell(sess)
			} else {
				// Execute command directly
				s.runCommand(sess, cmd)
			}
		}
	}
}

// sessionEnv builds the environment for a served process: the configured
// session environment first, then client-sent variables (TERM, LANG, and
// friends) so terminal settings survive the hop.
func (s *Server) sessionEnv(sess ssh.Session) []string {
	base := s.cfg.Env
	if base == nil {
		base = os.Environ()
	}
	return append(slices.Clone(base), sess.Environ()...)
}

// runInteractiveShell starts an interactive shell session.
func (s *Server) runInteractiveShell(sess ssh.Session) {
	shell := string(s.cfg.DefaultShell)

	cmd := exec.CommandContext(sess.Context(), shell)
	cmd.Env = s.sessionEnv(sess)
	cmd.Dir = s.cfg.Dir

	ptyReq, winCh, isPty := sess.Pty()
	if isPty {
		cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))
	}

	// Start the command with a pseudo-terminal
	f, err := startPty(cmd)
	if err != nil {
		_, _ = fmt.Fprintf(sess.Stderr(), "Error starting shell: %v\n", err)
		_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
		return
	}
	defer func() { _ = f.Close() }() // PTY cleanup; error non-critical

	// Handle window size changes
	go func() {
		for win := range winCh {
			setWinsize(f, win.Width, win.Height)
		}
	}()

	// Copy I/O
	go func() {
		_, _ = copyBuffer(f, sess) //nolint:errcheck // I/O copy; errors are non-recoverable
	}()
	_, _ = copyBuffer(sess, f) //nolint:errcheck // I/O copy; errors are non-recoverable

	// Wait for command to complete
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			_ = sess.Exit(exitErr.ExitCode()) //nolint:errcheck // Terminal operation; error non-critical
			return
		}
	}
	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

// runCommand executes a single command inside the session environment.
func (s *Server) runCommand(sess ssh.Session, args []string) {
	var cmd *exec.Cmd
	if len(args) == 1 {
		cmd = exec.CommandContext(sess.Context(), string(s.cfg.DefaultShell), "-c", args[0])
	} else {
		cmd = exec.CommandContext(sess.Context(), args[0], args[1:]...)
	}

	cmd.Env = s.sessionEnv(sess)
	cmd.Dir = s.cfg.Dir
	cmd.Stdin = sess
	cmd.Stdout = sess
	cmd.Stderr = sess.Stderr()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			_ = sess.Exit(exitErr.ExitCode()) //nolint:errcheck // Terminal operation; error non-critical
			return
		}
		_, _ = fmt.Fprintf(sess.Stderr(), "Error: %v\n", err)
		_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
		return
	}
	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *netOpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
