package client

import (
	"context"
	"fmt"
	"os/exec"
)

// Launcher starts an external command without waiting for it
type Launcher interface {
	Launch(ctx context.Context) error
	IsConfigured() bool
}

// CommandLauncher runs a fixed command such as "systemctl reboot"
type CommandLauncher struct {
	command string
	args    []string
}

// NewCommandLauncher creates a launcher for command and args
func NewCommandLauncher(command string, args ...string) *CommandLauncher {
	return &CommandLauncher{command: command, args: args}
}

// Launch starts the command and releases it; the exit status is not observed
func (l *CommandLauncher) Launch(ctx context.Context) error {
	if l.command == "" {
		return fmt.Errorf("launcher command is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Not bound to ctx: the command must outlive the request that asked for it.
	cmd := exec.Command(l.command, l.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	return cmd.Process.Release()
}

// IsConfigured reports whether a command is set
func (l *CommandLauncher) IsConfigured() bool {
	return l.command != ""
}

// String returns the command line
func (l *CommandLauncher) String() string {
	s := l.command
	for _, a := range l.args {
		s += " " + a
	}
	return s
}
