package theme

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	reloadTimeout = 30 * time.Second

	liveReloadOutput = "Live reload (automatic)"
	timedOutOutput   = "Reload command timed out"
)

// CommandRunner runs a shell command line.
type CommandRunner interface {
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
}

// ShellRunner runs commands through sh -c.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Reload commands may background a process that inherits the pipes.
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// reload waits out the app's delay and runs its reload command. A command
// that exits non-zero still counts as reloaded; its output is reported.
func (a *Applier) reload(ctx context.Context, app App) (bool, string) {
	logger := a.logger.With("topic", "reload", "app", app.Name)

	if err := a.sleep(ctx, app.ReloadDelay); err != nil {
		return false, err.Error()
	}
	if app.ReloadCommand == "" {
		logger.Info("applied with live reload")
		return true, liveReloadOutput
	}

	rctx, cancel := context.WithTimeout(ctx, a.reloadTimeout)
	defer cancel()
	stdout, stderr, err := a.runner.Run(rctx, app.ReloadCommand)
	if errors.Is(rctx.Err(), context.DeadlineExceeded) {
		logger.Warn("reload command timed out", "command", app.ReloadCommand)
		return false, timedOutOutput
	}

	output := strings.TrimSpace(stdout)
	if output == "" {
		output = strings.TrimSpace(stderr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logger.Info("reloaded", "command", app.ReloadCommand)
	case errors.As(err, &exitErr):
		logger.Info("reloaded", "command", app.ReloadCommand, "exit_code", exitErr.ExitCode())
	default:
		logger.Error("reload failed", "command", app.ReloadCommand, "err", err)
		return false, err.Error()
	}
	return true, output
}
