// Package capture obtains the hardware capture device inventory by running
// arecord and handing its output to the inventory parser.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/logging"
)

// DefaultCommand lists capture hardware with `arecord -l`.
const DefaultCommand = "arecord"

const defaultTimeout = 10 * time.Second

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. On a non-zero exit the returned error is an
// *exec.ExitError carrying the command's standard error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Observer is notified about every listing attempt.
type Observer interface {
	ObserveScan(devices int, duration time.Duration, err error)
}

// Lister runs the capture hardware enumeration command.
type Lister struct {
	Runner   Runner
	Command  string
	Timeout  time.Duration
	Observer Observer
	logger   logging.Logger
}

// NewLister creates a Lister that runs arecord through os/exec.
func NewLister() *Lister {
	return &Lister{
		Runner:  ExecRunner{},
		Command: DefaultCommand,
		Timeout: defaultTimeout,
		logger:  logging.GetLogger("capture"),
	}
}

// List runs `<command> -l` and parses its output into capture devices.
func (l *Lister) List(ctx context.Context) ([]inventory.CaptureDevice, error) {
	start := time.Now()
	devices, err := l.list(ctx)
	elapsed := time.Since(start)

	if l.Observer != nil {
		l.Observer.ObserveScan(len(devices), elapsed, err)
	}

	logger := l.getLogger()
	if err != nil {
		logger.Warn("Capture device listing failed", "error", err, "duration", elapsed)
		return nil, err
	}
	logger.Debug("Capture devices listed", "count", len(devices), "duration", elapsed)
	return devices, nil
}

func (l *Lister) list(ctx context.Context) ([]inventory.CaptureDevice, error) {
	command := l.Command
	if command == "" {
		command = DefaultCommand
	}
	runner := l.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	out, err := runner.Run(ctx, command, "-l")
	if err != nil {
		return nil, classifyRunError(command, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, newError(ErrCodeEmptyOutput, command+" -l produced no output", nil)
	}

	devices, err := inventory.Parse(out)
	if err != nil {
		return nil, newError(ErrCodeParseFailed, "unrecognized "+command+" output", err)
	}
	return devices, nil
}

func classifyRunError(command string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return newError(ErrCodeToolNotFound, command+" not found, install alsa-utils", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("%s -l exited with status %d", command, exitErr.ExitCode())
		if stderr := strings.TrimSpace(string(exitErr.Stderr)); stderr != "" {
			msg += ": " + stderr
		}
		return newError(ErrCodeCommandFailed, msg, err)
	}

	return newError(ErrCodeCommandFailed, command+" -l could not be run", err)
}

func (l *Lister) getLogger() logging.Logger {
	if l.logger == nil {
		return logging.GetLogger("capture")
	}
	return l.logger
}
