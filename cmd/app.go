// Package cmd holds the tyncan subcommands. Each constructor takes the shared
// App, which main fills in after flags and configuration are resolved.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/smazurov/tyncan/internal/capture"
	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/packages"
	"github.com/smazurov/tyncan/internal/selector"
	"github.com/smazurov/tyncan/internal/systemd"
)

// ServiceStatusGetter reads the state of a systemd unit.
type ServiceStatusGetter interface {
	GetServiceStatus(ctx context.Context, serviceName string) (string, error)
}

// App carries resolved configuration and collaborators into subcommands.
type App struct {
	ConfigPath string
	Port       string
	LogLevel   string
	Unit       string

	Lister    *capture.Lister
	Package   packages.Package
	Fetcher   *packages.Fetcher
	Installer *packages.Installer

	// Interactive prompts; replaced in tests.
	Select  func([]inventory.CaptureDevice) (inventory.CaptureDevice, error)
	Confirm func(prompt string, def bool) (bool, error)

	// Services reads the unit state; nil reports "unknown".
	Services ServiceStatusGetter
}

// NewApp returns an App wired to the real tools.
func NewApp() *App {
	return &App{
		Unit:      systemd.DefaultUnit,
		Lister:    capture.NewLister(),
		Package:   packages.DarkIce,
		Fetcher:   packages.NewFetcher(),
		Installer: packages.NewInstaller(),
		Select: func(devs []inventory.CaptureDevice) (inventory.CaptureDevice, error) {
			return selector.Select(devs)
		},
		Confirm: func(prompt string, def bool) (bool, error) {
			return selector.Confirm(prompt, def)
		},
		Services: systemd.Client{Scope: systemd.System},
	}
}

func writeln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func writef(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
