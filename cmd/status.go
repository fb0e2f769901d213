package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/tyncan/internal/config"
	"github.com/smazurov/tyncan/internal/selector"
	"github.com/smazurov/tyncan/internal/version"
)

const statusTimeout = 5 * time.Second

// CreateStatusCmd creates the status command.
func CreateStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service and device status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()
			runStatus(ctx, app, cmd.OutOrStdout())
			return nil
		},
	}
}

// runStatus prints what it can; individual probes that fail are reported
// inline rather than aborting.
func runStatus(ctx context.Context, app *App, out io.Writer) {
	writef(out, "%s %s\n", selector.Title.Render(version.Name), version.Version)
	writeln(out, selector.Subtitle.Render(version.Subtitle))
	writeln(out)

	writeln(out, selector.Title.Render(version.Name+" Service Status"))
	writef(out, "  Unit:    %s (%s)\n", app.Unit, serviceState(ctx, app))

	devices, err := app.Lister.List(ctx)
	if err != nil {
		writef(out, "  Devices: %s\n", selector.Error.Render(err.Error()))
	} else {
		writef(out, "  Devices: %d capture device(s)\n", len(devices))
	}

	settings, err := config.LoadSettings(app.ConfigPath)
	switch {
	case err != nil:
		writef(out, "  Selected: %s\n", selector.Error.Render(err.Error()))
	case settings.Device == nil:
		writef(out, "  Selected: %s\n", selector.Warning.Render("none (run 'tyncan configure')"))
	default:
		writef(out, "  Selected: %s (%s)\n", settings.Device.ALSA, settings.Device.Description)
	}

	writeln(out)
	writeln(out, selector.Title.Render("Configuration"))
	writef(out, "  Port:      %s\n", app.Port)
	writef(out, "  Config:    %s\n", app.ConfigPath)
	writef(out, "  Log level: %s\n", app.LogLevel)
}

func serviceState(ctx context.Context, app *App) string {
	if app.Services == nil {
		return "unknown"
	}
	state, err := app.Services.GetServiceStatus(ctx, app.Unit)
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return state
}
