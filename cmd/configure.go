package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/tyncan/internal/config"
	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/selector"
	"github.com/smazurov/tyncan/internal/version"
)

type configureOptions struct {
	auto         bool
	skipDownload bool
	install      bool
	downloadDir  string
}

// CreateConfigureCmd creates the configure command.
func CreateConfigureCmd(app *App) *cobra.Command {
	var opts configureOptions

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Prepare this node and choose a capture device",
		Long: `Checks and downloads the DarkIce package, scans for audio capture devices, ` +
			`lets you pick one and saves the choice to the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigure(cmd.Context(), app, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.auto, "auto", false, "Select the first device without prompting")
	cmd.Flags().BoolVar(&opts.skipDownload, "skip-download", false, "Skip the DarkIce link check and download")
	cmd.Flags().BoolVar(&opts.install, "install", false, "Install the downloaded package with dpkg")
	cmd.Flags().StringVar(&opts.downloadDir, "download-dir", ".", "Directory to download packages into")
	return cmd
}

func runConfigure(ctx context.Context, app *App, opts configureOptions, out io.Writer) error {
	writeln(out, selector.Banner.Render(version.Name+" Audio Device Configuration"))
	writeln(out, selector.Subtitle.Render(version.Subtitle))
	writeln(out)

	if !opts.skipDownload {
		if err := preparePackage(ctx, app, opts, out); err != nil {
			return err
		}
	}

	device, ok, err := chooseDevice(ctx, app, opts.auto, out)
	if err != nil || !ok {
		return err
	}

	showDeviceDetails(out, device)

	proceed := true
	if !opts.auto {
		proceed, err = app.Confirm("Continue with this audio device?", true)
		if errors.Is(err, selector.ErrCancelled) {
			proceed, err = false, nil
		}
		if err != nil {
			return err
		}
	}
	if !proceed {
		writeln(out, selector.Warning.Render("Configuration cancelled."))
		return nil
	}

	settings, err := config.LoadSettings(app.ConfigPath)
	if err != nil {
		return err
	}
	settings.Device = config.DeviceFromCapture(device)
	if err := config.SaveSettings(app.ConfigPath, settings); err != nil {
		return err
	}

	writeln(out, selector.Success.Render("Audio device configuration complete!"))
	writef(out, "Selected device: %s\n", selector.Title.Render(device.String()))
	writef(out, "Saved to %s\n", app.ConfigPath)
	writeln(out)
	writeln(out, selector.Title.Render("Next steps:"))
	writef(out, "- Run 'tyncan --device %s' to start the service with this device\n", device.ALSADevice())
	writeln(out, "- Run 'tyncan status' to check the service")
	return nil
}

func preparePackage(ctx context.Context, app *App, opts configureOptions, out io.Writer) error {
	pkg := app.Package

	writeln(out, "Checking download links...")
	if err := app.Fetcher.CheckLink(ctx, pkg); err != nil {
		writeln(out, selector.Error.Render("Warning: "+pkg.Name+" download link is not reachable!"))
		return err
	}
	writeln(out, selector.Success.Render(pkg.Name+" download link is valid."))

	writef(out, "Downloading %s...\n", pkg.Name)
	path, err := app.Fetcher.Download(ctx, pkg, opts.downloadDir)
	if err != nil {
		return err
	}
	writef(out, "%s\n\n", selector.Success.Render(pkg.Name+" downloaded and verified: "+path))

	if !opts.install {
		return nil
	}
	writef(out, "Installing %s...\n", pkg.Name)
	if err := app.Installer.Install(ctx, path); err != nil {
		return err
	}
	writef(out, "%s\n\n", selector.Success.Render(pkg.Name+" installed."))
	return nil
}

// chooseDevice reports ok=false when there is nothing to select or the user
// backed out.
func chooseDevice(ctx context.Context, app *App, auto bool, out io.Writer) (inventory.CaptureDevice, bool, error) {
	writeln(out, "Scanning for available audio devices...")
	devices, err := app.Lister.List(ctx)
	if err != nil {
		return inventory.CaptureDevice{}, false, err
	}
	if len(devices) == 0 {
		writeln(out, selector.Error.Render("No capture devices found."))
		return inventory.CaptureDevice{}, false, nil
	}
	writef(out, "Found %d audio device(s)\n\n", len(devices))

	if auto {
		writeln(out, selector.Warning.Render("Auto mode: selecting first available device"))
		device, err := selector.First(devices)
		return device, err == nil, err
	}

	device, err := app.Select(devices)
	if errors.Is(err, selector.ErrCancelled) {
		writeln(out, selector.Warning.Render("Configuration cancelled."))
		return inventory.CaptureDevice{}, false, nil
	}
	if err != nil {
		return inventory.CaptureDevice{}, false, fmt.Errorf("device selection failed: %w", err)
	}
	return device, true, nil
}

func showDeviceDetails(out io.Writer, d inventory.CaptureDevice) {
	writeln(out)
	writeln(out, selector.Title.Render("=== Selected Audio Device Details ==="))
	writef(out, "%s: %d\n", selector.Text.Bold(true).Render("Card Index"), d.CardIndex)
	writef(out, "%s: %s\n", selector.Text.Bold(true).Render("Card Label"), d.CardLabel)
	writef(out, "%s: %d\n", selector.Text.Bold(true).Render("Device Index"), d.DeviceIndex)
	writef(out, "%s: %s\n", selector.Text.Bold(true).Render("Device Label"), d.DeviceLabel)
	writef(out, "%s: %s\n", selector.Text.Bold(true).Render("Description"), d.Description)
	writef(out, "%s: %s\n", selector.Text.Bold(true).Render("ALSA Device"), d.ALSADevice())
	for _, s := range d.Subdevices {
		writef(out, "  - %s\n", s)
	}
	writeln(out)
}
