package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/tyncan/internal/inventory"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		Long:  `Runs "arecord -l" and prints every hardware capture device grouped by card and device.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := app.Lister.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, devices)
			}
			printDevices(out, devices)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the inventory as JSON")
	return cmd
}

func writeJSON(w io.Writer, devices []inventory.CaptureDevice) error {
	if devices == nil {
		devices = []inventory.CaptureDevice{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(devices); err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	return nil
}

func printDevices(w io.Writer, devices []inventory.CaptureDevice) {
	if len(devices) == 0 {
		writeln(w, "No capture devices found.")
		return
	}

	for i, d := range devices {
		if i > 0 {
			writeln(w)
		}
		printDevice(w, d)
	}
}

func printDevice(w io.Writer, d inventory.CaptureDevice) {
	writef(w, "Card %d (%s): Device %d (%s)\n", d.CardIndex, d.CardLabel, d.DeviceIndex, d.DeviceLabel)
	writef(w, "  ALSA: %s\n", d.ALSADevice())
	writef(w, "  Description: %s\n", d.Description)
	if len(d.Subdevices) == 0 {
		return
	}
	writeln(w, "  Subdevices:")
	for _, s := range d.Subdevices {
		writef(w, "    %s\n", s)
	}
}
