package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/logging"
)

// DefaultPath is where `tyncan configure` stores the node configuration.
const DefaultPath = "~/.config/tyncan/config.toml"

// Settings is the persisted node configuration.
type Settings struct {
	Device  *DeviceSettings `toml:"device,omitempty"`
	Server  ServerSettings  `toml:"server"`
	Logging logging.Config  `toml:"logging"`
}

// DeviceSettings records the capture device chosen during configuration.
type DeviceSettings struct {
	ALSA        string `toml:"alsa"`
	Card        int    `toml:"card"`
	Device      int    `toml:"device"`
	CardLabel   string `toml:"card_label"`
	DeviceLabel string `toml:"device_label"`
	Description string `toml:"description"`
}

// ServerSettings configures the HTTP service.
type ServerSettings struct {
	Port string `toml:"port"`
}

// DeviceFromCapture converts an inventory entry into its persisted form.
func DeviceFromCapture(d inventory.CaptureDevice) *DeviceSettings {
	return &DeviceSettings{
		ALSA:        d.ALSADevice(),
		Card:        d.CardIndex,
		Device:      d.DeviceIndex,
		CardLabel:   d.CardLabel,
		DeviceLabel: d.DeviceLabel,
		Description: d.Description,
	}
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Port: ":8080"},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadSettings reads settings from path. A missing file yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return settings, fmt.Errorf("failed to expand settings path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings %s: %w", expanded, err)
	}
	return settings, nil
}

// ownedTables are the top-level tables SaveSettings rewrites. Every other
// table in the file (auth, capture, systemd, ...) is carried over untouched.
var ownedTables = []string{"device", "server", "logging"}

// SaveSettings writes settings to path, creating parent directories. Only the
// tables Settings models are replaced; the rest of an existing file is kept.
// The file is replaced atomically so readers never see a partial write.
func SaveSettings(path string, settings Settings) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand settings path: %w", err)
	}

	doc, err := readDocument(expanded)
	if err != nil {
		return err
	}

	owned, err := settingsDocument(settings)
	if err != nil {
		return err
	}
	for _, table := range ownedTables {
		delete(doc, table)
	}
	maps.Copy(doc, owned)

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(expanded)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), expanded); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// readDocument decodes the file at path into a generic document. A missing
// file yields an empty one.
func readDocument(path string) (map[string]any, error) {
	doc := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return doc, nil
}

// settingsDocument converts settings into the generic form written to disk.
func settingsDocument(settings Settings) (map[string]any, error) {
	data, err := toml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	doc := make(map[string]any)
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return doc, nil
}

// LoadLoggingConfig returns the [logging] section of the settings at path,
// or defaults when the file is missing or unreadable.
func LoadLoggingConfig(path string) logging.Config {
	settings, err := LoadSettings(path)
	if err != nil {
		return DefaultSettings().Logging
	}
	return settings.Logging
}
