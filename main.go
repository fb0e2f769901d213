package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/mitchellh/go-homedir"

	"github.com/smazurov/tyncan/cmd"
	"github.com/smazurov/tyncan/internal/api"
	"github.com/smazurov/tyncan/internal/config"
	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/logging"
	"github.com/smazurov/tyncan/internal/metrics"
	"github.com/smazurov/tyncan/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"~/.config/tyncan/config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8080" toml:"server.port" env:"SERVER_PORT"`

	// Device settings
	Device string `help:"ALSA capture device to serve, e.g. hw:1,0" short:"d" toml:"device.alsa" env:"DEVICE"`

	// Capture settings
	CaptureCommand string `help:"Capture hardware listing command" default:"arecord" toml:"capture.command" env:"CAPTURE_COMMAND"`
	CaptureTimeout string `help:"Timeout for the listing command" default:"10s" toml:"capture.timeout" env:"CAPTURE_TIMEOUT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username (auth disabled when empty)" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Systemd settings
	ServiceUnit string `help:"Systemd unit the service runs as" default:"tyncan.service" toml:"systemd.unit" env:"SYSTEMD_UNIT"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCapture  string `help:"Capture logging level" default:"info" toml:"logging.modules.capture" env:"LOGGING_CAPTURE"`
	LoggingPackages string `help:"Package download logging level" default:"info" toml:"logging.modules.packages" env:"LOGGING_PACKAGES"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.modules.api" env:"LOGGING_API"`
	LoggingHTTP     string `help:"HTTP access logging level" default:"info" toml:"logging.modules.http" env:"LOGGING_HTTP"`
}

func main() {
	app := cmd.NewApp()

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"capture":  opts.LoggingCapture,
				"packages": opts.LoggingPackages,
				"api":      opts.LoggingAPI,
				"http":     opts.LoggingHTTP,
			},
		})
		logger := logging.GetLogger("main")

		configPath, err := homedir.Expand(opts.Config)
		if err != nil {
			logger.Warn("Failed to expand config path", "path", opts.Config, "error", err)
			configPath = opts.Config
		}

		recorder := metrics.NewRecorder()

		app.ConfigPath = configPath
		app.Port = opts.Port
		app.LogLevel = opts.LoggingLevel
		app.Unit = opts.ServiceUnit
		app.Lister.Command = opts.CaptureCommand
		app.Lister.Observer = recorder
		if timeout, parseErr := time.ParseDuration(opts.CaptureTimeout); parseErr == nil {
			app.Lister.Timeout = timeout
		} else {
			logger.Warn("Invalid capture timeout, using default", "value", opts.CaptureTimeout)
		}

		settings, err := config.LoadSettings(configPath)
		if err != nil {
			logger.Warn("Failed to load settings", "path", configPath, "error", err)
		}
		selection := api.NewSelection(settings.Device)

		// An explicit --device pins the selection; reloads no longer replace it.
		pinned := opts.Device != "" && (settings.Device == nil || settings.Device.ALSA != opts.Device)
		if pinned {
			card, device, parseErr := inventory.ParseALSADevice(opts.Device)
			if parseErr != nil {
				logger.Error("Invalid --device", "device", opts.Device, "error", parseErr)
				os.Exit(1)
			}
			selection.Set(&config.DeviceSettings{
				ALSA:   inventory.FormatALSADevice(card, device),
				Card:   card,
				Device: device,
			})
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Lister:            app.Lister,
			Selection:         selection,
			Services:          app.Services,
			ServiceUnit:       opts.ServiceUnit,
			PrometheusHandler: recorder.Handler(),
		})

		watcher := config.NewConfigWatcher(configPath, config.LoadSettings, logging.GetLogger("config"))
		watcher.OnReload(func(s config.Settings) {
			if !pinned {
				selection.Set(s.Device)
			}
			for module, level := range s.Logging.Modules {
				if !logging.SetModuleLevel(module, level) {
					logger.Warn("Ignoring invalid module log level", "module", module, "level", level)
				}
			}
			logger.Info("Settings reloaded", "path", configPath)
		})

		hooks.OnStart(func() {
			checkSelectedDevice(logger, app, selection)

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to watch config file", "path", configPath, "error", startErr)
			}

			ln, listenErr := net.Listen("tcp", opts.Port)
			if listenErr != nil {
				logger.Error("Failed to listen", "port", opts.Port, "error", listenErr)
				os.Exit(1)
			}

			if sent, notifyErr := systemd.NotifyReady(); notifyErr != nil {
				logger.Warn("Failed to notify systemd", "error", notifyErr)
			} else if sent {
				logger.Debug("Notified systemd of readiness")
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", serveErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = systemd.NotifyStopping()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Shutdown(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
		})
	})

	root := cli.Root()
	root.Use = "tyncan"
	root.Short = "Turn Your Node into a Castable Audio Network"
	root.AddCommand(
		cmd.CreateDevicesCmd(app),
		cmd.CreateConfigureCmd(app),
		cmd.CreateStatusCmd(app),
		cmd.CreateVersionCmd(),
	)

	cli.Run()
}

// checkSelectedDevice warns when the selected device is missing from the
// current inventory. The service still starts so the API can report it.
func checkSelectedDevice(logger *slog.Logger, app *cmd.App, selection *api.Selection) {
	selected, ok := selection.Get()
	if !ok {
		logger.Warn("No capture device selected, run 'tyncan configure'")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	devices, err := app.Lister.List(ctx)
	if err != nil {
		logger.Warn("Could not verify selected device", "device", selected.ALSA, "error", err)
		return
	}
	if dev, found := inventory.Find(devices, selected.Card, selected.Device); found {
		logger.Info("Using capture device", "device", selected.ALSA, "description", dev.Description)
		return
	}
	logger.Warn("Selected capture device not present", "device", selected.ALSA, "available", len(devices))
}
