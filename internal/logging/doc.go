// Package logging provides structured logging with per-module log levels.
//
// Loggers write text or JSON to the console (stderr by default, so command
// output on stdout stays machine readable) and, when systemd-journald is
// reachable, to the journal as well.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"capture": "debug",
//		},
//	})
//
// Then get a logger per module:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Capture devices listed", "count", 2)
//
// Journal entries carry SYSLOG_IDENTIFIER=tyncan and one upper-cased field per
// attribute:
//
//	journalctl -t tyncan MODULE=capture
package logging
