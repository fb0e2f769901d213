package systemd

import (
	"context"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultUnit is the unit name the service is installed under.
const DefaultUnit = "tyncan.service"

// Scope selects the D-Bus bus a Manager talks to.
type Scope int

const (
	// System is the system-wide service manager.
	System Scope = iota
	// User is the per-user service manager.
	User
)

func (s Scope) String() string {
	if s == User {
		return "user"
	}
	return "system"
}

// Manager reads unit state from systemd via D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the service manager for the given scope.
func NewManager(ctx context.Context, scope Scope) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if scope == User {
		conn, err = dbus.NewUserConnectionContext(ctx)
	} else {
		conn, err = dbus.NewSystemConnectionContext(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// GetServiceStatus retrieves the ActiveState property of a systemd service.
func (m *Manager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, serviceName, "ActiveState")
	if err != nil {
		return "", err
	}
	// Variant strings print quoted.
	return strings.Trim(prop.Value.String(), `"`), nil
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// NotifyReady tells systemd the service finished starting. It reports false
// without error when not running under a notify-type unit.
func NotifyReady() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyReady)
}

// NotifyStopping tells systemd the service is shutting down.
func NotifyStopping() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// Client queries unit state over a fresh connection per call, for callers
// that only need an occasional status read.
type Client struct {
	Scope Scope
}

// GetServiceStatus connects, reads ActiveState and disconnects.
func (c Client) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	m, err := NewManager(ctx, c.Scope)
	if err != nil {
		return "", err
	}
	defer m.Close()
	return m.GetServiceStatus(ctx, serviceName)
}
