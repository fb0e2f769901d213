package api

import (
	"sync/atomic"

	"github.com/smazurov/tyncan/internal/config"
)

// Selection holds the persisted device choice and is swapped whenever the
// settings file is reloaded.
type Selection struct {
	current atomic.Pointer[config.DeviceSettings]
}

// NewSelection returns a Selection holding dev, which may be nil.
func NewSelection(dev *config.DeviceSettings) *Selection {
	s := &Selection{}
	s.Set(dev)
	return s
}

// Set replaces the selection. A nil dev clears it.
func (s *Selection) Set(dev *config.DeviceSettings) {
	if dev == nil {
		s.current.Store(nil)
		return
	}
	copied := *dev
	s.current.Store(&copied)
}

// Get returns the current selection.
func (s *Selection) Get() (config.DeviceSettings, bool) {
	dev := s.current.Load()
	if dev == nil {
		return config.DeviceSettings{}, false
	}
	return *dev, true
}
