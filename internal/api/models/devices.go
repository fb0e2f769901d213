package models

import "github.com/smazurov/tyncan/internal/inventory"

// CaptureDevice is the API view of an inventory entry.
type CaptureDevice struct {
	CardIndex   int      `json:"card_index" example:"1" doc:"ALSA card index"`
	CardLabel   string   `json:"card_label" example:"Device" doc:"Card short label"`
	DeviceIndex int      `json:"device_index" example:"0" doc:"Device index on the card"`
	DeviceLabel string   `json:"device_label" example:"USB Audio" doc:"Device short label"`
	Description string   `json:"description" example:"USB Audio Device / USB Audio" doc:"Card and device descriptions"`
	Subdevices  []string `json:"subdevices" doc:"Raw sub-device lines in order"`
	ALSADevice  string   `json:"alsa_device" example:"hw:1,0" doc:"ALSA hardware address"`
}

// FromInventory converts a parsed device.
func FromInventory(d inventory.CaptureDevice) CaptureDevice {
	subdevices := d.Subdevices
	if subdevices == nil {
		subdevices = []string{}
	}
	return CaptureDevice{
		CardIndex:   d.CardIndex,
		CardLabel:   d.CardLabel,
		DeviceIndex: d.DeviceIndex,
		DeviceLabel: d.DeviceLabel,
		Description: d.Description,
		Subdevices:  subdevices,
		ALSADevice:  d.ALSADevice(),
	}
}

type CaptureDevicesData struct {
	Devices []CaptureDevice `json:"devices" doc:"Capture devices in listing order"`
	Count   int             `json:"count" example:"1" doc:"Number of devices"`
}

type CaptureDevicesResponse struct {
	Body CaptureDevicesData
}

// SelectedDeviceData is the persisted device selection.
type SelectedDeviceData struct {
	ALSADevice  string `json:"alsa_device" example:"hw:1,0" doc:"ALSA hardware address"`
	CardIndex   int    `json:"card_index" example:"1" doc:"ALSA card index"`
	DeviceIndex int    `json:"device_index" example:"0" doc:"Device index on the card"`
	CardLabel   string `json:"card_label,omitempty" example:"Device" doc:"Card short label"`
	DeviceLabel string `json:"device_label,omitempty" example:"USB Audio" doc:"Device short label"`
	Description string `json:"description,omitempty" example:"USB Audio Device / USB Audio" doc:"Card and device descriptions"`
	Present     bool   `json:"present" doc:"Whether the device is in the current inventory"`
}

type SelectedDeviceResponse struct {
	Body SelectedDeviceData
}
