package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatALSADevice returns the hw:C,D address arecord and DarkIce accept.
func FormatALSADevice(cardNum, deviceNum int) string {
	return "hw:" + strconv.Itoa(cardNum) + "," + strconv.Itoa(deviceNum)
}

// ParseALSADevice parses "hw:C,D" (or the plughw: form) into card and device numbers.
// A bare "C,D" or "C" is accepted too; a missing device number means 0.
func ParseALSADevice(s string) (card, device int, err error) {
	addr := strings.TrimSpace(s)
	for _, prefix := range []string{"plughw:", "hw:"} {
		if strings.HasPrefix(addr, prefix) {
			addr = addr[len(prefix):]
			break
		}
	}

	cardPart, devicePart, hasDevice := strings.Cut(addr, ",")
	card, err = strconv.Atoi(cardPart)
	if err != nil || card < 0 {
		return 0, 0, fmt.Errorf("invalid ALSA card in %q", s)
	}
	if !hasDevice {
		return card, 0, nil
	}
	device, err = strconv.Atoi(devicePart)
	if err != nil || device < 0 {
		return 0, 0, fmt.Errorf("invalid ALSA device in %q", s)
	}
	return card, device, nil
}

// Find returns the first device with the given card and device numbers.
func Find(devices []CaptureDevice, card, device int) (CaptureDevice, bool) {
	for _, d := range devices {
		if d.CardIndex == card && d.DeviceIndex == device {
			return d, true
		}
	}
	return CaptureDevice{}, false
}
