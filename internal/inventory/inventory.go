// Package inventory turns the listing printed by `arecord -l` into an ordered
// set of hardware capture devices, grouped by card and device.
//
// The parser is lenient on purpose: anything except a missing or wrong header
// line is absorbed rather than reported. Indices that do not parse become 0,
// and lines that do not look like a device header are attached to the device
// above them as sub-device lines.
package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Header is the first line arecord prints when listing capture hardware.
const Header = "**** List of CAPTURE Hardware Devices ****"

const descriptionSeparator = " / "

// headerLinePattern matches
//
//	card <int>: <label> [<description>], device <int>: <label> [<description>]
//
// Index groups are deliberately loose so a non-numeric index still matches
// and falls back to 0.
var headerLinePattern = regexp.MustCompile(
	`^card\s+([^:]*):\s*([^\[]*?)\s*\[([^\]]*)\],\s*device\s+([^:]*):\s*([^\[]*?)\s*\[([^\]]*)\]`,
)

// CaptureDevice is one hardware capture endpoint, identified by its card and
// device indices.
type CaptureDevice struct {
	CardIndex   int      `json:"card_index"`
	CardLabel   string   `json:"card_label"`
	DeviceIndex int      `json:"device_index"`
	DeviceLabel string   `json:"device_label"`
	Description string   `json:"description"`
	Subdevices  []string `json:"subdevices"`
}

// ALSADevice returns the hw:<card>,<device> address of the device.
func (d CaptureDevice) ALSADevice() string {
	return FormatALSADevice(d.CardIndex, d.DeviceIndex)
}

func (d CaptureDevice) String() string {
	return fmt.Sprintf("Card %d (%s): Device %d (%s) - %s",
		d.CardIndex, d.CardLabel, d.DeviceIndex, d.DeviceLabel, d.Description)
}

// accumulator holds the fields of the device currently being read.
// It is turned into an immutable CaptureDevice at every flush point.
type accumulator struct {
	cardIndex   int
	cardLabel   string
	cardDesc    string
	deviceIndex int
	deviceLabel string
	deviceDesc  string
	subdevices  []string
}

func (a *accumulator) device() CaptureDevice {
	subdevices := make([]string, len(a.subdevices))
	copy(subdevices, a.subdevices)

	return CaptureDevice{
		CardIndex:   a.cardIndex,
		CardLabel:   a.cardLabel,
		DeviceIndex: a.deviceIndex,
		DeviceLabel: a.deviceLabel,
		Description: a.cardDesc + descriptionSeparator + a.deviceDesc,
		Subdevices:  subdevices,
	}
}

// apply copies the fields captured from a header line. Lines that don't
// match leave the previous fields in place.
func (a *accumulator) apply(line string) {
	m := headerLinePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	a.cardIndex = parseIndex(m[1])
	a.cardLabel = m[2]
	a.cardDesc = strings.TrimSpace(m[3])
	a.deviceIndex = parseIndex(m[4])
	a.deviceLabel = m[5]
	a.deviceDesc = strings.TrimSpace(m[6])
}

// Parse converts arecord output into capture devices in the order they appear.
//
// Invalid UTF-8 is replaced rather than rejected. The only error returned is a
// *ParseError of kind UnexpectedHeader, when the first line is not Header.
func Parse(raw []byte) ([]CaptureDevice, error) {
	lines := splitLines(decodeLossy(raw))

	if len(lines) == 0 {
		return nil, newUnexpectedHeader("")
	}
	if lines[0] != Header {
		return nil, newUnexpectedHeader(lines[0])
	}

	var (
		devices []CaptureDevice
		acc     accumulator
		started bool
	)

	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "card") {
			if started {
				devices = append(devices, acc.device())
			}
			acc.subdevices = nil
			acc.apply(line)
			started = true
			continue
		}

		// Detail lines before the first card line have no device to attach to.
		if started {
			acc.subdevices = append(acc.subdevices, strings.TrimSpace(line))
		}
	}

	if started {
		devices = append(devices, acc.device())
	}

	return devices, nil
}

// splitLines splits on '\n', drops a single trailing empty line and strips a
// trailing '\r' from each line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// decodeLossy converts raw to a string, writing one U+FFFD for each maximal
// ill-formed subsequence.
func decodeLossy(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r != utf8.RuneError || size > 1 {
			b.Write(raw[:size])
			raw = raw[size:]
			continue
		}
		b.WriteRune(utf8.RuneError)
		raw = raw[invalidPrefix(raw):]
	}
	return b.String()
}

// invalidPrefix returns the length of the ill-formed sequence at the start of
// raw: a lead byte plus the continuation bytes that are still valid for it.
func invalidPrefix(raw []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch c := raw[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	case c == 0xF4:
		need, hi = 3, 0x8F
	default:
		return 1
	}

	n := 1
	for n <= need && n < len(raw) && raw[n] >= lo && raw[n] <= hi {
		n++
		lo, hi = 0x80, 0xBF
	}
	return n
}

func parseIndex(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
