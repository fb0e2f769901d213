package inventory

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

const usbListing = `**** List of CAPTURE Hardware Devices ****
card 0: Dev0 [USB Audio], device 0: USB Audio [USB Audio]
  Subdevice #0: subdevice #0
`

func TestParse_SingleUSBDevice(t *testing.T) {
	devices, err := Parse([]byte(usbListing))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []CaptureDevice{{
		CardIndex:   0,
		CardLabel:   "Dev0",
		DeviceIndex: 0,
		DeviceLabel: "USB Audio",
		Description: "USB Audio / USB Audio",
		Subdevices:  []string{"Subdevice #0: subdevice #0"},
	}}
	if !reflect.DeepEqual(devices, want) {
		t.Errorf("Parse() = %+v, want %+v", devices, want)
	}
}

func TestParse_UnexpectedHeader(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		actual string
	}{
		{name: "empty input", input: "", actual: ""},
		{name: "single newline", input: "\n", actual: ""},
		{name: "playback header", input: "**** List of PLAYBACK Hardware Devices ****\ncard 0: X [Y], device 0: Z [W]\n", actual: "**** List of PLAYBACK Hardware Devices ****"},
		{name: "leading whitespace", input: " " + Header + "\n", actual: " " + Header},
		{name: "device line first", input: "card 0: Dev0 [USB Audio], device 0: USB Audio [USB Audio]\n", actual: "card 0: Dev0 [USB Audio], device 0: USB Audio [USB Audio]"},
		{name: "error text", input: "arecord: device_list:274: no soundcards found...", actual: "arecord: device_list:274: no soundcards found..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := Parse([]byte(tt.input))
			if devices != nil {
				t.Errorf("Parse() returned devices %+v, want none", devices)
			}
			if !errors.Is(err, ErrUnexpectedHeader) {
				t.Fatalf("Parse() error = %v, want ErrUnexpectedHeader", err)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error type = %T, want *ParseError", err)
			}
			if perr.Kind != UnexpectedHeader {
				t.Errorf("Kind = %q, want %q", perr.Kind, UnexpectedHeader)
			}
			if perr.Actual != tt.actual {
				t.Errorf("Actual = %q, want %q", perr.Actual, tt.actual)
			}
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	devices, err := Parse([]byte(Header + "\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("Parse() returned %d devices, want 0", len(devices))
	}
}

func TestParse_DetailLinesInOrder(t *testing.T) {
	input := Header + "\n" +
		"card 1: Device [USB PnP Sound Device], device 0: USB Audio [USB Audio]\n" +
		"  Subdevices: 1/1\n" +
		"  Subdevice #0: subdevice #0\n"

	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Parse() returned %d devices, want 1", len(devices))
	}

	want := []string{"Subdevices: 1/1", "Subdevice #0: subdevice #0"}
	if !reflect.DeepEqual(devices[0].Subdevices, want) {
		t.Errorf("Subdevices = %q, want %q", devices[0].Subdevices, want)
	}
}

func TestParse_MultipleDevicesKeepOrder(t *testing.T) {
	input := `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC3246 Analog [ALC3246 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 0: PCH [HDA Intel PCH], device 2: ALC3246 Alt Analog [ALC3246 Alt Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 2: CODEC [USB Audio CODEC], device 0: USB Audio [USB Audio]
  Subdevices: 0/1
  Subdevice #0: subdevice #0`

	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("Parse() returned %d devices, want 3", len(devices))
	}

	tests := []struct {
		card, device int
		cardLabel    string
		deviceLabel  string
		description  string
		alsa         string
	}{
		{0, 0, "PCH", "ALC3246 Analog", "HDA Intel PCH / ALC3246 Analog", "hw:0,0"},
		{0, 2, "PCH", "ALC3246 Alt Analog", "HDA Intel PCH / ALC3246 Alt Analog", "hw:0,2"},
		{2, 0, "CODEC", "USB Audio", "USB Audio CODEC / USB Audio", "hw:2,0"},
	}
	for i, tt := range tests {
		d := devices[i]
		if d.CardIndex != tt.card || d.DeviceIndex != tt.device {
			t.Errorf("device %d: indices = (%d, %d), want (%d, %d)", i, d.CardIndex, d.DeviceIndex, tt.card, tt.device)
		}
		if d.CardLabel != tt.cardLabel {
			t.Errorf("device %d: CardLabel = %q, want %q", i, d.CardLabel, tt.cardLabel)
		}
		if d.DeviceLabel != tt.deviceLabel {
			t.Errorf("device %d: DeviceLabel = %q, want %q", i, d.DeviceLabel, tt.deviceLabel)
		}
		if d.Description != tt.description {
			t.Errorf("device %d: Description = %q, want %q", i, d.Description, tt.description)
		}
		if d.ALSADevice() != tt.alsa {
			t.Errorf("device %d: ALSADevice() = %q, want %q", i, d.ALSADevice(), tt.alsa)
		}
		if len(d.Subdevices) != 2 {
			t.Errorf("device %d: %d subdevices, want 2", i, len(d.Subdevices))
		}
	}
}

func TestParse_TwoHeaderLinesNoDetails(t *testing.T) {
	input := Header + "\n" +
		"card 0: A [Card A], device 0: a0 [Dev A0]\n" +
		"card 1: B [Card B], device 3: b3 [Dev B3]\n"

	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Parse() returned %d devices, want 2", len(devices))
	}
	if devices[0].CardLabel != "A" || devices[1].CardLabel != "B" {
		t.Errorf("order = [%s %s], want [A B]", devices[0].CardLabel, devices[1].CardLabel)
	}
	if devices[1].DeviceIndex != 3 {
		t.Errorf("second DeviceIndex = %d, want 3", devices[1].DeviceIndex)
	}
	for i, d := range devices {
		if len(d.Subdevices) != 0 {
			t.Errorf("device %d: Subdevices = %q, want empty", i, d.Subdevices)
		}
	}
}

func TestParse_DescriptionTrimmed(t *testing.T) {
	input := Header + "\n" + "card 3: Mic [  Blue Yeti  ], device 0: USB Audio [ USB Audio ]\n"

	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := devices[0].Description, "Blue Yeti / USB Audio"; got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
}

func TestParse_NonNumericIndex(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantCard   int
		wantDevice int
	}{
		{name: "card index", line: "card x: Dev [Desc], device 4: Sub [SubDesc]", wantCard: 0, wantDevice: 4},
		{name: "device index", line: "card 5: Dev [Desc], device y: Sub [SubDesc]", wantCard: 5, wantDevice: 0},
		{name: "both", line: "card ?: Dev [Desc], device ?: Sub [SubDesc]", wantCard: 0, wantDevice: 0},
		{name: "negative", line: "card -1: Dev [Desc], device 2: Sub [SubDesc]", wantCard: 0, wantDevice: 2},
		{name: "overflow", line: "card 99999999999999999999999: Dev [Desc], device 1: Sub [SubDesc]", wantCard: 0, wantDevice: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := Parse([]byte(Header + "\n" + tt.line + "\n"))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(devices) != 1 {
				t.Fatalf("Parse() returned %d devices, want 1", len(devices))
			}
			if devices[0].CardIndex != tt.wantCard {
				t.Errorf("CardIndex = %d, want %d", devices[0].CardIndex, tt.wantCard)
			}
			if devices[0].DeviceIndex != tt.wantDevice {
				t.Errorf("DeviceIndex = %d, want %d", devices[0].DeviceIndex, tt.wantDevice)
			}
			if devices[0].CardLabel != "Dev" || devices[0].DeviceLabel != "Sub" {
				t.Errorf("labels = (%q, %q), want (Dev, Sub)", devices[0].CardLabel, devices[0].DeviceLabel)
			}
		})
	}
}

func TestParse_MalformedCardLineReusesPreviousFields(t *testing.T) {
	input := Header + "\n" +
		"card 1: Dev1 [USB Audio], device 0: USB Audio [USB Audio]\n" +
		"  Subdevice #0: subdevice #0\n" +
		"cardboard box\n" +
		"  after malformed\n"

	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Parse() returned %d devices, want 2", len(devices))
	}

	first, second := devices[0], devices[1]
	if !reflect.DeepEqual(first.Subdevices, []string{"Subdevice #0: subdevice #0"}) {
		t.Errorf("first Subdevices = %q", first.Subdevices)
	}
	if second.CardIndex != 1 || second.CardLabel != "Dev1" || second.Description != first.Description {
		t.Errorf("second = %+v, want fields copied from first", second)
	}
	if !reflect.DeepEqual(second.Subdevices, []string{"after malformed"}) {
		t.Errorf("second Subdevices = %q, want [after malformed]", second.Subdevices)
	}
}

func TestParse_MalformedFirstCardLine(t *testing.T) {
	devices, err := Parse([]byte(Header + "\ncard garbage\n  detail\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Parse() returned %d devices, want 1", len(devices))
	}
	d := devices[0]
	if d.CardIndex != 0 || d.DeviceIndex != 0 || d.CardLabel != "" || d.DeviceLabel != "" {
		t.Errorf("device = %+v, want zero fields", d)
	}
	if d.Description != " / " {
		t.Errorf("Description = %q, want %q", d.Description, " / ")
	}
}

func TestParse_DetailBeforeFirstCardIsDropped(t *testing.T) {
	input := Header + "\n  stray\n" + "card 0: A [B], device 0: C [D]\n"
	devices, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 1 || len(devices[0].Subdevices) != 0 {
		t.Errorf("Parse() = %+v, want one device without subdevices", devices)
	}
}

func TestParse_DuplicatesKept(t *testing.T) {
	line := "card 0: A [B], device 0: C [D]\n"
	devices, err := Parse([]byte(Header + "\n" + line + line))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Parse() returned %d devices, want 2", len(devices))
	}
}

func TestParse_CRLFAndInvalidUTF8(t *testing.T) {
	raw := []byte(Header + "\r\ncard 0: Dev0 [Caf\xff], device 0: USB Audio [USB Audio]\r\n  Subdevice #0: subdevice #0\r\n")

	devices, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Parse() returned %d devices, want 1", len(devices))
	}
	if got, want := devices[0].Description, "Caf\uFFFD / USB Audio"; got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
	if got := devices[0].Subdevices; len(got) != 1 || got[0] != "Subdevice #0: subdevice #0" {
		t.Errorf("Subdevices = %q", got)
	}
}

func TestDecodeLossy(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid", "Caf\u00e9", "Caf\u00e9"},
		{"valid replacement char", "a\uFFFDb", "a\uFFFDb"},
		{"two invalid bytes", "x\xff\xfey", "x\uFFFD\uFFFDy"},
		{"truncated three byte sequence", "x\xe2\x82y", "x\uFFFDy"},
		{"truncated at end", "x\xf0\x9f\x98", "x\uFFFD"},
		{"lone continuation bytes", "\x80\x80", "\uFFFD\uFFFD"},
		{"surrogate", "\xed\xa0\x80", "\uFFFD\uFFFD\uFFFD"},
		{"overlong", "\xc0\xaf", "\uFFFD\uFFFD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeLossy([]byte(tt.in)); got != tt.want {
				t.Errorf("decodeLossy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			devices, err := Parse([]byte(usbListing))
			if err != nil || len(devices) != 1 {
				t.Errorf("Parse() = %v, %v", devices, err)
			}
		}()
	}
	wg.Wait()
}

func TestParseError_Message(t *testing.T) {
	_, err := Parse([]byte("nope"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("Error() = %q, want it to contain the actual line", err.Error())
	}
}
