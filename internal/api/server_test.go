package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/tyncan/internal/api/models"
	"github.com/smazurov/tyncan/internal/capture"
	"github.com/smazurov/tyncan/internal/config"
	"github.com/smazurov/tyncan/internal/inventory"
)

type fakeLister struct {
	devices []inventory.CaptureDevice
	err     error
}

func (f *fakeLister) List(_ context.Context) ([]inventory.CaptureDevice, error) {
	return f.devices, f.err
}

type fakeServices struct {
	status string
	err    error
	unit   string
}

func (f *fakeServices) GetServiceStatus(_ context.Context, unit string) (string, error) {
	f.unit = unit
	return f.status, f.err
}

func usbDevice() inventory.CaptureDevice {
	return inventory.CaptureDevice{
		CardIndex:   1,
		CardLabel:   "Device",
		DeviceIndex: 0,
		DeviceLabel: "USB Audio",
		Description: "USB Audio Device / USB Audio",
		Subdevices:  []string{"Subdevices: 1/1", "Subdevice #0: subdevice #0"},
	}
}

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()
	if opts.Lister == nil {
		opts.Lister = &fakeLister{devices: []inventory.CaptureDevice{usbDevice()}}
	}
	ts := httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, auth string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	for _, path := range []string{"/api/health", "/api/version"} {
		t.Run(path, func(t *testing.T) {
			resp := get(t, ts.URL+path, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200 without auth, got %d", resp.StatusCode)
			}
		})
	}

	health := decode[models.HealthData](t, get(t, ts.URL+"/api/health", ""))
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}
	ver := decode[models.VersionData](t, get(t, ts.URL+"/api/version", ""))
	if ver.Name != "TynCan" {
		t.Errorf("version name = %q, want TynCan", ver.Name)
	}
}

func TestListCaptureDevices(t *testing.T) {
	ts := newTestServer(t, &Options{})

	resp := get(t, ts.URL+"/api/devices/capture", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decode[models.CaptureDevicesData](t, resp)
	if body.Count != 1 || len(body.Devices) != 1 {
		t.Fatalf("expected one device, got %+v", body)
	}
	dev := body.Devices[0]
	if dev.ALSADevice != "hw:1,0" {
		t.Errorf("alsa_device = %q, want hw:1,0", dev.ALSADevice)
	}
	if len(dev.Subdevices) != 2 || dev.Subdevices[0] != "Subdevices: 1/1" {
		t.Errorf("unexpected subdevices %v", dev.Subdevices)
	}
}

func TestListCaptureDevicesEmpty(t *testing.T) {
	ts := newTestServer(t, &Options{Lister: &fakeLister{}})

	resp := get(t, ts.URL+"/api/devices/capture", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	devices, ok := body["devices"].([]any)
	if !ok || len(devices) != 0 {
		t.Errorf("expected empty devices array, got %v", body["devices"])
	}
}

func TestListCaptureDevicesErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tool missing", &capture.Error{Code: capture.ErrCodeToolNotFound, Message: "arecord not found"}, http.StatusServiceUnavailable},
		{"command failed", &capture.Error{Code: capture.ErrCodeCommandFailed, Message: "exit 1"}, http.StatusInternalServerError},
		{"parse failed", &capture.Error{Code: capture.ErrCodeParseFailed, Cause: inventory.ErrUnexpectedHeader}, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &Options{Lister: &fakeLister{err: tt.err}})
			resp := get(t, ts.URL+"/api/devices/capture", "")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestSelectedDevice(t *testing.T) {
	t.Run("none configured", func(t *testing.T) {
		ts := newTestServer(t, &Options{})
		resp := get(t, ts.URL+"/api/devices/selected", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("present", func(t *testing.T) {
		sel := NewSelection(config.DeviceFromCapture(usbDevice()))
		ts := newTestServer(t, &Options{Selection: sel})

		resp := get(t, ts.URL+"/api/devices/selected", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[models.SelectedDeviceData](t, resp)
		if body.ALSADevice != "hw:1,0" || !body.Present {
			t.Errorf("unexpected selection %+v", body)
		}
	})

	t.Run("absent", func(t *testing.T) {
		sel := NewSelection(&config.DeviceSettings{ALSA: "hw:5,0", Card: 5})
		ts := newTestServer(t, &Options{Selection: sel})

		body := decode[models.SelectedDeviceData](t, get(t, ts.URL+"/api/devices/selected", ""))
		if body.Present {
			t.Error("hw:5,0 should not be present")
		}
	})

	t.Run("cleared after reload", func(t *testing.T) {
		sel := NewSelection(config.DeviceFromCapture(usbDevice()))
		ts := newTestServer(t, &Options{Selection: sel})
		sel.Set(nil)

		resp := get(t, ts.URL+"/api/devices/selected", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 after clearing, got %d", resp.StatusCode)
		}
	})
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong password", "admin:nope", http.StatusUnauthorized},
		{"wrong user", "root:secret", http.StatusUnauthorized},
		{"valid", "admin:secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/api/devices/capture", tt.auth)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestParseBasicAuth(t *testing.T) {
	enc := func(s string) string { return "Basic " + base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name       string
		header     string
		wantUser   string
		wantPass   string
		wantReason string
	}{
		{"empty", "", "", "", "Authentication required"},
		{"bearer", "Bearer abc", "", "", "Invalid authentication type"},
		{"bad base64", "Basic !!!", "", "", "Invalid credentials format"},
		{"no colon", enc("admin"), "", "", "Invalid credentials format"},
		{"colon in password", enc("admin:a:b"), "admin", "a:b", ""},
		{"valid", enc("admin:secret"), "admin", "secret", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pass, reason := parseBasicAuth(tt.header)
			if user != tt.wantUser || pass != tt.wantPass || reason != tt.wantReason {
				t.Errorf("parseBasicAuth(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.header, user, pass, reason, tt.wantUser, tt.wantPass, tt.wantReason)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tyncan_capture_devices 1\n"))
	})
	ts := newTestServer(t, &Options{PrometheusHandler: handler})

	resp := get(t, ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "tyncan_capture_devices") {
		t.Errorf("unexpected metrics body %q", buf.String())
	}
}

func TestMetricsEndpointAuth(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tyncan_capture_devices 1\n"))
	})
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret", PrometheusHandler: handler})

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong password", "admin:nope", http.StatusUnauthorized},
		{"valid", "admin:secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/metrics", tt.auth)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestServiceStatus(t *testing.T) {
	t.Run("not registered without manager", func(t *testing.T) {
		ts := newTestServer(t, &Options{})
		// The mux answers 404 or 405 depending on other registered methods.
		resp := get(t, ts.URL+"/api/systemd/status", "")
		if resp.StatusCode == http.StatusOK {
			t.Error("status route should not be registered")
		}
	})

	t.Run("active", func(t *testing.T) {
		svc := &fakeServices{status: "active"}
		ts := newTestServer(t, &Options{Services: svc, ServiceUnit: "tyncan.service"})

		resp := get(t, ts.URL+"/api/systemd/status", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[models.SystemdServiceStatus](t, resp)
		if body.Status != "active" || body.Service != "tyncan.service" {
			t.Errorf("unexpected body %+v", body)
		}
		if svc.unit != "tyncan.service" {
			t.Errorf("queried unit %q", svc.unit)
		}
	})

	t.Run("dbus error", func(t *testing.T) {
		svc := &fakeServices{err: errors.New("no bus")}
		ts := newTestServer(t, &Options{Services: svc, ServiceUnit: "tyncan.service"})

		resp := get(t, ts.URL+"/api/systemd/status", "")
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, &Options{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/devices/capture", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
