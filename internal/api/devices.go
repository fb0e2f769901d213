package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/tyncan/internal/api/models"
	"github.com/smazurov/tyncan/internal/capture"
	"github.com/smazurov/tyncan/internal/inventory"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-capture-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices/capture",
		Summary:     "List Capture Devices",
		Description: "Enumerate hardware audio capture devices reported by arecord",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.CaptureDevicesResponse, error) {
		devices, err := s.listDevices(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]models.CaptureDevice, 0, len(devices))
		for _, d := range devices {
			out = append(out, models.FromInventory(d))
		}
		return &models.CaptureDevicesResponse{
			Body: models.CaptureDevicesData{
				Devices: out,
				Count:   len(out),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-selected-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/selected",
		Summary:     "Selected Device",
		Description: "Get the capture device chosen during configuration",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, _ *struct{}) (*models.SelectedDeviceResponse, error) {
		selected, ok := s.options.Selection.Get()
		if !ok {
			return nil, huma.Error404NotFound("No capture device has been configured")
		}

		body := models.SelectedDeviceData{
			ALSADevice:  selected.ALSA,
			CardIndex:   selected.Card,
			DeviceIndex: selected.Device,
			CardLabel:   selected.CardLabel,
			DeviceLabel: selected.DeviceLabel,
			Description: selected.Description,
		}

		// Presence is best effort; a failed scan reports the device as absent.
		if devices, err := s.options.Lister.List(ctx); err == nil {
			_, body.Present = inventory.Find(devices, selected.Card, selected.Device)
		}

		return &models.SelectedDeviceResponse{Body: body}, nil
	})
}

func (s *Server) listDevices(ctx context.Context) ([]inventory.CaptureDevice, error) {
	devices, err := s.options.Lister.List(ctx)
	if err == nil {
		return devices, nil
	}

	var capErr *capture.Error
	if errors.As(err, &capErr) && capErr.Code == capture.ErrCodeToolNotFound {
		return nil, huma.Error503ServiceUnavailable(capErr.Message, err)
	}
	return nil, huma.Error500InternalServerError("Failed to list capture devices", err)
}
