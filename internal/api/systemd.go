package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/tyncan/internal/api/models"
)

func (s *Server) registerSystemdRoutes() {
	if s.options.Services == nil || s.options.ServiceUnit == "" {
		return
	}

	unit := s.options.ServiceUnit

	huma.Register(s.api, huma.Operation{
		OperationID: "get-service-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/status",
		Summary:     "Service Status",
		Description: "Get the systemd state of the capture service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := s.options.Services.GetServiceStatus(ctx, unit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: unit,
				Status:  status,
			},
		}, nil
	})
}
