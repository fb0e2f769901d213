package models

// SystemdServiceStatus contains the status information for a systemd service.
type SystemdServiceStatus struct {
	Service string `json:"service" example:"tyncan.service" doc:"Unit name"`
	Status  string `json:"status" example:"active" doc:"Service status (active, inactive, failed, etc.)"`
}

// SystemdServiceStatusResponse wraps SystemdServiceStatus for API responses.
type SystemdServiceStatusResponse struct {
	Body SystemdServiceStatus
}
