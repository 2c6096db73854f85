package domain

import "time"

const (
	HealthHealthy = "healthy"
	HealthWarning = "warning"
)

// HealthReport summarises whether the planner can make progress.
type HealthReport struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	PendingShipments  int       `json:"pending_shipments"`
	AvailableVehicles int       `json:"available_vehicles"`
	CanPlan           bool      `json:"can_plan"`
	AverageEfficiency float64   `json:"average_efficiency"`
	Warnings          []string  `json:"warnings"`
}
