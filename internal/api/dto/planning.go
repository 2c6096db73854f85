package dto

import "cargo-dispatch-service/internal/domain"

type PlanningResultResponse struct {
	Success                  bool               `json:"success"`
	Message                  string             `json:"message"`
	PlanID                   string             `json:"plan_id,omitempty"`
	Batch                    []ShipmentResponse `json:"batch"`
	Vehicle                  *VehicleResponse   `json:"vehicle,omitempty"`
	Route                    []string           `json:"route,omitempty"`
	Stops                    []domain.RouteStop `json:"stops,omitempty"`
	TotalDistanceKm          float64            `json:"total_distance_km"`
	EstimatedDurationMinutes float64            `json:"estimated_duration_minutes"`
	Efficiency               float64            `json:"efficiency"`
}

type AnalysisResponse struct {
	Analysis domain.PlanningAnalysis `json:"analysis"`
	Insights []string                `json:"insights"`
}

type CancelRequest struct {
	ShipmentIDs []string `json:"shipment_ids"`
}

type CancelResponse struct {
	Status      string   `json:"status"`
	ShipmentIDs []string `json:"shipment_ids"`
}
