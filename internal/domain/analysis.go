package domain

// Aggregate figures of a grouping tree.
type TreeStats struct {
	TotalShipments  int     `json:"total_shipments"`
	TotalWeightKg   float64 `json:"total_weight_kg"`
	AveragePriority float64 `json:"average_priority"`
	Height          int     `json:"height"`
}

// A dispatch suggestion summarised for reporting.
type RecommendedBatch struct {
	VehicleID     string   `json:"vehicle_id"`
	ShipmentCount int      `json:"shipment_count"`
	TotalWeightKg float64  `json:"total_weight_kg"`
	Efficiency    float64  `json:"efficiency"`
	Description   string   `json:"description"`
	Origins       []string `json:"origins,omitempty"`
	Destinations  []string `json:"destinations"`
}

// PlanningAnalysis describes the planning state without committing anything.
type PlanningAnalysis struct {
	TotalPendingShipments int                `json:"total_pending_shipments"`
	AvailableVehicles     int                `json:"available_vehicles"`
	TreeStats             TreeStats          `json:"tree_stats"`
	RecommendedBatches    []RecommendedBatch `json:"recommended_batches"`
	// Tree is an indented pre-order dump of the grouping tree.
	Tree []string `json:"tree,omitempty"`
}
