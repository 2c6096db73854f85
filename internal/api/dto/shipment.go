package dto

type ShipmentResponse struct {
	ID                string   `json:"id"`
	WeightKg          float64  `json:"weight_kg"`
	Priority          int      `json:"priority"`
	OriginID          string   `json:"origin_id,omitempty"`
	DestinationID     string   `json:"destination_id"`
	Status            string   `json:"status"`
	AssignedVehicleID string   `json:"assigned_vehicle_id,omitempty"`
	PlannedRoute      []string `json:"planned_route,omitempty"`
}

type ListShipmentsResponse struct {
	Shipments []ShipmentResponse `json:"shipments"`
}

type VehicleResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	CapacityKg float64 `json:"capacity_kg"`
	LocationID string  `json:"location_id,omitempty"`
	Status     string  `json:"status"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}
