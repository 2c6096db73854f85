package handlers

import (
	"net/http"

	"cargo-dispatch-service/internal/api/dto"
	"cargo-dispatch-service/internal/ports"
)

// InventoryHandler exposes read-only views of what the planner can work with.
type InventoryHandler struct {
	Repo ports.PlanningRepository
}

func (h *InventoryHandler) PendingShipments(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	shipments, err := h.Repo.ListPendingShipments(r.Context())
	if err != nil {
		writeServiceError(w, r, "list shipments", err)
		return
	}

	res := dto.ListShipmentsResponse{
		Shipments: make([]dto.ShipmentResponse, 0, len(shipments)),
	}
	for _, s := range shipments {
		res.Shipments = append(res.Shipments, toShipmentResponse(s))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *InventoryHandler) AvailableVehicles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	vehicles, err := h.Repo.ListAvailableVehicles(r.Context())
	if err != nil {
		writeServiceError(w, r, "list vehicles", err)
		return
	}

	res := dto.ListVehiclesResponse{
		Vehicles: make([]dto.VehicleResponse, 0, len(vehicles)),
	}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, toVehicleResponse(v))
	}

	writeJSON(w, r, http.StatusOK, res)
}
