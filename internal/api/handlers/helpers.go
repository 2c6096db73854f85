package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"cargo-dispatch-service/internal/api/dto"
	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/ports"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "encode failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// allowMethod writes a 405 and reports false when r does not use method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads exactly one JSON object with no unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps repository sentinels to status codes and hides
// everything else behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), op+" failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toShipmentResponse(s domain.Shipment) dto.ShipmentResponse {
	return dto.ShipmentResponse{
		ID:                s.ID,
		WeightKg:          s.WeightKg,
		Priority:          s.Priority,
		OriginID:          s.OriginID,
		DestinationID:     s.DestinationID,
		Status:            s.Status,
		AssignedVehicleID: s.AssignedVehicleID,
		PlannedRoute:      s.PlannedRoute,
	}
}

func toVehicleResponse(v domain.Vehicle) dto.VehicleResponse {
	return dto.VehicleResponse{
		ID:         v.ID,
		Name:       v.Name,
		CapacityKg: v.CapacityKg,
		LocationID: v.LocationID,
		Status:     v.Status,
	}
}
