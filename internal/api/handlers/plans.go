package handlers

import (
	"context"
	"net/http"
	"strings"

	"cargo-dispatch-service/internal/api/dto"
	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/services"
)

// PlanningService is the slice of the dispatch service the planning
// endpoints need.
type PlanningService interface {
	PlanNextShipment(ctx context.Context) (domain.PlanningResult, error)
	AnalyzePlanningState(ctx context.Context) (domain.PlanningAnalysis, error)
	Health(ctx context.Context) (domain.HealthReport, error)
	CancelPlanning(ctx context.Context, shipmentIDs []string) error
	CompleteShipment(ctx context.Context, shipmentID string) (domain.Shipment, error)
}

type PlanHandler struct {
	Service PlanningService
}

// PlanNext runs one planning cycle. Expected failures are still a 200 with
// success=false; the caller decides whether to retry.
func (h *PlanHandler) PlanNext(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	result, err := h.Service.PlanNextShipment(r.Context())
	if err != nil {
		writeServiceError(w, r, "plan next shipment", err)
		return
	}

	res := dto.PlanningResultResponse{
		Success:                  result.Success,
		Message:                  result.Message,
		PlanID:                   result.PlanID,
		Batch:                    make([]dto.ShipmentResponse, 0, len(result.Batch)),
		Route:                    result.Route,
		Stops:                    result.Stops,
		TotalDistanceKm:          result.TotalDistanceKm,
		EstimatedDurationMinutes: result.EstimatedDurationMinutes,
		Efficiency:               result.Efficiency,
	}
	for _, s := range result.Batch {
		res.Batch = append(res.Batch, toShipmentResponse(s))
	}
	if result.Vehicle != nil {
		v := toVehicleResponse(*result.Vehicle)
		res.Vehicle = &v
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *PlanHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	analysis, err := h.Service.AnalyzePlanningState(r.Context())
	if err != nil {
		writeServiceError(w, r, "analyze planning state", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AnalysisResponse{
		Analysis: analysis,
		Insights: services.Insights(analysis),
	})
}

func (h *PlanHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	report, err := h.Service.Health(r.Context())
	if err != nil {
		writeServiceError(w, r, "planning health", err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

func (h *PlanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.CancelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ids := make([]string, 0, len(req.ShipmentIDs))
	for _, id := range req.ShipmentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "shipment_ids is required")
		return
	}

	if err := h.Service.CancelPlanning(r.Context(), ids); err != nil {
		writeServiceError(w, r, "cancel planning", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CancelResponse{Status: "cancelled", ShipmentIDs: ids})
}

// Complete handles POST /planning/complete/{id}.
func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/planning/complete/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusBadRequest, "shipment id is required")
		return
	}

	s, err := h.Service.CompleteShipment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "complete shipment", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toShipmentResponse(s))
}
