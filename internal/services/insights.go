package services

import (
	"fmt"
	"time"

	"cargo-dispatch-service/internal/domain"
)

const (
	urgentAveragePriority = 2.0
	largeBacklogKg        = 10000
)

// Insights turns an analysis into short operator hints.
func Insights(a domain.PlanningAnalysis) []string {
	out := []string{}

	switch {
	case a.TotalPendingShipments == 0:
		out = append(out, "All shipments have been processed")
	case a.AvailableVehicles == 0:
		out = append(out, "Shipments are pending but no vehicle is available")
	case len(a.RecommendedBatches) > 0:
		best := a.RecommendedBatches[0]
		out = append(out, fmt.Sprintf("Best strategy: %s (efficiency %.1f%%)", best.Description, best.Efficiency*100))
	}

	if a.TreeStats.TotalShipments > 0 && a.TreeStats.AveragePriority < urgentAveragePriority {
		out = append(out, "High concentration of urgent shipments (average priority < 2.0)")
	}
	if a.TreeStats.TotalWeightKg > largeBacklogKg {
		out = append(out, "Large cargo volume waiting for dispatch")
	}

	return out
}

// BuildHealthReport flags states in which planning cannot make progress.
func BuildHealthReport(a domain.PlanningAnalysis, now time.Time) domain.HealthReport {
	h := domain.HealthReport{
		Status:            domain.HealthHealthy,
		Timestamp:         now,
		PendingShipments:  a.TotalPendingShipments,
		AvailableVehicles: a.AvailableVehicles,
		CanPlan:           a.TotalPendingShipments > 0 && a.AvailableVehicles > 0,
		Warnings:          []string{},
	}

	if n := len(a.RecommendedBatches); n > 0 {
		sum := 0.0
		for _, b := range a.RecommendedBatches {
			sum += b.Efficiency
		}
		h.AverageEfficiency = sum / float64(n)
	}

	if a.TotalPendingShipments == 0 {
		h.Warnings = append(h.Warnings, "no pending shipments")
	}
	if a.AvailableVehicles == 0 {
		h.Warnings = append(h.Warnings, "no available vehicles")
		h.Status = domain.HealthWarning
	}
	if len(a.RecommendedBatches) == 0 && a.TotalPendingShipments > 0 {
		h.Warnings = append(h.Warnings, "no feasible dispatch strategy")
		h.Status = domain.HealthWarning
	}

	return h
}
