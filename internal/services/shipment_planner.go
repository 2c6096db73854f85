package services

import (
	"fmt"
	"sort"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/grouping"
	"cargo-dispatch-service/internal/pqueue"
)

// Reference vehicle capacities used to judge how well a batch would fill a
// typical truck while the tree is being built.
var referenceCapacitiesKg = []float64{1000, 2000, 5000}

// DispatchStrategy is one vehicle's best batch and how good a dispatch it
// would be.
type DispatchStrategy struct {
	Vehicle     domain.Vehicle
	Batch       grouping.Node
	Efficiency  float64
	Description string
}

// ShipmentPlanner builds the grouping tree and ranks candidate dispatches.
// It holds no state; the zero value is ready to use.
type ShipmentPlanner struct{}

// BuildGroupingTree merges shipments bottom-up, always joining the two
// nodes with the lowest composite score first. An empty input yields an
// empty tree.
func (p ShipmentPlanner) BuildGroupingTree(shipments []domain.Shipment) *grouping.Tree {
	switch len(shipments) {
	case 0:
		return grouping.NewTree(nil)
	case 1:
		return grouping.NewTree(grouping.NewLeaf(shipments[0]))
	}

	pq := pqueue.New[grouping.Node]()
	for _, s := range shipments {
		leaf := grouping.NewLeaf(s)
		pq.Enqueue(leaf, p.CompositeScore(leaf))
	}

	for pq.Len() > 1 {
		left, _ := pq.Dequeue()
		right, _ := pq.Dequeue()

		parent := grouping.NewInternal(left, right)
		pq.Enqueue(parent, p.CompositeScore(parent))
	}

	root, _ := pq.Dequeue()
	return grouping.NewTree(root)
}

// CompositeScore ranks a node for merging. Lower merges earlier.
func (ShipmentPlanner) CompositeScore(n grouping.Node) float64 {
	return 0.4*grouping.AveragePriority(n) +
		0.3*groupingEfficiency(n) +
		0.2*weightFactor(n.TotalWeight()) +
		0.1*sizeFactor(n.ShipmentCount())
}

// Distinct destinations per shipment; lower is a tighter grouping.
func groupingEfficiency(n grouping.Node) float64 {
	count := n.ShipmentCount()
	if count <= 1 {
		return 1.0
	}
	return float64(len(grouping.UniqueDestinations(n))) / float64(count)
}

func weightFactor(totalWeightKg float64) float64 {
	best := 0.0
	for _, c := range referenceCapacitiesKg {
		if totalWeightKg <= c {
			best = max(best, totalWeightKg/c)
		}
	}

	switch {
	case best >= 0.70 && best <= 0.95:
		return 1.0
	case best >= 0.50 && best < 0.70:
		return 1.5
	default:
		return 2.0
	}
}

func sizeFactor(count int) float64 {
	switch {
	case count >= 3 && count <= 8:
		return 1.0
	case count == 2 || count == 9 || count == 10:
		return 1.2
	default:
		return 1.5
	}
}

// AnalyzeDispatchStrategies finds the best batch for every vehicle and
// returns the resulting strategies ordered by descending efficiency.
// Vehicles without a feasible batch are skipped. Batches of different
// vehicles come from the same tree and may overlap.
func (p ShipmentPlanner) AnalyzeDispatchStrategies(tree *grouping.Tree, vehicles []domain.Vehicle) []DispatchStrategy {
	if tree.Empty() {
		return nil
	}

	out := make([]DispatchStrategy, 0, len(vehicles))
	for _, v := range vehicles {
		batch := tree.FindBestBatchForDispatch(v.CapacityKg, 0)
		if batch == nil {
			continue
		}

		out = append(out, DispatchStrategy{
			Vehicle:     v,
			Batch:       batch,
			Efficiency:  p.DispatchEfficiency(batch, v),
			Description: p.DescribeBatch(batch, v),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Efficiency > out[j].Efficiency })
	return out
}

// DispatchEfficiency scores a batch on a vehicle; higher is better.
func (ShipmentPlanner) DispatchEfficiency(batch grouping.Node, v domain.Vehicle) float64 {
	count := batch.ShipmentCount()
	utilization := v.Utilization(batch.TotalWeight())

	priorityScore := (6 - grouping.AveragePriority(batch)) / 5

	utilizationScore := 0.6
	switch {
	case utilization >= 0.70 && utilization <= 0.95:
		utilizationScore = 1.0
	case utilization >= 0.50:
		utilizationScore = 0.8
	}

	destinationScore := max(0.2, 1-float64(len(grouping.UniqueDestinations(batch)))/float64(count))

	sizeScore := 0.8
	if count >= 3 && count <= 8 {
		sizeScore = 1.0
	}

	return 0.4*priorityScore + 0.3*utilizationScore + 0.2*destinationScore + 0.1*sizeScore
}

func (ShipmentPlanner) DescribeBatch(batch grouping.Node, v domain.Vehicle) string {
	utilization := v.Utilization(batch.TotalWeight()) * 100
	return fmt.Sprintf(
		"Batch of %d shipments (%.1fkg) to %d destination(s). Utilization: %.1f%%. Average priority: %.1f",
		batch.ShipmentCount(),
		batch.TotalWeight(),
		len(grouping.UniqueDestinations(batch)),
		utilization,
		grouping.AveragePriority(batch),
	)
}
