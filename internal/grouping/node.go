// Package grouping holds the binary batch tree used by the dispatch planner.
//
// Leaves carry a single shipment; internal nodes own exactly two children and
// cache the summed priority and weight of their subtree. Nodes are immutable
// once built.
package grouping

import (
	"fmt"

	"cargo-dispatch-service/internal/domain"
)

// Node is either a *Leaf or an *Internal.
type Node interface {
	// Priority is the sum of shipment priorities in the subtree.
	Priority() int
	TotalWeight() float64
	ShipmentCount() int

	isNode()
}

type Leaf struct {
	shipment domain.Shipment
}

func NewLeaf(s domain.Shipment) *Leaf {
	return &Leaf{shipment: s}
}

func (l *Leaf) Shipment() domain.Shipment { return l.shipment }
func (l *Leaf) Priority() int             { return l.shipment.Priority }
func (l *Leaf) TotalWeight() float64      { return l.shipment.WeightKg }
func (l *Leaf) ShipmentCount() int        { return 1 }
func (*Leaf) isNode()                     {}

type Internal struct {
	left, right Node
	priority    int
	weight      float64
	count       int
}

// NewInternal merges two subtrees. Both must be non-nil.
func NewInternal(left, right Node) *Internal {
	if left == nil || right == nil {
		panic("grouping: internal node needs two children")
	}
	return &Internal{
		left:     left,
		right:    right,
		priority: left.Priority() + right.Priority(),
		weight:   left.TotalWeight() + right.TotalWeight(),
		count:    left.ShipmentCount() + right.ShipmentCount(),
	}
}

func (n *Internal) Left() Node           { return n.left }
func (n *Internal) Right() Node          { return n.right }
func (n *Internal) Priority() int        { return n.priority }
func (n *Internal) TotalWeight() float64 { return n.weight }
func (n *Internal) ShipmentCount() int   { return n.count }
func (*Internal) isNode()                {}

// AveragePriority is the subtree priority divided by its shipment count.
func AveragePriority(n Node) float64 {
	if n == nil || n.ShipmentCount() == 0 {
		return 0
	}
	return float64(n.Priority()) / float64(n.ShipmentCount())
}

// Shipments returns the subtree's shipments, left to right.
func Shipments(n Node) []domain.Shipment {
	if n == nil {
		return nil
	}
	out := make([]domain.Shipment, 0, n.ShipmentCount())
	walkLeaves(n, func(l *Leaf) { out = append(out, l.shipment) })
	return out
}

// UniqueDestinations returns destination ids in left-to-right first-seen order.
func UniqueDestinations(n Node) []string {
	return domain.DistinctDestinations(Shipments(n))
}

func UniqueOrigins(n Node) []string {
	seen := make(map[string]struct{})
	var out []string
	walkLeaves(n, func(l *Leaf) {
		id := l.shipment.OriginID
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	})
	return out
}

// Describe renders a one-line summary of the node.
func Describe(n Node) string {
	switch v := n.(type) {
	case *Leaf:
		return fmt.Sprintf("Leaf[%s] weight=%.1fkg priority=%d dest=%s",
			v.shipment.ID, v.shipment.WeightKg, v.shipment.Priority, v.shipment.DestinationID)
	case *Internal:
		return fmt.Sprintf("Group[%d shipments] weight=%.1fkg avg_priority=%.2f",
			v.count, v.weight, AveragePriority(v))
	default:
		return "<nil>"
	}
}

func walkLeaves(n Node, fn func(*Leaf)) {
	switch v := n.(type) {
	case *Leaf:
		fn(v)
	case *Internal:
		walkLeaves(v.left, fn)
		walkLeaves(v.right, fn)
	}
}
