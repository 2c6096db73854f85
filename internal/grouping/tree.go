package grouping

import (
	"strings"

	"cargo-dispatch-service/internal/domain"
)

// Tree owns a single root node. The zero value is an empty tree.
type Tree struct {
	root Node
}

func NewTree(root Node) *Tree {
	return &Tree{root: root}
}

func (t *Tree) Root() Node {
	if t == nil {
		return nil
	}
	return t.root
}

func (t *Tree) Empty() bool { return t.Root() == nil }

// FindBestBatchForDispatch searches the whole tree. maxShipments <= 0 means
// no cap on the batch size.
func (t *Tree) FindBestBatchForDispatch(capacityKg float64, maxShipments int) Node {
	return FindBestBatch(t.Root(), capacityKg, maxShipments)
}

// FindBestBatch returns the feasible node in the subtree with the lowest
// average priority, or nil when nothing fits. A node is feasible when its
// weight fits the capacity and its shipment count fits maxShipments.
// Ties keep the earlier candidate: the node itself, then its left subtree,
// then its right subtree.
func FindBestBatch(n Node, capacityKg float64, maxShipments int) Node {
	if n == nil {
		return nil
	}

	feasible := n.TotalWeight() <= capacityKg &&
		(maxShipments <= 0 || n.ShipmentCount() <= maxShipments)

	in, ok := n.(*Internal)
	if !ok {
		if feasible {
			return n
		}
		return nil
	}

	var best Node
	consider := func(c Node) {
		if c == nil {
			return
		}
		if best == nil || AveragePriority(c) < AveragePriority(best) {
			best = c
		}
	}

	if feasible {
		consider(n)
	}
	consider(FindBestBatch(in.left, capacityKg, maxShipments))
	consider(FindBestBatch(in.right, capacityKg, maxShipments))

	return best
}

// Stats summarises the whole tree. Height counts the root as depth 1.
func (t *Tree) Stats() domain.TreeStats {
	root := t.Root()
	if root == nil {
		return domain.TreeStats{}
	}
	return domain.TreeStats{
		TotalShipments:  root.ShipmentCount(),
		TotalWeightKg:   root.TotalWeight(),
		AveragePriority: AveragePriority(root),
		Height:          height(root),
	}
}

func height(n Node) int {
	in, ok := n.(*Internal)
	if !ok {
		return 1
	}
	return 1 + max(height(in.left), height(in.right))
}

// Lines dumps the tree in pre-order, one indented line per node.
func (t *Tree) Lines() []string {
	var out []string
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		out = append(out, strings.Repeat("  ", depth)+Describe(n))
		if in, ok := n.(*Internal); ok {
			walk(in.left, depth+1)
			walk(in.right, depth+1)
		}
	}
	if root := t.Root(); root != nil {
		walk(root, 0)
	}
	return out
}
