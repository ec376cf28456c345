package dhuff

import (
	"fmt"
	"math"
)

/*
 * Dynamic Huffman table, FGK with Vitter's implicit numbering.
 *
 * Nodes live in one flat table addressed 1..2*size-1, ranked by weight:
 * leaves precede internal nodes of the same weight. Weights move by 2 so
 * leaves stay even and internal nodes odd. Children of an internal node are
 * always the adjacent pair down-1 (left, odd) and down (right, even).
 *
 * 2*size-1 is the root. esc is the escape node, the slot for the next
 * unseen symbol. It only ever moves down and reaches 0 once the alphabet
 * is full.
 */

type node struct {
	up     uint32 // parent, 0 at the root
	down   uint32 // right child, left is down-1; 0 for a leaf
	symbol uint32 // leaves only
	weight uint64
}

type tree struct {
	nodes []node   // [0] unused, [2*size] sentinel
	leaf  []uint32 // symbol -> leaf node, 0 if not seen yet
	esc   uint32
	root  uint32
}

func newTree(size int) *tree {
	t := &tree{
		nodes: make([]node, 2*size+1),
		leaf:  make([]uint32, size),
		root:  uint32(2*size - 1),
	}
	t.reset()
	return t
}

func (t *tree) reset() {
	for i := range t.nodes {
		t.nodes[i] = node{}
	}
	for i := range t.leaf {
		t.leaf[i] = 0
	}
	// stops the forward scans of leader and slide at the root
	t.nodes[len(t.nodes)-1].weight = math.MaxUint64
	t.esc = t.root
}

func (t *tree) isLeaf(n uint32) bool {
	return t.nodes[n].down == 0
}

// split turns the escape node into the parent of the new symbol's leaf and
// a fresh escape node. The last symbol of the alphabet takes over the escape
// node itself. It returns the new leaf, false when the tree is already full.
func (t *tree) split(symbol uint32) (uint32, bool) {
	pair := t.esc
	if pair == 0 {
		return 0, false
	}
	t.esc--

	leaf := t.esc
	if leaf == 0 {
		// pair is node 1, keep its parent link
		leaf = pair
	} else {
		t.nodes[pair].down = leaf
		t.nodes[pair].weight = 1
		t.nodes[leaf].up = pair
		t.esc--
		t.nodes[t.esc] = node{up: pair}
	}

	t.nodes[leaf].symbol = symbol
	t.nodes[leaf].weight = 0
	t.nodes[leaf].down = 0
	t.leaf[symbol] = leaf
	return leaf, true
}

// leader moves a leaf's symbol to the last node of its run of equal
// weights, exchanging symbols with the leaf found there.
func (t *tree) leader(n uint32) uint32 {
	weight := t.nodes[n].weight
	lead := n
	for weight == t.nodes[lead+1].weight {
		lead++
	}
	if lead == n {
		return n
	}

	symbol := t.nodes[n].symbol
	prev := t.nodes[lead].symbol
	t.nodes[lead].symbol = symbol
	t.nodes[n].symbol = prev
	t.leaf[symbol] = lead
	t.leaf[prev] = n
	return lead
}

// slide exchanges n with the node ahead of it: an internal node jumps over
// the whole run of lighter leaves, a leaf over the next internal node.
// Parent links stay with positions. Returns the new position of n.
func (t *tree) slide(n uint32) uint32 {
	next := n + 1
	swap := t.nodes[n]

	if swap.weight&1 == 1 {
		for swap.weight > t.nodes[next+1].weight {
			next++
		}
	}

	t.nodes[n] = t.nodes[next]
	t.nodes[next] = swap
	t.nodes[next].up = t.nodes[n].up
	t.nodes[n].up = swap.up

	if swap.weight&1 == 1 {
		t.nodes[swap.down].up = next
		t.nodes[swap.down-1].up = next
		t.leaf[t.nodes[n].symbol] = n
	} else {
		down := t.nodes[n].down
		if down < 2 {
			panic(fmt.Errorf("%w: leaf %d slid over leaf %d", ErrInvariantViolation, n, next))
		}
		t.nodes[down-1].up = n
		t.nodes[down].up = n
		t.leaf[swap.symbol] = next
	}
	return next
}

// increment records one more occurrence of leaf n and rebalances the tree
// from n up to the root.
func (t *tree) increment(n uint32) {
	// a leaf right below its parent would otherwise be swapped with it
	if t.nodes[n].up == n+1 {
		t.nodes[n].weight += 2
		n++
	} else {
		n = t.leader(n)
	}

	for {
		t.nodes[n].weight += 2
		up := t.nodes[n].up
		if up == 0 {
			return
		}
		for t.nodes[n].weight > t.nodes[n+1].weight {
			n = t.slide(n)
		}
		// internal nodes continue from where they were, leaves from where
		// they landed
		if t.nodes[n].weight&1 == 1 {
			n = up
		} else {
			n = t.nodes[n].up
		}
	}
}

// low is the first live node of the table.
func (t *tree) low() uint32 {
	if t.esc == 0 {
		return 1
	}
	return t.esc
}

// verify checks the rank, parity and sidedness invariants, the symbol map
// and the weight of every internal node against its children.
func (t *tree) verify() error {
	if t.nodes[t.root].up != 0 {
		return fmt.Errorf("%w: root %d has parent %d", ErrInvariantViolation, t.root, t.nodes[t.root].up)
	}
	if t.esc != 0 && (t.esc&1 == 0 || t.esc > t.root) {
		return fmt.Errorf("%w: escape node at %d", ErrInvariantViolation, t.esc)
	}
	if t.esc != 0 && !t.isLeaf(t.esc) {
		return fmt.Errorf("%w: escape node %d has children", ErrInvariantViolation, t.esc)
	}

	for i := t.low(); i <= t.root; i++ {
		n := t.nodes[i]
		if i < t.root && n.weight > t.nodes[i+1].weight {
			return fmt.Errorf("%w: weight[%d]=%d > weight[%d]=%d",
				ErrInvariantViolation, i, n.weight, i+1, t.nodes[i+1].weight)
		}
		if err := t.verifyNode(i); err != nil {
			return err
		}
		if i == t.root {
			continue
		}
		up := n.up
		if up < t.low() || up > t.root || t.isLeaf(up) {
			return fmt.Errorf("%w: node %d has parent %d", ErrInvariantViolation, i, up)
		}
		right := i
		if i&1 == 1 {
			right = i + 1
		}
		if t.nodes[up].down != right {
			return fmt.Errorf("%w: node %d is not a child of its parent %d", ErrInvariantViolation, i, up)
		}
	}

	for s, i := range t.leaf {
		if i == 0 {
			continue
		}
		if i < t.low() || i > t.root || !t.isLeaf(i) || t.nodes[i].symbol != uint32(s) {
			return fmt.Errorf("%w: symbol %d mapped to node %d", ErrInvariantViolation, s, i)
		}
	}
	return nil
}

func (t *tree) verifyNode(i uint32) error {
	n := t.nodes[i]
	if t.isLeaf(i) {
		if n.weight&1 != 0 {
			return fmt.Errorf("%w: leaf %d has odd weight %d", ErrInvariantViolation, i, n.weight)
		}
		if i == t.esc {
			return nil
		}
		if int(n.symbol) >= len(t.leaf) || t.leaf[n.symbol] != i {
			return fmt.Errorf("%w: leaf %d holds unmapped symbol %d", ErrInvariantViolation, i, n.symbol)
		}
		return nil
	}

	if n.weight&1 != 1 {
		return fmt.Errorf("%w: internal node %d has even weight %d", ErrInvariantViolation, i, n.weight)
	}
	if n.down&1 != 0 || n.down-1 < t.low() || n.down > t.root {
		return fmt.Errorf("%w: internal node %d has children at %d", ErrInvariantViolation, i, n.down)
	}
	left, right := t.nodes[n.down-1], t.nodes[n.down]
	if left.up != i || right.up != i {
		return fmt.Errorf("%w: children of %d point to %d and %d", ErrInvariantViolation, i, left.up, right.up)
	}
	if want := 2*(left.weight/2+right.weight/2) + 1; n.weight != want {
		return fmt.Errorf("%w: internal node %d weighs %d, children add up to %d",
			ErrInvariantViolation, i, n.weight, want)
	}
	return nil
}
