package dhuff

import "fmt"

// Coder is one direction of an adaptive Huffman stream over the alphabet
// [0, Size()). The encoder and the decoder of a stream each own a Coder of
// the same size. Both evolve identically as long as they see the same
// symbols in the same order, so no code table is ever transmitted.
//
// A Coder is not safe for concurrent use.
type Coder struct {
	size  int
	tb    TruncatedBinary
	t     *tree
	stack []bool
	seen  int
}

// New returns an empty coder for an alphabet of size symbols.
func New(size int) (*Coder, error) {
	if size < 1 || uint64(size) >= 1<<31 {
		return nil, fmt.Errorf("dhuff: size %d: %w", size, ErrInvalidSize)
	}
	return &Coder{
		size:  size,
		tb:    NewTruncatedBinary(size),
		t:     newTree(size),
		stack: make([]bool, 0, 2*size),
	}, nil
}

// Reset forgets every symbol seen so far.
func (c *Coder) Reset() {
	c.t.reset()
	c.seen = 0
}

func (c *Coder) Size() int { return c.size }

// Params returns the truncated binary parameters used to identify symbols
// on their first occurrence.
func (c *Coder) Params() TruncatedBinary { return c.tb }

// Seen returns the number of distinct symbols introduced so far.
func (c *Coder) Seen() int { return c.seen }

// Escape returns the current escape node index, 0 once every symbol of the
// alphabet has been introduced.
func (c *Coder) Escape() int { return int(c.t.esc) }

// Count returns how many times symbol has been coded.
func (c *Coder) Count(symbol int) int {
	if symbol < 0 || symbol >= c.size {
		return 0
	}
	n := c.t.leaf[symbol]
	if n == 0 {
		return 0
	}
	return int(c.t.nodes[n].weight / 2)
}

// Verify checks the whole table. It returns an error wrapping
// ErrInvariantViolation on the first inconsistency found.
func (c *Coder) Verify() error {
	return c.t.verify()
}

// Encode sends symbol to w: the path bits of its leaf, or for a first
// occurrence the path to the escape node followed by its identification.
// The tree is only updated once w accepted everything, but a failed write
// leaves the stream itself unusable.
func (c *Coder) Encode(w Sink, symbol int) error {
	if symbol < 0 || symbol >= c.size {
		return fmt.Errorf("dhuff: encode %d of %d: %w", symbol, c.size, ErrSymbolOutOfRange)
	}

	n := c.t.leaf[symbol]
	idx := n
	if idx == 0 {
		if idx = c.t.esc; idx == 0 {
			return fmt.Errorf("dhuff: encode %d: %w", symbol, ErrAlphabetExhausted)
		}
	}

	stack := c.stack[:0]
	for up := c.t.nodes[idx].up; up != 0; up = c.t.nodes[idx].up {
		if len(stack) == cap(stack) {
			panic(fmt.Errorf("%w: no root above node %d", ErrInvariantViolation, n))
		}
		stack = append(stack, idx&1 == 1)
		idx = up
	}
	// root selector bit first
	for i := len(stack) - 1; i >= 0; i-- {
		if err := w.PutBit(stack[i]); err != nil {
			return err
		}
	}

	if n == 0 {
		if err := w.PutSymbol(c.tb, symbol); err != nil {
			return err
		}
		n, _ = c.t.split(uint32(symbol))
		c.seen++
	}
	c.t.increment(n)
	return nil
}

// Decode reads the next symbol from r.
func (c *Coder) Decode(r Source) (int, error) {
	n := c.t.root
	for down := c.t.nodes[n].down; down != 0; down = c.t.nodes[n].down {
		if down < 2 || down > c.t.root {
			panic(fmt.Errorf("%w: node %d has children at %d", ErrInvariantViolation, n, down))
		}
		bit, err := r.GetBit()
		if err != nil {
			return 0, err
		}
		// one is left, the left child precedes the right one
		if bit {
			n = down - 1
		} else {
			n = down
		}
	}

	if n != c.t.esc {
		symbol := c.t.nodes[n].symbol
		c.t.increment(n)
		return int(symbol), nil
	}
	if c.t.esc == 0 {
		return 0, fmt.Errorf("dhuff: decode: %w", ErrAlphabetExhausted)
	}

	symbol, err := r.GetSymbol(c.tb)
	if err != nil {
		return 0, err
	}
	if symbol < 0 || symbol >= c.size {
		return 0, fmt.Errorf("dhuff: decode escape %d of %d: %w", symbol, c.size, ErrCorruptStream)
	}
	if c.t.leaf[symbol] != 0 {
		return 0, fmt.Errorf("dhuff: decode escape %d already seen: %w", symbol, ErrCorruptStream)
	}
	n, _ = c.t.split(uint32(symbol))
	c.seen++
	c.t.increment(n)
	return symbol, nil
}
