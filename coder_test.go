package dhuff

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emission is what one Encode call sent.
type emission struct {
	path []bool
	id   int // -1 when the symbol was already known
}

type recorder struct {
	out []emission
	cur *emission
}

func (r *recorder) begin() {
	r.out = append(r.out, emission{id: -1})
	r.cur = &r.out[len(r.out)-1]
}

func (r *recorder) PutBit(bit bool) error {
	r.cur.path = append(r.cur.path, bit)
	return nil
}

func (r *recorder) PutSymbol(tb TruncatedBinary, symbol int) error {
	r.cur.id = symbol
	return nil
}

// script replays fixed bits and identifications.
type script struct {
	bits []bool
	ids  []int
}

func (s *script) GetBit() (bool, error) {
	if len(s.bits) == 0 {
		return false, io.EOF
	}
	b := s.bits[0]
	s.bits = s.bits[1:]
	return b, nil
}

func (s *script) GetSymbol(tb TruncatedBinary) (int, error) {
	if len(s.ids) == 0 {
		return 0, io.EOF
	}
	v := s.ids[0]
	s.ids = s.ids[1:]
	return v, nil
}

type failingSink struct{}

func (failingSink) PutBit(bool) error                     { return io.ErrShortWrite }
func (failingSink) PutSymbol(TruncatedBinary, int) error { return io.ErrShortWrite }

func encodeAll(t *testing.T, size int, symbols []int) []byte {
	t.Helper()
	c, err := New(size)
	require.NoError(t, err)

	var buf bytes.Buffer
	sink := NewBitSink(&buf)
	for _, s := range symbols {
		require.NoError(t, c.Encode(sink, s))
	}
	require.NoError(t, sink.Close())
	return buf.Bytes()
}

func randomSymbols(rng *rand.Rand, size, n int) []int {
	symbols := make([]int, n)
	for i := range symbols {
		// skewed towards the low symbols, with a uniform tail
		if rng.Intn(4) == 0 {
			symbols[i] = rng.Intn(size)
		} else {
			symbols[i] = int(rng.ExpFloat64()*float64(size)/8) % size
		}
	}
	return symbols
}

func TestNew(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = New(-3)
	assert.ErrorIs(t, err, ErrInvalidSize)
	// 2*size must stay addressable by a uint32 node index
	_, err = New(1 << 31)
	assert.ErrorIs(t, err, ErrInvalidSize)

	c, err := New(26)
	require.NoError(t, err)
	assert.Equal(t, 26, c.Size())
	assert.Equal(t, 51, c.Escape())
	assert.Equal(t, 0, c.Seen())
	assert.Equal(t, TruncatedBinary{K: 4, U: 6}, c.Params())
	require.NoError(t, c.Verify())
}

func TestSplit(t *testing.T) {
	tr := newTree(4)
	assert.Equal(t, uint32(7), tr.esc)

	leaf, ok := tr.split(2)
	require.True(t, ok)
	assert.Equal(t, uint32(6), leaf)
	assert.Equal(t, uint32(5), tr.esc)
	assert.Equal(t, uint32(6), tr.nodes[7].down)
	assert.Equal(t, uint64(1), tr.nodes[7].weight)
	assert.Equal(t, uint32(7), tr.nodes[5].up)
	assert.Equal(t, uint32(6), tr.leaf[2])
	tr.increment(leaf)
	require.NoError(t, tr.verify())

	for _, s := range []uint32{0, 1} {
		leaf, ok = tr.split(s)
		require.True(t, ok)
		tr.increment(leaf)
		require.NoError(t, tr.verify())
	}
	assert.Equal(t, uint32(1), tr.esc)

	// the last symbol takes the escape node over
	leaf, ok = tr.split(3)
	require.True(t, ok)
	assert.Equal(t, uint32(1), leaf)
	assert.Equal(t, uint32(0), tr.esc)
	tr.increment(leaf)
	require.NoError(t, tr.verify())

	_, ok = tr.split(3)
	assert.False(t, ok)
}

func TestLeader(t *testing.T) {
	tr := newTree(4)
	for _, s := range []uint32{0, 1, 2} {
		leaf, ok := tr.split(s)
		require.True(t, ok)
		tr.increment(leaf)
	}
	require.NoError(t, tr.verify())

	// three leaves of weight 2 share a run, the lowest one is promoted to
	// the end of it
	first := tr.leaf[2]
	lead := tr.leader(first)
	assert.GreaterOrEqual(t, lead, first)
	assert.Equal(t, tr.nodes[first].weight, tr.nodes[lead].weight)
	assert.NotEqual(t, tr.nodes[lead].weight, tr.nodes[lead+1].weight)
	assert.Equal(t, lead, tr.leaf[2])
	require.NoError(t, tr.verify())
}

func TestAardvark(t *testing.T) {
	c, err := New(26)
	require.NoError(t, err)
	tb := c.Params()

	rec := &recorder{}
	for _, r := range "aardvark" {
		rec.begin()
		require.NoError(t, c.Encode(rec, int(r-'a')))
		require.NoError(t, c.Verify())
	}

	assert.Equal(t, 5, c.Seen())
	assert.Equal(t, 3, c.Count(0))
	assert.Equal(t, 2, c.Count('r'-'a'))
	for _, r := range "dvk" {
		assert.Equal(t, 1, c.Count(int(r-'a')), string(r))
	}
	assert.Equal(t, 0, c.Count('z'-'a'))

	// the first a is the escape at the root and its identification
	first := rec.out[0]
	assert.Empty(t, first.path)
	assert.Equal(t, 0, first.id)
	firstLen := len(first.path) + tb.Len(0)
	assert.Equal(t, 4, firstLen)

	second := rec.out[1]
	assert.Equal(t, -1, second.id)
	assert.Equal(t, []bool{false}, second.path)
	assert.Less(t, len(second.path), firstLen)

	ids := []int{}
	for _, e := range rec.out {
		if e.id >= 0 {
			ids = append(ids, e.id)
		}
	}
	assert.Equal(t, []int{0, 'r' - 'a', 'd' - 'a', 'v' - 'a', 'k' - 'a'}, ids)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1987))
	tests := []struct {
		name string
		size int
		n    int
	}{
		{"single symbol", 1, 50},
		{"binary", 2, 200},
		{"three", 3, 300},
		{"letters", 26, 2000},
		{"bytes", 256, 20000},
		{"bytes and marker", 257, 5000},
		{"large alphabet", 1000, 20000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbols := randomSymbols(rng, tt.size, tt.n)

			enc, err := New(tt.size)
			require.NoError(t, err)
			var buf bytes.Buffer
			sink := NewBitSink(&buf)
			esc := enc.Escape()
			for i, s := range symbols {
				require.NoError(t, enc.Encode(sink, s))
				require.NoError(t, enc.Verify(), "encode step %d", i)
				require.LessOrEqual(t, enc.Escape(), esc)
				esc = enc.Escape()
			}
			require.NoError(t, sink.Close())

			dec, err := New(tt.size)
			require.NoError(t, err)
			src := NewBitSource(&buf)
			for i, want := range symbols {
				got, err := dec.Decode(src)
				require.NoError(t, err)
				require.Equal(t, want, got, "decode step %d", i)
				require.NoError(t, dec.Verify(), "decode step %d", i)
			}
			assert.Equal(t, enc.Seen(), dec.Seen())
			assert.Equal(t, enc.Escape(), dec.Escape())
			assert.Equal(t, sink.Bits(), src.Bits())
		})
	}
}

func TestRoundTripEverySymbolOnce(t *testing.T) {
	for _, size := range []int{1, 2, 5, 64, 300} {
		symbols := make([]int, 0, 3*size)
		for s := size - 1; s >= 0; s-- {
			symbols = append(symbols, s)
		}
		for s := 0; s < size; s++ {
			symbols = append(symbols, s, s)
		}

		data := encodeAll(t, size, symbols)

		dec, err := New(size)
		require.NoError(t, err)
		src := NewBitSource(bytes.NewReader(data))
		for i, want := range symbols {
			got, err := dec.Decode(src)
			require.NoError(t, err)
			require.Equal(t, want, got, "size %d step %d", size, i)
		}
		assert.Equal(t, 0, dec.Escape())
		assert.Equal(t, size, dec.Seen())
		require.NoError(t, dec.Verify())
	}
}

func TestDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	symbols := randomSymbols(rng, 256, 5000)
	assert.Equal(t, encodeAll(t, 256, symbols), encodeAll(t, 256, symbols))
}

func TestEncodeOutOfRange(t *testing.T) {
	c, err := New(26)
	require.NoError(t, err)
	rec := &recorder{}
	rec.begin()

	assert.ErrorIs(t, c.Encode(rec, 26), ErrSymbolOutOfRange)
	assert.ErrorIs(t, c.Encode(rec, -1), ErrSymbolOutOfRange)
	assert.Empty(t, rec.out[0].path)
	assert.Equal(t, 0, c.Seen())
}

func TestFullAlphabet(t *testing.T) {
	c, err := New(1)
	require.NoError(t, err)
	rec := &recorder{}

	rec.begin()
	require.NoError(t, c.Encode(rec, 0))
	assert.Equal(t, 0, c.Escape())
	assert.Equal(t, 1, c.Seen())
	require.NoError(t, c.Verify())

	rec.begin()
	assert.ErrorIs(t, c.Encode(rec, 1), ErrSymbolOutOfRange)

	// a single symbol alphabet codes on zero bits
	rec.begin()
	require.NoError(t, c.Encode(rec, 0))
	assert.Empty(t, rec.cur.path)
	assert.Equal(t, -1, rec.cur.id)
	assert.Equal(t, 2, c.Count(0))

	// the decoder never asks for a second identification
	dec, err := New(1)
	require.NoError(t, err)
	src := &script{ids: []int{0}}
	for i := 0; i < 3; i++ {
		got, err := dec.Decode(src)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	}
	assert.Equal(t, 0, dec.Escape())
}

func TestEncodeSinkError(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	rec := &recorder{}
	rec.begin()
	require.NoError(t, c.Encode(rec, 1))

	assert.ErrorIs(t, c.Encode(failingSink{}, 1), io.ErrShortWrite)
	assert.ErrorIs(t, c.Encode(failingSink{}, 2), io.ErrShortWrite)
	assert.Equal(t, 1, c.Seen())
	assert.Equal(t, 1, c.Count(1))
	require.NoError(t, c.Verify())
}

func TestDecodeCorruptEscape(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	got, err := c.Decode(&script{ids: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// escape is the left child of the root: one bit, then a known symbol
	_, err = c.Decode(&script{bits: []bool{true}, ids: []int{1}})
	assert.ErrorIs(t, err, ErrCorruptStream)

	_, err = c.Decode(&script{bits: []bool{true}, ids: []int{9}})
	assert.ErrorIs(t, err, ErrCorruptStream)

	assert.Equal(t, 1, c.Seen())
	assert.Equal(t, 1, c.Count(1))
	require.NoError(t, c.Verify())
}

func TestDecodeExhaustedSource(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	_, err = c.Decode(NewBitSource(bytes.NewReader(nil)))
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)
	assert.Equal(t, 0, c.Seen())
	assert.Equal(t, 7, c.Escape())
}

func TestReset(t *testing.T) {
	c, err := New(26)
	require.NoError(t, err)
	rec := &recorder{}
	for _, r := range "zebra" {
		rec.begin()
		require.NoError(t, c.Encode(rec, int(r-'a')))
	}
	c.Reset()
	assert.Equal(t, 0, c.Seen())
	assert.Equal(t, 51, c.Escape())
	assert.Equal(t, 0, c.Count('z'-'a'))
	require.NoError(t, c.Verify())

	rec.begin()
	require.NoError(t, c.Encode(rec, 'q'-'a'))
	assert.Empty(t, rec.cur.path)
	assert.Equal(t, int('q'-'a'), rec.cur.id)
}

func TestVerifyDetectsDamage(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	rec := &recorder{}
	for _, s := range []int{3, 3, 1, 7, 3} {
		rec.begin()
		require.NoError(t, c.Encode(rec, s))
	}
	require.NoError(t, c.Verify())

	n := c.t.leaf[3]
	c.t.nodes[n].weight++
	assert.ErrorIs(t, c.Verify(), ErrInvariantViolation)
}
