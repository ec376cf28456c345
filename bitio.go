package dhuff

import (
	"io"

	"github.com/icza/bitio"
)

// Sink receives the output of Coder.Encode.
type Sink interface {
	PutBit(bit bool) error
	// PutSymbol sends the identification of a symbol met for the first time.
	PutSymbol(tb TruncatedBinary, symbol int) error
}

// Source feeds Coder.Decode.
type Source interface {
	GetBit() (bool, error)
	GetSymbol(tb TruncatedBinary) (int, error)
}

// BitSink packs code bits, most significant first, into an io.Writer.
type BitSink struct {
	w    *bitio.Writer
	bits int64
}

func NewBitSink(w io.Writer) *BitSink {
	return &BitSink{w: bitio.NewWriter(w)}
}

func (s *BitSink) PutBit(bit bool) error {
	if err := s.w.WriteBool(bit); err != nil {
		return err
	}
	s.bits++
	return nil
}

// PutSymbol writes the truncated binary code of symbol: symbols below U on
// K bits, the others as symbol+U on K+1 bits.
func (s *BitSink) PutSymbol(tb TruncatedBinary, symbol int) error {
	v, n := tb.codeword(symbol)
	if n == 0 {
		return nil
	}
	if err := s.w.WriteBits(v, n); err != nil {
		return err
	}
	s.bits += int64(n)
	return nil
}

// Bits returns the number of bits written so far, padding excluded.
func (s *BitSink) Bits() int64 { return s.bits }

// Align pads with zero bits up to the next byte boundary.
func (s *BitSink) Align() error {
	_, err := s.w.Align()
	return err
}

// Write sends p as whole bytes, the sink must be aligned.
func (s *BitSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close flushes the pending bits, padded with zeros. The underlying writer
// is not closed.
func (s *BitSink) Close() error {
	return s.w.Close()
}

// BitSource reads what a BitSink produced.
type BitSource struct {
	r    *bitio.Reader
	bits int64
}

func NewBitSource(r io.Reader) *BitSource {
	return &BitSource{r: bitio.NewReader(r)}
}

func (s *BitSource) GetBit() (bool, error) {
	b, err := s.r.ReadBool()
	if err != nil {
		return false, err
	}
	s.bits++
	return b, nil
}

// GetSymbol reads K bits and, when they do not form a short codeword, one
// more bit.
func (s *BitSource) GetSymbol(tb TruncatedBinary) (int, error) {
	var v uint64
	if tb.K > 0 {
		var err error
		if v, err = s.r.ReadBits(tb.K); err != nil {
			return 0, err
		}
		s.bits += int64(tb.K)
	}
	if v >= uint64(tb.U) {
		b, err := s.GetBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
		v -= uint64(tb.U)
	}
	return int(v), nil
}

// Bits returns the number of bits consumed so far.
func (s *BitSource) Bits() int64 { return s.bits }

// Align skips to the next byte boundary.
func (s *BitSource) Align() {
	s.r.Align()
}

// Read reads whole bytes, the source must be aligned.
func (s *BitSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}
