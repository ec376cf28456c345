package dhuff

// TruncatedBinary holds the parameters of the minimal fixed length code for
// an alphabet of n items: U values take K bits, the remaining n-U take K+1.
type TruncatedBinary struct {
	K uint8  // floor(log2 n)
	U uint32 // unused (K+1)-bit codewords, 2^(K+1) - n
}

// NewTruncatedBinary derives the parameters for an alphabet of n > 0 items.
func NewTruncatedBinary(n int) TruncatedBinary {
	if n < 1 {
		panic("truncated binary alphabet must not be empty")
	}
	var k uint8
	for t := uint32(n); t > 1; t >>= 1 {
		k++
	}
	return TruncatedBinary{
		K: k,
		U: uint32(1)<<(k+1) - uint32(n),
	}
}

// Len returns the number of bits used to identify v.
func (tb TruncatedBinary) Len(v int) int {
	if uint32(v) < tb.U {
		return int(tb.K)
	}
	return int(tb.K) + 1
}

// codeword returns the bits and width sent for v.
func (tb TruncatedBinary) codeword(v int) (uint64, uint8) {
	if uint32(v) < tb.U {
		return uint64(v), tb.K
	}
	return uint64(v) + uint64(tb.U), tb.K + 1
}
