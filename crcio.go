package dhuff

import "io"

const (
	charBit = 8
	crcpoly = 0xA001 /* crc-16 (x^16+x^15+x^2+1) */
)

var crctable = makeCrcTable()

func makeCrcTable() (table [256]uint16) {
	for i := range table {
		r := uint16(i)
		for j := 0; j < charBit; j++ {
			if r&1 != 0 {
				r = (r >> 1) ^ crcpoly
			} else {
				r >>= 1
			}
		}
		table[i] = r
	}
	return table
}

func updateCrc(crc uint16, c byte) uint16 {
	return crctable[byte(crc)^c] ^ (crc >> charBit)
}

func calcCrc(crc uint16, p []byte) uint16 {
	for _, c := range p {
		crc = updateCrc(crc, c)
	}
	return crc
}

// crcWriter keeps the running crc and size of everything written through it.
type crcWriter struct {
	w    io.Writer
	crc  uint16
	size uint64
}

func (cw *crcWriter) Write(p []byte) (int, error) {
	n := len(p)
	var err error
	if cw.w != nil {
		n, err = cw.w.Write(p)
	}
	cw.crc = calcCrc(cw.crc, p[:n])
	cw.size += uint64(n)
	return n, err
}
