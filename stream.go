package dhuff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/datatrails/go-datatrails-common/logger"
)

// trailer: crc-16 then original size, both little endian
const trailerSize = 2 + 8

var errClosed = errors.New("dhuff: writer closed")

// Stats summarises a stream.
type Stats struct {
	Size     uint64 // plain bytes
	Distinct int    // distinct byte values, end marker excluded
	Bits     int64  // code bits, padding and trailer excluded
}

// Writer compresses everything written to it into a single stream.
type Writer struct {
	h   Header
	bs  *BitSink
	c   *Coder
	cw  crcWriter
	log logger.Logger
	err error
}

// NewWriter writes the stream header to w and returns a Writer for the
// payload. Close must be called to terminate the stream.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	o := newStreamOptions(opts)
	h := Header{
		Alphabet: ByteAlphabet,
		ID:       o.ID,
		Name:     o.Name,
		Created:  o.Created,
	}
	if err := h.writeTo(w); err != nil {
		return nil, err
	}
	c, err := New(ByteAlphabet)
	if err != nil {
		return nil, err
	}
	return &Writer{h: h, bs: NewBitSink(w), c: c, log: o.Log}, nil
}

func (w *Writer) Header() Header { return w.h }

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	for i, b := range p {
		if err := w.c.Encode(w.bs, int(b)); err != nil {
			w.err = err
			_, _ = w.cw.Write(p[:i])
			return i, err
		}
	}
	return w.cw.Write(p)
}

func (w *Writer) Stats() Stats {
	return Stats{Size: w.cw.size, Distinct: w.c.Seen() - w.c.Count(eosSymbol), Bits: w.bs.Bits()}
}

// Close ends the stream with the end marker and the trailer. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		if w.err == errClosed {
			return nil
		}
		return w.err
	}
	if w.err = w.finish(); w.err != nil {
		return w.err
	}
	w.err = errClosed

	if w.log != nil {
		st := w.Stats()
		w.log.Debugf("stream %s: %d bytes, %d distinct, %d code bits, escape at %d",
			w.h.ID, st.Size, st.Distinct, st.Bits, w.c.Escape())
	}
	return nil
}

func (w *Writer) finish() error {
	if err := w.c.Encode(w.bs, eosSymbol); err != nil {
		return err
	}
	if err := w.bs.Align(); err != nil {
		return err
	}
	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint16(trailer[:2], w.cw.crc)
	binary.LittleEndian.PutUint64(trailer[2:], w.cw.size)
	if _, err := w.bs.Write(trailer[:]); err != nil {
		return err
	}
	return w.bs.Close()
}

// Reader decompresses a stream produced by Writer.
type Reader struct {
	h   Header
	bs  *BitSource
	c   *Coder
	cw  crcWriter
	log logger.Logger
	err error
}

// NewReader reads the stream header from r. Only the logger option is used.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	o := newStreamOptions(opts)
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	c, err := New(h.Alphabet)
	if err != nil {
		return nil, err
	}
	return &Reader{h: *h, bs: NewBitSource(r), c: c, log: o.Log}, nil
}

func (r *Reader) Header() Header { return r.h }

func (r *Reader) Stats() Stats {
	return Stats{Size: r.cw.size, Distinct: r.c.Seen() - r.c.Count(eosSymbol), Bits: r.bs.Bits()}
}

// Read returns io.EOF once the end marker has been met and the trailer
// matched, ErrChecksum if it did not.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	n, eos := 0, false
	for n < len(p) {
		s, err := r.c.Decode(r.bs)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			r.err = err
			break
		}
		if s == eosSymbol {
			eos = true
			break
		}
		p[n] = byte(s)
		n++
	}
	_, _ = r.cw.Write(p[:n])

	if eos {
		r.err = r.finish()
	}
	return n, r.err
}

func (r *Reader) finish() error {
	r.bs.Align()
	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r.bs, trailer[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("dhuff: cannot read trailer: %w", err)
	}

	crc := binary.LittleEndian.Uint16(trailer[:2])
	size := binary.LittleEndian.Uint64(trailer[2:])
	if crc != r.cw.crc || size != r.cw.size {
		return fmt.Errorf("dhuff: stream %s: crc %04x, want %04x, size %d, want %d: %w",
			r.h.ID, r.cw.crc, crc, r.cw.size, size, ErrChecksum)
	}

	if r.log != nil {
		st := r.Stats()
		r.log.Debugf("stream %s: %d bytes, %d distinct, %d code bits", r.h.ID, st.Size, st.Distinct, st.Bits)
	}
	return io.EOF
}

// CompressBytes returns data as one complete stream.
func CompressBytes(data []byte, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressBytes decodes a complete stream.
func DecompressBytes(data []byte, opts ...Option) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
