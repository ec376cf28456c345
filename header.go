package dhuff

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const (
	// MethodID opens every stream, in the spirit of the lzh "-lh5-" ids.
	MethodID = "-dh1-"

	methodTypeStorage = len(MethodID)
	maxHeaderSize     = 1<<16 - 1

	// ByteAlphabet is the alphabet of the byte streams: 256 byte values and
	// the end of stream marker.
	ByteAlphabet = 257
	eosSymbol    = 256
)

// Header describes a stream. It is stored CBOR encoded after the method id.
type Header struct {
	Alphabet int       `cbor:"1,keyasint"`
	ID       uuid.UUID `cbor:"-"`
	Name     string    `cbor:"3,keyasint,omitempty"`
	Created  time.Time `cbor:"-"`

	RawID      []byte `cbor:"2,keyasint"`
	CreatedSec int64  `cbor:"4,keyasint,omitempty"`
}

func (h Header) String() string {
	created := "-"
	if !h.Created.IsZero() {
		created = h.Created.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s %s alphabet=%d created=%s name=%q", MethodID, h.ID, h.Alphabet, created, h.Name)
}

func (h *Header) marshalBinary() ([]byte, error) {
	h.RawID = h.ID[:]
	h.CreatedSec = 0
	if !h.Created.IsZero() {
		h.CreatedSec = h.Created.Unix()
	}
	body, err := cbor.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(body) > maxHeaderSize {
		return nil, fmt.Errorf("dhuff: header of %d bytes too large", len(body))
	}

	data := make([]byte, 0, methodTypeStorage+2+len(body))
	data = append(data, MethodID...)
	data = binary.LittleEndian.AppendUint16(data, uint16(len(body)))
	return append(data, body...), nil
}

func (h *Header) writeTo(w io.Writer) error {
	data, err := h.marshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadHeader reads the method id and the header of a stream.
func ReadHeader(r io.Reader) (*Header, error) {
	var lead [methodTypeStorage + 2]byte
	if _, err := io.ReadFull(r, lead[:]); err != nil {
		return nil, fmt.Errorf("dhuff: cannot read header: %w", err)
	}
	if string(lead[:methodTypeStorage]) != MethodID {
		return nil, fmt.Errorf("dhuff: method %q: %w", lead[:methodTypeStorage], ErrBadMethod)
	}

	body := make([]byte, binary.LittleEndian.Uint16(lead[methodTypeStorage:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("dhuff: cannot read header: %w", err)
	}
	h := &Header{}
	if err := cbor.Unmarshal(body, h); err != nil {
		return nil, fmt.Errorf("dhuff: bad header: %w", err)
	}
	id, err := uuid.FromBytes(h.RawID)
	if err != nil {
		return nil, fmt.Errorf("dhuff: bad stream id: %w", err)
	}
	h.ID = id
	if h.CreatedSec != 0 {
		h.Created = time.Unix(h.CreatedSec, 0).UTC()
	}
	if h.Alphabet != ByteAlphabet {
		return nil, fmt.Errorf("dhuff: alphabet %d: %w", h.Alphabet, ErrBadMethod)
	}
	return h, nil
}
