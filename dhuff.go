// Package dhuff implements a one pass adaptive Huffman coder (Vitter's
// variant of algorithm FGK) over a bounded alphabet.
//
// Encoder and decoder each keep a Coder that evolves symbol by symbol, so the
// code table never travels with the data. A symbol seen for the first time
// is sent as the code of the escape node followed by its truncated binary
// identification.
//
// Coder is the bare engine, bit I/O goes through the Sink and Source
// interfaces. Writer and Reader wrap it into a self describing byte stream
// with a header and a CRC-16 trailer.
package dhuff

const (
	PackageName    = "dhuff"
	PackageVersion = "1.0"
)
