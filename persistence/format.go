package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic identifies nodefinder snapshot files (ASCII: "NDFS").
	Magic uint32 = 0x4E444653
	// Version is the current snapshot format version.
	Version uint16 = 1

	// MaxPayloadSize bounds the payload a snapshot may declare.
	MaxPayloadSize = 1 << 34
)

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	ErrCorrupt        = errors.New("persistence: corrupt snapshot")
)

// Header describes a snapshot payload.
//
// Layout (little endian):
//
//	magic       uint32
//	version     uint16
//	compression uint8
//	codecLen    uint8
//	codec       [codecLen]byte
//	size        uint64 (stored payload bytes)
//	rawSize     uint64 (payload bytes after decompression)
//	checksum    uint32 (CRC32 of the stored payload)
type Header struct {
	Version     uint16
	Compression CompressionType
	Codec       string
	Size        uint64
	RawSize     uint64
	Checksum    uint32
}

// WriteSnapshot compresses payload and writes it with a header to w.
// The compression actually used may be CompressionNone if the requested
// one does not pay off.
func WriteSnapshot(w io.Writer, codecName string, compression CompressionType, payload []byte) (Header, error) {
	if len(codecName) == 0 || len(codecName) > 255 {
		return Header{}, fmt.Errorf("persistence: invalid codec name %q", codecName)
	}

	stored, used, err := compress(payload, compression)
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Version:     Version,
		Compression: used,
		Codec:       codecName,
		Size:        uint64(len(stored)),
		RawSize:     uint64(len(payload)),
		Checksum:    Checksum(stored),
	}

	var buf bytes.Buffer
	buf.Grow(4 + 2 + 1 + 1 + len(codecName) + 8 + 8 + 4)
	_ = binary.Write(&buf, binary.LittleEndian, Magic)
	_ = binary.Write(&buf, binary.LittleEndian, h.Version)
	buf.WriteByte(byte(h.Compression))
	buf.WriteByte(byte(len(codecName)))
	buf.WriteString(codecName)
	_ = binary.Write(&buf, binary.LittleEndian, h.Size)
	_ = binary.Write(&buf, binary.LittleEndian, h.RawSize)
	_ = binary.Write(&buf, binary.LittleEndian, h.Checksum)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return Header{}, err
	}
	if _, err := w.Write(stored); err != nil {
		return Header{}, err
	}
	return h, nil
}

// ReadSnapshot reads a snapshot from r, verifies its checksum and returns
// the decompressed payload.
func ReadSnapshot(r io.Reader) (Header, []byte, error) {
	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if m := binary.LittleEndian.Uint32(fixed[0:]); m != Magic {
		return Header{}, nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, m)
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(fixed[4:]),
		Compression: CompressionType(fixed[6]),
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}

	rest := make([]byte, int(fixed[7])+8+8+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return h, nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	n := int(fixed[7])
	h.Codec = string(rest[:n])
	h.Size = binary.LittleEndian.Uint64(rest[n:])
	h.RawSize = binary.LittleEndian.Uint64(rest[n+8:])
	h.Checksum = binary.LittleEndian.Uint32(rest[n+16:])

	if h.Size > MaxPayloadSize || h.RawSize > MaxPayloadSize {
		return h, nil, fmt.Errorf("%w: payload of %d bytes exceeds limit", ErrCorrupt, max(h.Size, h.RawSize))
	}

	stored := make([]byte, h.Size)
	if _, err := io.ReadFull(r, stored); err != nil {
		return h, nil, fmt.Errorf("%w: payload: %w", ErrCorrupt, err)
	}
	if err := VerifyChecksum(stored, h.Checksum); err != nil {
		return h, nil, err
	}

	payload, err := decompress(stored, h.Compression, int(h.RawSize))
	if err != nil {
		return h, nil, err
	}
	return h, payload, nil
}
