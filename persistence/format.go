package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/kdgo/kdtree"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "KDT0").
	MagicNumber = 0x4B445430
	// Version is the current file format version.
	Version = 1

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 56

	maxCodecName = 16
)

var (
	// ErrInvalidMagic is returned when a file does not start with MagicNumber.
	ErrInvalidMagic = errors.New("persistence: invalid magic number")
	// ErrInvalidVersion is returned for a format version this package cannot read.
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	// ErrCoordinateKind is returned when a snapshot is read with a coordinate
	// type other than the one it was written with.
	ErrCoordinateKind = errors.New("persistence: coordinate type mismatch")
	// ErrCorrupt is returned for truncated input, checksum mismatches and
	// header fields that are out of range.
	ErrCorrupt = errors.New("persistence: corrupt snapshot")
)

// CoordinateKind records the coordinate type of a snapshot.
type CoordinateKind uint8

// Coordinate kinds. The values are part of the file format and must not be
// reordered. KindInvalid never appears in a valid snapshot.
const (
	KindInvalid CoordinateKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
)

var kindNames = [...]string{"invalid", "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64", "float32", "float64"}

// String returns the Go name of the coordinate type.
func (k CoordinateKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("CoordinateKind(%d)", uint8(k))
}

// KindOf returns the CoordinateKind of T. Named types report the kind of
// their underlying type only if they are one of the predeclared types.
func KindOf[T kdtree.Number]() CoordinateKind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	default:
		return KindInvalid
	}
}

// FileHeader is the fixed-size header at the start of every snapshot.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Kind        CoordinateKind
	Compression CompressionType
	Padding     [2]byte
	Dimension   uint32
	NodeCount   uint64
	MaxDepth    uint32
	Codec       [maxCodecName]byte // zero padded
	Reserved    [12]byte
}

// CodecName returns the codec name stored in the header.
func (h *FileHeader) CodecName() string {
	return strings.TrimRight(string(h.Codec[:]), "\x00")
}

func (h *FileHeader) setCodecName(name string) error {
	if len(name) == 0 || len(name) > maxCodecName {
		return fmt.Errorf("persistence: codec name %q must be 1-%d bytes", name, maxCodecName)
	}
	h.Codec = [maxCodecName]byte{}
	copy(h.Codec[:], name)
	return nil
}

func (h *FileHeader) validate() error {
	if h.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	if h.Dimension == 0 || h.NodeCount == 0 {
		return fmt.Errorf("%w: empty tree in header", ErrCorrupt)
	}
	if h.Compression > CompressionZSTD {
		return fmt.Errorf("%w: unknown compression %d", ErrCorrupt, h.Compression)
	}
	return nil
}
