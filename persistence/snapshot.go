package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/kdgo/codec"
	"github.com/hupe1980/kdgo/kdtree"
)

// MaxPayloadSize bounds a single encoded payload.
const MaxPayloadSize = 16 << 20

// MaxDimension bounds the number of coordinates per point.
const MaxDimension = 1 << 16

// arenaChunkBytes is the coordinate memory Read allocates at a time, so the
// node count in a header is never trusted before the records arrive.
const arenaChunkBytes = 1 << 20

// WriteOptions configures Write.
type WriteOptions struct {
	Compression CompressionType
	Codec       codec.Codec // defaults to codec.Default
	BlockSize   int         // defaults to DefaultBlockSize
}

// Write encodes tree as a snapshot and returns the number of bytes written.
func Write[T kdtree.Number, V any](w io.Writer, tree *kdtree.Tree[T, V], opts WriteOptions) (int64, error) {
	kind := KindOf[T]()
	if kind == KindInvalid {
		return 0, fmt.Errorf("%w: unsupported coordinate type %T", ErrCoordinateKind, *new(T))
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if uint64(tree.MaxDepth()) > math.MaxUint32 || tree.Dimension() > MaxDimension {
		return 0, fmt.Errorf("persistence: tree too large for format version %d", Version)
	}

	hdr := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: opts.Compression,
		Dimension:   uint32(tree.Dimension()),
		NodeCount:   uint64(tree.Len()),
		MaxDepth:    uint32(tree.MaxDepth()),
	}
	if err := hdr.setCodecName(opts.Codec.Name()); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 64*1024)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return cw.n, err
	}

	blocks := NewCompressedBlockWriter(bw, opts.Compression, opts.BlockSize)
	body := NewChecksumWriter(blocks)

	var rec []byte
	var err error
	for _, node := range tree.All() {
		rec = rec[:0]
		rec, err = binary.Append(rec, binary.LittleEndian, node.Point())
		if err != nil {
			return cw.n, err
		}

		// Reserve room for the length prefix, then encode the payload after it.
		start := len(rec)
		rec, err = codec.AppendEncode(opts.Codec, rec, node.Payload())
		if err != nil {
			return cw.n, fmt.Errorf("persistence: encode payload: %w", err)
		}
		payload := rec[start:]
		if len(payload) > MaxPayloadSize {
			return cw.n, fmt.Errorf("persistence: payload of %d bytes exceeds %d", len(payload), MaxPayloadSize)
		}

		var prefix [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(prefix[:], uint64(len(payload)))
		if _, err := body.Write(rec[:start]); err != nil {
			return cw.n, err
		}
		if _, err := body.Write(prefix[:n]); err != nil {
			return cw.n, err
		}
		if _, err := body.Write(payload); err != nil {
			return cw.n, err
		}
	}

	if err := blocks.Close(); err != nil {
		return cw.n, err
	}
	if err := binary.Write(bw, binary.LittleEndian, body.Sum()); err != nil {
		return cw.n, err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadHeader decodes and validates the header at the start of r.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var hdr FileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, truncated(err)
	}
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// Read decodes a snapshot written by Write. The coordinate type T must match
// the one recorded in the header; the payload codec is chosen by name.
func Read[T kdtree.Number, V any](r io.Reader) (*kdtree.Tree[T, V], *FileHeader, error) {
	src := bufio.NewReaderSize(r, 64*1024)

	hdr, err := ReadHeader(src)
	if err != nil {
		return nil, nil, err
	}
	if want := KindOf[T](); hdr.Kind != want {
		return nil, hdr, fmt.Errorf("%w: snapshot holds %s, requested %s", ErrCoordinateKind, hdr.Kind, want)
	}
	c, err := codec.Lookup(hdr.CodecName())
	if err != nil {
		return nil, hdr, err
	}
	if hdr.Dimension > MaxDimension || hdr.NodeCount > math.MaxInt32 || uint64(hdr.Dimension)*hdr.NodeCount > math.MaxInt32 {
		return nil, hdr, fmt.Errorf("%w: %d nodes of dimension %d", ErrCorrupt, hdr.NodeCount, hdr.Dimension)
	}

	n, dim := int(hdr.NodeCount), int(hdr.Dimension)
	if required := kdtree.MaxDepth(n); int(hdr.MaxDepth) < required || int(hdr.MaxDepth) > required+kdtree.MaxDepthSlack {
		return nil, hdr, fmt.Errorf("%w: max depth %d for %d nodes", ErrCorrupt, hdr.MaxDepth, n)
	}

	sum := NewChecksumReader(NewCompressedBlockReader(src, hdr.Compression))
	body := bufio.NewReader(sum)

	coordSize := binary.Size(*new(T))
	chunkNodes := max(1, arenaChunkBytes/(dim*coordSize))
	nodes := make([]kdtree.Node[T, V], 0, min(n, chunkNodes))
	coords := make([]byte, dim*coordSize)
	var arena []T
	var payload []byte

	for i := range n {
		if _, err := io.ReadFull(body, coords); err != nil {
			return nil, hdr, truncated(err)
		}
		if len(arena) == 0 {
			arena = make([]T, min(n-i, chunkNodes)*dim)
		}
		point := arena[:dim:dim]
		arena = arena[dim:]
		if _, err := binary.Decode(coords, binary.LittleEndian, point); err != nil {
			return nil, hdr, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		size, err := binary.ReadUvarint(body)
		if err != nil {
			return nil, hdr, truncated(err)
		}
		if size > MaxPayloadSize {
			return nil, hdr, fmt.Errorf("%w: payload of %d bytes", ErrCorrupt, size)
		}
		if cap(payload) < int(size) {
			payload = make([]byte, size)
		}
		payload = payload[:size]
		if _, err := io.ReadFull(body, payload); err != nil {
			return nil, hdr, truncated(err)
		}

		var v V
		if err := c.Unmarshal(payload, &v); err != nil {
			return nil, hdr, fmt.Errorf("persistence: decode payload of node %d: %w", i, err)
		}
		nodes = append(nodes, kdtree.NewNode(point, v))
	}

	// The record stream must end exactly at the end block.
	if _, err := body.ReadByte(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, hdr, fmt.Errorf("%w: trailing records", ErrCorrupt)
		}
		return nil, hdr, err
	}

	var expected uint32
	if err := binary.Read(src, binary.LittleEndian, &expected); err != nil {
		return nil, hdr, truncated(err)
	}
	if err := sum.Verify(expected); err != nil {
		return nil, hdr, err
	}

	tree, err := kdtree.NewTree(nodes, dim, int(hdr.MaxDepth))
	if err != nil {
		return nil, hdr, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tree, hdr, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
