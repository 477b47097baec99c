package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the block compression of a snapshot body.
type CompressionType uint8

const (
	// CompressionNone stores blocks as-is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" and "zstd" to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// DefaultBlockSize is the uncompressed size of a body block.
const DefaultBlockSize = 256 * 1024

// maxBlockSize bounds allocations driven by block headers.
const maxBlockSize = 64 << 20

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// Block layout: [uncompressed uint32][compressed uint32][data].
// compressed == 0 marks a stored block; both sizes zero mark end of stream.
const blockHeaderSize = 8

// CompressedBlockWriter buffers writes and emits compressed blocks.
// Close must be called to write the end-of-stream block.
type CompressedBlockWriter struct {
	w               io.Writer
	compressionType CompressionType
	blockSize       int
	buf             []byte
	scratch         []byte
	written         int64
}

// NewCompressedBlockWriter creates a new compressed block writer.
func NewCompressedBlockWriter(w io.Writer, compressionType CompressionType, blockSize int) *CompressedBlockWriter {
	if blockSize <= 0 || blockSize > maxBlockSize {
		blockSize = DefaultBlockSize
	}
	return &CompressedBlockWriter{
		w:               w,
		compressionType: compressionType,
		blockSize:       blockSize,
		buf:             make([]byte, 0, blockSize),
	}
}

func (c *CompressedBlockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if len(c.buf) == c.blockSize {
			if err := c.flushBlock(); err != nil {
				return total, err
			}
		}
		n := min(len(p), c.blockSize-len(c.buf))
		c.buf = append(c.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

func (c *CompressedBlockWriter) flushBlock() error {
	if len(c.buf) == 0 {
		return nil
	}

	compressed, err := c.compress(c.buf)
	if err != nil {
		return err
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(c.buf)))
	payload := c.buf
	// Keep the compressed form only if it saves at least 10%.
	if compressed != nil && len(compressed) < len(c.buf)*9/10 {
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
		payload = compressed
	}

	if err := c.writeRaw(hdr[:]); err != nil {
		return err
	}
	if err := c.writeRaw(payload); err != nil {
		return err
	}
	c.buf = c.buf[:0]
	return nil
}

func (c *CompressedBlockWriter) compress(data []byte) ([]byte, error) {
	switch c.compressionType {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		if cap(c.scratch) < bound {
			c.scratch = make([]byte, bound)
		}
		n, err := lz4.CompressBlock(data, c.scratch[:bound], nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // incompressible
		}
		return c.scratch[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		c.scratch = enc.EncodeAll(data, c.scratch[:0])
		return c.scratch, nil
	default:
		return nil, nil
	}
}

func (c *CompressedBlockWriter) writeRaw(p []byte) error {
	n, err := c.w.Write(p)
	c.written += int64(n)
	return err
}

// Close flushes buffered data and writes the end-of-stream block.
// It does not close the underlying writer.
func (c *CompressedBlockWriter) Close() error {
	if err := c.flushBlock(); err != nil {
		return err
	}
	var end [blockHeaderSize]byte
	return c.writeRaw(end[:])
}

// BytesWritten returns the number of encoded bytes written.
func (c *CompressedBlockWriter) BytesWritten() int64 { return c.written }

// CompressedBlockReader decodes a block stream written by
// CompressedBlockWriter. It never reads past the end-of-stream block.
type CompressedBlockReader struct {
	r               io.Reader
	compressionType CompressionType
	block           []byte
	pos             int
	raw             []byte
	done            bool
}

// NewCompressedBlockReader creates a reader for compressed blocks.
func NewCompressedBlockReader(r io.Reader, compressionType CompressionType) *CompressedBlockReader {
	return &CompressedBlockReader{r: r, compressionType: compressionType}
}

func (c *CompressedBlockReader) Read(p []byte) (int, error) {
	for c.pos == len(c.block) {
		if c.done {
			return 0, io.EOF
		}
		if err := c.readBlock(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.block[c.pos:])
	c.pos += n
	return n, nil
}

func (c *CompressedBlockReader) readBlock() error {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return truncated(err)
	}
	uncompressedSize := binary.LittleEndian.Uint32(hdr[0:])
	compressedSize := binary.LittleEndian.Uint32(hdr[4:])

	c.pos = 0
	if uncompressedSize == 0 {
		if compressedSize != 0 {
			return fmt.Errorf("%w: malformed end block", ErrCorrupt)
		}
		c.block = c.block[:0]
		c.done = true
		return nil
	}
	if uncompressedSize > maxBlockSize || compressedSize > maxBlockSize {
		return fmt.Errorf("%w: block of %d bytes exceeds limit", ErrCorrupt, max(uncompressedSize, compressedSize))
	}

	if cap(c.block) < int(uncompressedSize) {
		c.block = make([]byte, uncompressedSize)
	}
	c.block = c.block[:uncompressedSize]

	if compressedSize == 0 {
		if _, err := io.ReadFull(c.r, c.block); err != nil {
			return truncated(err)
		}
		return nil
	}

	if cap(c.raw) < int(compressedSize) {
		c.raw = make([]byte, compressedSize)
	}
	c.raw = c.raw[:compressedSize]
	if _, err := io.ReadFull(c.r, c.raw); err != nil {
		return truncated(err)
	}

	switch c.compressionType {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(c.raw, c.block)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if n != int(uncompressedSize) {
			return fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(c.raw, c.block[:0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if len(decoded) != int(uncompressedSize) {
			return fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		c.block = decoded
	default:
		return fmt.Errorf("%w: compressed block in %s stream", ErrCorrupt, c.compressionType)
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated", ErrCorrupt)
	}
	return err
}
