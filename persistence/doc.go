// Package persistence reads and writes self-describing tree snapshots.
//
// A snapshot is a fixed-size FileHeader followed by a stream of compressed
// blocks holding the node records in heap order, an end-of-stream block and
// a CRC32 of the uncompressed records:
//
//	header | block* | end block | crc32
//
// Each record holds the node's coordinates in little-endian order followed
// by a uvarint length and the codec-encoded payload. The header names the
// coordinate type, compression and codec, so a snapshot can be opened
// without out-of-band configuration.
package persistence
