// Package mmap maps snapshot files into memory read-only.
//
// A Mapping is safe for concurrent reads. Close must not race with reads.
package mmap
