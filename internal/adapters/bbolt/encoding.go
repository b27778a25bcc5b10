// Binary encoding for the name index.
//
// Each key of the "names" bucket holds the sorted list of input paths that
// contain a tag with that name (little-endian):
//
//	pathCount: uint32
//	per path:
//	  pathLen: uint16
//	  path:    [pathLen]byte
package bbolt

import (
	"encoding/binary"
	"fmt"
)

// encodePostings encodes a path list. A single buffer is pre-allocated to
// avoid repeated growth.
func encodePostings(paths []string) ([]byte, error) {
	totalSize := 4
	for _, p := range paths {
		totalSize += 2 + len(p)
	}

	buf := make([]byte, totalSize)
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(paths)))
	offset += 4

	for _, p := range paths {
		if len(p) > 65535 {
			return nil, fmt.Errorf("path too long: %d bytes", len(p))
		}
		binary.LittleEndian.PutUint16(buf[offset:], uint16(len(p)))
		offset += 2
		copy(buf[offset:], p)
		offset += len(p)
	}

	return buf, nil
}

// decodePostings decodes a path list. A nil slice decodes to no paths.
// Every read is bounds-checked to avoid panics on corrupt data.
func decodePostings(data []byte) ([]string, error) {
	if data == nil {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("posting list too short: %d bytes", len(data))
	}

	offset := 0
	count := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	// Each path takes at least its two length bytes.
	if uint64(count) > uint64(len(data)-offset)/2 {
		return nil, fmt.Errorf("path count %d exceeds posting list size %d", count, len(data))
	}

	paths := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("truncated at path %d length (offset %d)", i, offset)
		}
		n := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		if offset+n > len(data) {
			return nil, fmt.Errorf("truncated at path %d (offset %d, need %d)", i, offset, n)
		}
		paths = append(paths, string(data[offset:offset+n]))
		offset += n
	}

	return paths, nil
}
