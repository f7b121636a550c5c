package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"

	stlfile "github.com/hschendel/stl"

	"github.com/chazu/cpview/pkg/kernel"
)

// Binary layout: 80-byte header, uint32 triangle count, then one 50-byte
// record per triangle (normal, three vertices, uint16 attribute), all
// little-endian.
const (
	HeaderSize = 84
	RecordSize = 50
)

var solidMarker = []byte("solid")

// IsBinary reports whether data looks like a binary STL. The triangle
// count at offset 80 must account for the buffer length, within
// tolerance bytes when tolerance is positive. Failing that, data is
// ASCII if "solid" appears within its first five bytes (allowing for a
// byte-order mark) and binary otherwise. Buffers shorter than the binary
// header are never binary.
func IsBinary(data []byte, tolerance int) bool {
	if len(data) < HeaderSize {
		return false
	}
	count := int64(binary.LittleEndian.Uint32(data[80:84]))
	expected := HeaderSize + count*RecordSize
	diff := int64(len(data)) - expected
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 || (tolerance > 0 && diff < int64(tolerance)) {
		return true
	}

	for off := 0; off < 5; off++ {
		if bytes.HasPrefix(data[off:], solidMarker) {
			return false
		}
	}
	return true
}

// DecodeBinary reads a binary STL into a triangle soup. Each face normal
// is replicated on its three vertices. If the header carries a
// "COLOR=rgba" default color, per-vertex colors are produced as well:
// a record whose attribute has bit 15 clear carries its own 5-5-5 RGB
// color, otherwise the default applies.
//
// A buffer holding fewer records than declared returns the complete
// records together with ErrTruncated.
func DecodeBinary(data []byte) (*kernel.Mesh, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}

	declared := int(binary.LittleEndian.Uint32(data[80:84]))
	count := declared
	var truncErr error
	if avail := (len(data) - HeaderSize) / RecordSize; avail < count {
		truncErr = fmt.Errorf("%w: header declares %d triangles, buffer holds %d", ErrTruncated, declared, avail)
		count = avail
	}

	solid, err := readRecords(data[HeaderSize:HeaderSize+count*RecordSize], count)
	if err != nil {
		return nil, err
	}

	defColor, hasColors := headerColor(data[:80])

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, count*9),
		Normals:  make([]float32, 0, count*9),
	}
	if hasColors {
		m.Colors = make([]float32, 0, count*9)
	}

	for _, t := range solid.Triangles {
		color := defColor
		if hasColors && t.Attributes&0x8000 == 0 {
			color = [3]float32{
				float32(t.Attributes&0x1f) / 31,
				float32((t.Attributes>>5)&0x1f) / 31,
				float32((t.Attributes>>10)&0x1f) / 31,
			}
		}
		for _, v := range t.Vertices {
			m.Vertices = append(m.Vertices, v[0], v[1], v[2])
			m.Normals = append(m.Normals, t.Normal[0], t.Normal[1], t.Normal[2])
			if hasColors {
				m.Colors = append(m.Colors, color[0], color[1], color[2])
			}
		}
	}
	return m, truncErr
}

// readRecords decodes count complete 50-byte records. They are framed
// behind a blank header so the reader never mistakes a header that
// begins with "solid" for ASCII, and the count always matches the
// records handed over.
func readRecords(records []byte, count int) (*stlfile.Solid, error) {
	buf := make([]byte, HeaderSize+len(records))
	binary.LittleEndian.PutUint32(buf[80:84], uint32(count))
	copy(buf[HeaderSize:], records)

	solid, err := stlfile.ReadAll(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("stl: read binary records: %w", err)
	}
	return solid, nil
}

// headerColor scans an 80-byte header for "COLOR=" followed by four
// RGBA bytes. The last occurrence wins.
func headerColor(header []byte) ([3]float32, bool) {
	var c [3]float32
	found := false
	marker := []byte("COLOR=")
	for i := 0; i+len(marker)+4 <= len(header); i++ {
		if bytes.Equal(header[i:i+len(marker)], marker) {
			rgba := header[i+len(marker):]
			c = [3]float32{float32(rgba[0]) / 255, float32(rgba[1]) / 255, float32(rgba[2]) / 255}
			found = true
		}
	}
	return c, found
}
