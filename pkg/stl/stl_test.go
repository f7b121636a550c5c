package stl

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cpview/pkg/segment"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// encodeBinary writes triangles (nine coordinates each) as a binary STL
// with a +Z normal and the given attribute words.
func encodeBinary(header string, tris [][9]float32, attrs []uint16) []byte {
	buf := make([]byte, HeaderSize+len(tris)*RecordSize)
	copy(buf[:80], header)
	binary.LittleEndian.PutUint32(buf[80:84], uint32(len(tris)))
	for i, tri := range tris {
		rec := buf[HeaderSize+i*RecordSize:]
		binary.LittleEndian.PutUint32(rec[8:], math.Float32bits(1))
		for j, v := range tri {
			binary.LittleEndian.PutUint32(rec[12+j*4:], math.Float32bits(v))
		}
		if attrs != nil {
			binary.LittleEndian.PutUint16(rec[48:], attrs[i])
		}
	}
	return buf
}

var twoTris = [][9]float32{
	{0, 0, 0, 1, 0, 0, 0, 30, 0},
	{0, 70, 0, 1, 100, 0, 0, 100, 0},
}

func TestIsBinary(t *testing.T) {
	exact := encodeBinary("", twoTris, nil)

	tests := []struct {
		name      string
		data      []byte
		tolerance int
		want      bool
	}{
		{"empty", nil, 0, false},
		{"short", make([]byte, 83), 0, false},
		{"exact size", exact, 0, true},
		{"header says solid but size matches", encodeBinary("solid binary", twoTris, nil), 0, true},
		{"ascii", []byte("solid cube\n" + strings.Repeat(" ", 100) + "\nendsolid cube\n"), 0, false},
		{"ascii after bom", []byte("\xef\xbb\xbfsolid x\n" + strings.Repeat(" ", 100)), 0, false},
		{"padded within tolerance", append(append([]byte{}, exact...), make([]byte, 10)...), 100, true},
		{"padded without tolerance", append(append([]byte("solid"), exact[5:]...), make([]byte, 10)...), 0, false},
		{"mismatch without solid", append(append([]byte{}, exact...), make([]byte, 10)...), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinary(tt.data, tt.tolerance))
		})
	}
}

func TestDecodeBinary(t *testing.T) {
	m, err := DecodeBinary(encodeBinary("", twoTris, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, m.TriangleCount())
	assert.Equal(t, twoTris[1][:], m.Vertices[9:18])
	assert.Equal(t, []float32{0, 0, 1}, m.Normals[3:6], "face normal replicated per vertex")
	assert.False(t, m.HasColors())
}

func TestDecodeBinarySolidHeader(t *testing.T) {
	m, err := DecodeBinary(encodeBinary("solid exported by cad", twoTris, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, m.TriangleCount())
	assert.Equal(t, twoTris[0][:], m.Vertices[0:9])
}

func TestDecodeBinaryEmpty(t *testing.T) {
	m, err := DecodeBinary(encodeBinary("", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, m.TriangleCount())
}

func TestDecodeBinaryTooShort(t *testing.T) {
	_, err := DecodeBinary(make([]byte, 10))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestDecodeBinaryTruncated(t *testing.T) {
	data := encodeBinary("", twoTris, nil)
	m, err := DecodeBinary(data[:len(data)-20])
	assert.ErrorIs(t, err, ErrTruncated)
	require.NotNil(t, m)
	assert.Equal(t, 1, m.TriangleCount())
}

func TestDecodeBinaryHeaderColors(t *testing.T) {
	header := "exported COLOR=\xff\x00\x00\xff"
	// First face uses the default, second carries pure blue in 5-5-5.
	attrs := []uint16{0x8000, 0x1f << 10}
	m, err := DecodeBinary(encodeBinary(header, twoTris, attrs))
	require.NoError(t, err)
	require.True(t, m.HasColors())
	assert.Equal(t, []float32{1, 0, 0}, m.Colors[0:3])
	assert.Equal(t, []float32{0, 0, 1}, m.Colors[9:12])
}

func TestDecodeBinarySlicesAlongLongestAxis(t *testing.T) {
	set, kind, err := Decode(encodeBinary("", twoTris, nil), Options{SegmentCount: 2, Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, kind)
	require.Equal(t, []string{"segment 1", "segment 2"}, set.Names())

	s1, s2 := set.Get("segment 1"), set.Get("segment 2")
	assert.Equal(t, segment.AxisY, s1.Axis)
	assert.Equal(t, [2]float64{0, 50}, s1.AxisRange)
	assert.Equal(t, [2]float64{50, 100}, s2.AxisRange)
	assert.Equal(t, 0, s1.Index)
	assert.Equal(t, 1, s2.Index)
	assert.Equal(t, twoTris[0][:], s1.Mesh.Vertices)
	assert.Equal(t, twoTris[1][:], s2.Mesh.Vertices)
}

func TestDecodeDefaultSegmentCount(t *testing.T) {
	var tris [][9]float32
	for i := 0; i < 12; i++ {
		y := float32(i * 10)
		tris = append(tris, [9]float32{0, y, 0, 1, y, 0, 0, y + 10, 0})
	}
	set, kind, err := Decode(encodeBinary("", tris, nil), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, kind)
	assert.Equal(t, segment.DefaultCount, set.Len())
	assert.Equal(t, 12, set.TriangleCount())
}

const twoSolids = `solid leg11
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 10 0
    endloop
  endfacet
endsolid leg11
solid Leg-12 (top)
  facet normal 0 0 1
    outer loop
      vertex 0 10 0
      vertex 1 10 0
      vertex 0 20 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 1 10 0
      vertex 1 20 0
      vertex 0 20 0
    endloop
  endfacet
endsolid
`

func TestDecodeASCIISolids(t *testing.T) {
	set, kind, err := Decode([]byte(twoSolids), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	require.Equal(t, []string{"leg11", "Leg12 top"}, set.Names())

	leg := set.Get("leg11")
	assert.Equal(t, 0, leg.Index)
	assert.Equal(t, segment.AxisY, leg.Axis)
	assert.Equal(t, [2]float64{0, 10}, leg.AxisRange)
	assert.Equal(t, "leg11", leg.Mesh.PartName)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, leg.Mesh.Normals)

	top := set.Get("Leg12 top")
	assert.Equal(t, 2, top.TriangleCount())
	assert.Equal(t, segment.NoIndex, top.Index)
}

func TestDecodeASCIISkipsMalformedFacets(t *testing.T) {
	src := `solid leg1
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 5 0
endloop
endfacet
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 nan
vertex 0 5 0
endloop
endfacet
facet normal 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 5 0
endloop
endfacet
endsolid leg1
`
	set, kind, err := Decode([]byte(src), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, 1, set.Get("leg1").TriangleCount())
}

func TestDecodeASCIIUnclosedSolids(t *testing.T) {
	src := `solid a
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 1 0
endloop
endfacet
solid b
facet normal 0 0 1
outer loop
vertex 0 0 1
vertex 1 0 1
vertex 0 1 1
endloop
endfacet
`
	set, kind, err := Decode([]byte(src), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	assert.Equal(t, []string{"a", "b"}, set.Names())
}

func looseFacets(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		y := i * 25
		b.WriteString("facet normal 0 0 1\nouter loop\n")
		b.WriteString("vertex 0 " + strconv.Itoa(y) + " 0\n")
		b.WriteString("vertex 1 " + strconv.Itoa(y) + " 0\n")
		b.WriteString("vertex 0 " + strconv.Itoa(y+25) + " 0\n")
		b.WriteString("endloop\nendfacet\n")
	}
	return b.String()
}

func TestDecodeASCIIFallsBackToSlicing(t *testing.T) {
	src := "solid a\nendsolid a\n" + looseFacets(4)
	set, kind, err := Decode([]byte(src), Options{SegmentCount: 2, Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	assert.Equal(t, []string{"segment 1", "segment 2"}, set.Names())
	assert.Equal(t, 2, set.Get("segment 1").TriangleCount())
}

func TestDecodeTextWithoutSolidIsBinary(t *testing.T) {
	data := []byte(looseFacets(4))
	require.True(t, IsBinary(data, 0))

	m, err := DecodeBinary(data)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, (len(data)-HeaderSize)/RecordSize, m.TriangleCount())
}

func TestDecodeASCIIEmptySolidsFallBack(t *testing.T) {
	set, kind, err := Decode([]byte("solid empty\nendsolid empty\n"), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	assert.Equal(t, 0, set.Len())
}

func TestDecodeDuplicateSolidNames(t *testing.T) {
	src := strings.Replace(twoSolids, "Leg-12 (top)", "leg11", 1)
	set, kind, err := Decode([]byte(src), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, KindASCII, kind)
	assert.Equal(t, []string{"leg11", "leg11_2"}, set.Names())
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"leg23", "leg23"},
		{"  spaced out  ", "spaced out"},
		{"leg\t23", "leg\t23"},
		{"a-b.c/d", "abcd"},
		{"", "unknown"},
		{"!!!", "unknown"},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
		{"腿部 1", "腿部 1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanName(tt.raw))
		})
	}
}

func TestParseFloats(t *testing.T) {
	assert.Equal(t, []float64{1, -2.5, 3e2, 0.5}, parseFloats("1 -2.5 3e2 .5"))
	assert.Len(t, parseFloats("1 x 2"), 2)
	assert.Empty(t, parseFloats("normal"))
}
