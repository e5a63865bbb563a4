package assets

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

var (
	ErrUnsupportedFormat = errors.New("assets: unsupported model format")
	ErrMalformedModel    = errors.New("assets: malformed model file")
)

// STLLoader reads .stl model files, both ASCII and binary flavors, and
// shares repeated corner vertices so downstream collision fitting works on
// an indexed mesh.
type STLLoader struct {
	logger log.Log
}

func NewSTLLoader(logger log.Log) *STLLoader {
	if logger == nil {
		logger = log.Provide()
	}
	return &STLLoader{logger: logger}
}

func (l *STLLoader) Load(path string) (*geometry.TriMesh, error) {
	if strings.ToLower(filepath.Ext(path)) != ".stl" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var mesh *geometry.TriMesh
	if isASCII(data) {
		mesh, err = parseASCII(data)
	} else {
		mesh, err = parseBinary(data)
	}
	if err != nil {
		return nil, err
	}
	l.logger.Info("model loaded",
		log.String("path", path),
		log.Int("vertices", len(mesh.Vertices)),
		log.Int("triangles", len(mesh.Indices)/3))
	return mesh, nil
}

// isASCII sniffs the flavor. A "solid" prefix is not enough on its own,
// some binary exporters write it into the comment header, so the body must
// also contain a facet keyword.
func isASCII(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	s := strings.TrimSpace(string(head))
	return strings.HasPrefix(s, "solid") && strings.Contains(s, "facet")
}

// meshBuilder interns corner vertices so the indexed mesh shares them.
type meshBuilder struct {
	mesh  geometry.TriMesh
	index map[[3]float32]uint32
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{index: make(map[[3]float32]uint32)}
}

func (b *meshBuilder) add(v mgl32.Vec3) {
	key := [3]float32{v.X(), v.Y(), v.Z()}
	idx, ok := b.index[key]
	if !ok {
		idx = uint32(len(b.mesh.Vertices))
		b.index[key] = idx
		b.mesh.Vertices = append(b.mesh.Vertices, v)
	}
	b.mesh.Indices = append(b.mesh.Indices, idx)
}

func (b *meshBuilder) result() (*geometry.TriMesh, error) {
	if len(b.mesh.Indices) == 0 {
		return nil, fmt.Errorf("%w: no triangles", ErrMalformedModel)
	}
	return &b.mesh, nil
}

func parseASCII(data []byte) (*geometry.TriMesh, error) {
	b := newMeshBuilder()
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: bad vertex at line %d", ErrMalformedModel, line)
		}
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			f, err := strconv.ParseFloat(fields[i+1], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: bad vertex at line %d", ErrMalformedModel, line)
			}
			v[i] = float32(f)
		}
		b.add(v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(b.mesh.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: vertex count not a multiple of 3", ErrMalformedModel)
	}
	return b.result()
}

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50
)

func parseBinary(data []byte) (*geometry.TriMesh, error) {
	if len(data) < binaryHeaderSize+4 {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedModel)
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	body := data[binaryHeaderSize+4:]
	if uint64(len(body)) < uint64(count)*binaryTriangleSize {
		return nil, fmt.Errorf("%w: truncated body", ErrMalformedModel)
	}

	b := newMeshBuilder()
	for t := uint32(0); t < count; t++ {
		rec := body[t*binaryTriangleSize:]
		// 12 bytes of facet normal first, then three corners.
		for c := 0; c < 3; c++ {
			off := 12 + c*12
			v := mgl32.Vec3{
				bits(rec[off:]),
				bits(rec[off+4:]),
				bits(rec[off+8:]),
			}
			b.add(v)
		}
	}
	return b.result()
}

func bits(p []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}
