package backdrop

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- White pixel singleton (single-threaded, no sync.Once) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Used for untextured, vertex-colored triangles.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// maxBatchVertices keeps a batch addressable by uint16 indices. It is a
// multiple of both 3 and 4 so triangle lists and quads never straddle a
// chunk boundary.
const maxBatchVertices = 65532

// triangleBatch accumulates screen-space vertices for independent
// primitives: either a triangle list (3 vertices each) or quads (4 each).
// Buffers grow with a high-water-mark strategy and never shrink.
type triangleBatch struct {
	verts    []ebiten.Vertex
	listInds []uint16
	quadInds []uint16
}

func (b *triangleBatch) reset() {
	b.verts = b.verts[:0]
}

// vertex builds a premultiplied-alpha vertex sampling the centre of the
// white pixel.
func vertex(x, y float64, c Color) ebiten.Vertex {
	a := float32(clamp01(c.A))
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   0.5,
		SrcY:   0.5,
		ColorR: float32(c.R) * a,
		ColorG: float32(c.G) * a,
		ColorB: float32(c.B) * a,
		ColorA: a,
	}
}

// addTriangle appends one flat- or Gouraud-shaded triangle.
func (b *triangleBatch) addTriangle(v0, v1, v2 ebiten.Vertex) {
	b.verts = append(b.verts, v0, v1, v2)
}

// addQuad appends a quad given in order top-left, top-right, bottom-left,
// bottom-right.
func (b *triangleBatch) addQuad(tl, tr, bl, br ebiten.Vertex) {
	b.verts = append(b.verts, tl, tr, bl, br)
}

// listIndices returns sequential indices 0..n-1.
func (b *triangleBatch) listIndices(n int) []uint16 {
	for i := len(b.listInds); i < n; i++ {
		b.listInds = append(b.listInds, uint16(i))
	}
	return b.listInds[:n]
}

// quadIndices returns the two-triangle index pattern for n/4 quads.
func (b *triangleBatch) quadIndices(n int) []uint16 {
	need := n / 4 * 6
	for q := len(b.quadInds) / 6; q < n/4; q++ {
		base := uint16(q * 4)
		b.quadInds = append(b.quadInds,
			base+0, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
	return b.quadInds[:need]
}

// drawList submits the batch as a triangle list with the given source
// image, splitting into uint16-addressable chunks.
func (b *triangleBatch) drawList(dst, img *ebiten.Image, op *ebiten.DrawTrianglesOptions) {
	for start := 0; start < len(b.verts); start += maxBatchVertices {
		end := min(start+maxBatchVertices, len(b.verts))
		chunk := b.verts[start:end]
		dst.DrawTriangles(chunk, b.listIndices(len(chunk)), img, op)
	}
}

// drawListShader submits the batch as a triangle list through a shader.
func (b *triangleBatch) drawListShader(dst *ebiten.Image, shader *ebiten.Shader, op *ebiten.DrawTrianglesShaderOptions) {
	for start := 0; start < len(b.verts); start += maxBatchVertices {
		end := min(start+maxBatchVertices, len(b.verts))
		chunk := b.verts[start:end]
		dst.DrawTrianglesShader(chunk, b.listIndices(len(chunk)), shader, op)
	}
}

// drawQuads submits the batch as quads textured with img.
func (b *triangleBatch) drawQuads(dst, img *ebiten.Image, op *ebiten.DrawTrianglesOptions) {
	for start := 0; start < len(b.verts); start += maxBatchVertices {
		end := min(start+maxBatchVertices, len(b.verts))
		chunk := b.verts[start:end]
		dst.DrawTriangles(chunk, b.quadIndices(len(chunk)), img, op)
	}
}

// PlaneGrid is a tessellated rectangle in the XZ plane centred on the
// origin, with (Segments+1)² vertices. Heights are written per frame by the
// owning effect.
type PlaneGrid struct {
	Size     float64
	Segments int
	Rest     []Vec3
	Pos      []Vec3
}

// NewPlaneGrid creates a flat size x size grid.
func NewPlaneGrid(size float64, segments int) *PlaneGrid {
	if segments < 1 {
		segments = 1
	}
	n := segments + 1
	g := &PlaneGrid{
		Size:     size,
		Segments: segments,
		Rest:     make([]Vec3, n*n),
		Pos:      make([]Vec3, n*n),
	}
	step := size / float64(segments)
	half := size / 2
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			p := Vec3{X: float64(c)*step - half, Z: float64(r)*step - half}
			g.Rest[r*n+c] = p
			g.Pos[r*n+c] = p
		}
	}
	return g
}

// Index returns the vertex index of (col, row).
func (g *PlaneGrid) Index(col, row int) int {
	return row*(g.Segments+1) + col
}

// SetAllHeights calls fn for each vertex with its rest position and stores
// the returned Y.
func (g *PlaneGrid) SetAllHeights(fn func(rest Vec3) float64) {
	for i, rest := range g.Rest {
		g.Pos[i] = Vec3{rest.X, fn(rest), rest.Z}
	}
}
