// Package raster provides an in-memory georeferenced regular grid and a
// reader for the ESRI ASCII grid interchange format used for the yearly
// land-cover layers and the elevation layer.
package raster

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// Grid is a regular raster grid. The origin (X0, Y0) is the lower-left
// corner in projected coordinates; values are stored row-major with row
// zero at the top of the grid, matching the on-disk order.
type Grid struct {
	Name   string
	Proj4  string
	NX, NY int
	X0, Y0 float64
	Dx, Dy float64
	NoData float64

	vals []float64
}

// New creates an empty grid with all cells set to the no-data value.
func New(name, proj4 string, nx, ny int, x0, y0, dx, dy, nodata float64) *Grid {
	g := &Grid{
		Name: name, Proj4: proj4,
		NX: nx, NY: ny,
		X0: x0, Y0: y0,
		Dx: dx, Dy: dy,
		NoData: nodata,
		vals:   make([]float64, nx*ny),
	}
	for i := range g.vals {
		g.vals[i] = nodata
	}
	return g
}

// Set assigns the value of the cell at (col, row), row zero at the top.
func (g *Grid) Set(col, row int, v float64) {
	g.vals[row*g.NX+col] = v
}

// Value returns the value of the cell at (col, row), row zero at the top.
func (g *Grid) Value(col, row int) float64 {
	return g.vals[row*g.NX+col]
}

// IsNoData reports whether v is the grid's no-data marker.
func (g *Grid) IsNoData(v float64) bool {
	return v == g.NoData || math.IsNaN(v)
}

// MaxCellSize returns the larger of the two cell dimensions.
func (g *Grid) MaxCellSize() float64 {
	return math.Max(g.Dx, g.Dy)
}

// CellArea returns the area of one cell in projected units.
func (g *Grid) CellArea() float64 {
	return g.Dx * g.Dy
}

// Bounds returns the grid extent in projected coordinates.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0},
		Max: geom.Point{X: g.X0 + float64(g.NX)*g.Dx, Y: g.Y0 + float64(g.NY)*g.Dy},
	}
}

// CellBounds returns the extent of the cell at (col, row).
func (g *Grid) CellBounds(col, row int) *geom.Bounds {
	x0 := g.X0 + float64(col)*g.Dx
	y1 := g.Y0 + float64(g.NY-row)*g.Dy
	return &geom.Bounds{
		Min: geom.Point{X: x0, Y: y1 - g.Dy},
		Max: geom.Point{X: x0 + g.Dx, Y: y1},
	}
}

// CellPolygon returns the cell at (col, row) as a closed polygon.
func (g *Grid) CellPolygon(col, row int) geom.Polygon {
	b := g.CellBounds(col, row)
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Min.Y},
	}}
}

// CellRange returns the inclusive (col, row) index ranges of cells whose
// extents may overlap b, clamped to the grid. ok is false when b lies
// entirely outside the grid.
func (g *Grid) CellRange(b *geom.Bounds) (c0, c1, r0, r1 int, ok bool) {
	gb := g.Bounds()
	if b.Max.X <= gb.Min.X || b.Min.X >= gb.Max.X || b.Max.Y <= gb.Min.Y || b.Min.Y >= gb.Max.Y {
		return 0, 0, 0, 0, false
	}
	c0 = int(math.Floor((b.Min.X - g.X0) / g.Dx))
	c1 = int(math.Floor((b.Max.X - g.X0) / g.Dx))
	// Rows count down from the top edge.
	top := g.Y0 + float64(g.NY)*g.Dy
	r0 = int(math.Floor((top - b.Max.Y) / g.Dy))
	r1 = int(math.Floor((top - b.Min.Y) / g.Dy))
	c0 = clamp(c0, 0, g.NX-1)
	c1 = clamp(c1, 0, g.NX-1)
	r0 = clamp(r0, 0, g.NY-1)
	r1 = clamp(r1, 0, g.NY-1)
	return c0, c1, r0, r1, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ReadASCII parses an ESRI ASCII grid. The header accepts the standard
// keywords plus dx/dy for rectangular cells; nodata_value defaults to
// -9999 when absent.
func ReadASCII(r io.Reader, name, proj4 string) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(values) == 0 && len(fields) == 2 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				key := strings.ToLower(fields[0])
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, eris.Wrapf(err, "raster: %s: bad header value for %s", name, key)
				}
				header[key] = v
				continue
			}
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "raster: %s: bad cell value %q", name, f)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: %s: read", name)
	}

	nx, ok := headerInt(header, "ncols")
	if !ok {
		return nil, eris.Errorf("raster: %s: header missing ncols", name)
	}
	ny, ok := headerInt(header, "nrows")
	if !ok {
		return nil, eris.Errorf("raster: %s: header missing nrows", name)
	}
	x0, ok := header["xllcorner"]
	if !ok {
		return nil, eris.Errorf("raster: %s: header missing xllcorner", name)
	}
	y0, ok := header["yllcorner"]
	if !ok {
		return nil, eris.Errorf("raster: %s: header missing yllcorner", name)
	}

	dx, okx := header["dx"]
	dy, oky := header["dy"]
	if !okx || !oky {
		cs, ok := header["cellsize"]
		if !ok {
			return nil, eris.Errorf("raster: %s: header missing cellsize", name)
		}
		dx, dy = cs, cs
	}
	if dx <= 0 || dy <= 0 {
		return nil, eris.Errorf("raster: %s: non-positive cell size", name)
	}

	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = -9999
	}

	if len(values) != nx*ny {
		return nil, eris.Errorf("raster: %s: expected %d cells, got %d", name, nx*ny, len(values))
	}

	g := New(name, proj4, nx, ny, x0, y0, dx, dy, nodata)
	copy(g.vals, values)
	return g, nil
}

func headerInt(h map[string]float64, key string) (int, bool) {
	v, ok := h[key]
	if !ok || v != math.Trunc(v) || v <= 0 {
		return 0, false
	}
	return int(v), true
}

// OpenASCII reads an ESRI ASCII grid from disk. The file name (without
// extension) becomes the grid name.
func OpenASCII(path, proj4 string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer f.Close()

	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return ReadASCII(f, name, proj4)
}
