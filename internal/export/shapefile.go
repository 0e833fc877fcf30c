package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/loonworks/sdm-cli/internal/geometry"
)

// WriteNeighborhoodsShapefile writes the neighborhood buffers as a
// polygon shapefile, one feature per locality, so the buffers can be
// inspected in a GIS viewer against the rasters.
func WriteNeighborhoodsShapefile(path string, idx *geometry.Index) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields([]shp.Field{shp.StringField("LOCALITY", 32)})

	for i, localityID := range idx.Localities() {
		nb := idx.Neighborhood(localityID)
		poly := bufferToShape(nb)
		w.Write(poly)
		if err := w.WriteAttribute(i, 0, localityID); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", localityID)
		}
	}
	return nil
}

// bufferToShape converts a buffer ring to a go-shp polygon. Shapefile
// polygons wind clockwise; the buffer ring is built counter-clockwise,
// so the ring is reversed on the way out.
func bufferToShape(nb *geometry.Neighborhood) *shp.Polygon {
	ring := nb.Buffer[0]
	points := make([]shp.Point, 0, len(ring))
	for i := len(ring) - 1; i >= 0; i-- {
		points = append(points, shp.Point{X: ring[i].X, Y: ring[i].Y})
	}

	box := shp.Box{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points {
		if p.X < box.MinX {
			box.MinX = p.X
		}
		if p.Y < box.MinY {
			box.MinY = p.Y
		}
		if p.X > box.MaxX {
			box.MaxX = p.X
		}
		if p.Y > box.MaxY {
			box.MaxY = p.Y
		}
	}

	return &shp.Polygon{
		Box:       box,
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}
}
