package geometry

import (
	"github.com/rotisserie/eris"
	twgeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// sridSinusoidal is the pseudo-SRID we tag exported neighborhood
// geometries with; the sinusoidal grid has no EPSG code.
const sridSinusoidal = 96842

// EncodeWKB serializes a neighborhood buffer as EWKB for persistence
// and export.
func (n *Neighborhood) EncodeWKB() ([]byte, error) {
	ring := n.Buffer[0]
	flat := make([]float64, 0, 2*len(ring))
	for _, pt := range ring {
		flat = append(flat, pt.X, pt.Y)
	}
	poly := twgeom.NewPolygonFlat(twgeom.XY, flat, []int{len(flat)}).SetSRID(sridSinusoidal)

	data, err := ewkb.Marshal(poly, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: encode WKB for %s", n.Location.LocalityID)
	}
	return data, nil
}
