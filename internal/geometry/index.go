// Package geometry builds the fixed-radius neighborhood buffers around
// observation locations that the covariate aggregators sample from.
package geometry

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/model"
)

// Error taxonomy for neighborhood construction.
var (
	ErrInvalidCoordinate = eris.New("geometry: coordinate out of range")
	ErrProjection        = eris.New("geometry: projection not resolvable")
)

// WGS84Proj4 is the source projection of the observation coordinates.
const WGS84Proj4 = "+proj=longlat +datum=WGS84 +no_defs"

// SinusoidalProj4 is the MODIS sinusoidal equal-area projection that the
// land-cover rasters are delivered in. Equal-area is required so that
// fractional cell weights translate into unbiased proportions.
const SinusoidalProj4 = "+proj=sinu +lon_0=0 +x_0=0 +y_0=0 +R=6371007.181 +units=m +no_defs"

// bufferSegments is the number of segments used to approximate the
// circular buffer.
const bufferSegments = 64

// BufferRadius derives the neighborhood radius from the coarsest raster
// cell dimension: 2.5 cell-widths, rounded up to a whole unit, so that
// every neighborhood spans at least one full cell even after
// reprojection or resampling.
func BufferRadius(maxCellSize float64) float64 {
	return math.Ceil(maxCellSize) * 5 / 2
}

// Neighborhood is one location's buffer in the target projection. The
// same geometry is reused for every land-cover year and for elevation.
type Neighborhood struct {
	Location model.Location
	X, Y     float64
	Buffer   geom.Polygon
}

// Index holds one neighborhood per distinct locality, all with an
// identical radius.
type Index struct {
	Radius float64
	Proj4  string

	byLocality map[string]*Neighborhood
	order      []string
}

// NewIndex validates and projects the given locations and buffers each
// one by radius. Locations sharing a locality id collapse to the first
// occurrence. Returns ErrInvalidCoordinate for out-of-range latitude or
// longitude and ErrProjection when the target projection cannot be
// resolved.
func NewIndex(locs []model.Location, radius float64, proj4 string) (*Index, error) {
	if radius <= 0 {
		return nil, eris.Errorf("geometry: non-positive radius %v", radius)
	}

	src, err := proj.Parse(WGS84Proj4)
	if err != nil {
		return nil, eris.Wrap(ErrProjection, WGS84Proj4)
	}
	dst, err := proj.Parse(proj4)
	if err != nil {
		return nil, eris.Wrap(ErrProjection, proj4)
	}
	transform, err := src.NewTransform(dst)
	if err != nil {
		return nil, eris.Wrapf(ErrProjection, "transform to %s", proj4)
	}

	idx := &Index{
		Radius:     radius,
		Proj4:      proj4,
		byLocality: make(map[string]*Neighborhood, len(locs)),
	}

	var collapsed int
	for _, loc := range locs {
		if err := ValidateCoordinate(loc.Latitude, loc.Longitude); err != nil {
			return nil, eris.Wrapf(err, "locality %s", loc.LocalityID)
		}
		if _, ok := idx.byLocality[loc.LocalityID]; ok {
			collapsed++
			continue
		}
		x, y, err := transform(loc.Longitude, loc.Latitude)
		if err != nil {
			return nil, eris.Wrapf(ErrProjection, "locality %s", loc.LocalityID)
		}
		idx.byLocality[loc.LocalityID] = &Neighborhood{
			Location: loc,
			X:        x,
			Y:        y,
			Buffer:   circle(x, y, radius),
		}
		idx.order = append(idx.order, loc.LocalityID)
	}
	sort.Strings(idx.order)

	if collapsed > 0 {
		zap.L().Debug("geometry: collapsed repeated localities", zap.Int("collapsed", collapsed))
	}
	return idx, nil
}

// ValidateCoordinate checks a WGS84 latitude/longitude pair.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "lat=%v lon=%v", lat, lon)
	}
	return nil
}

// Neighborhood returns the buffer for the given locality, or nil.
func (idx *Index) Neighborhood(localityID string) *Neighborhood {
	return idx.byLocality[localityID]
}

// Localities returns the indexed locality ids in sorted order, so that
// every downstream pass over the index is deterministic.
func (idx *Index) Localities() []string {
	return idx.order
}

// Len returns the number of distinct localities in the index.
func (idx *Index) Len() int {
	return len(idx.byLocality)
}

// ProjectCoordinates projects WGS84 latitude/longitude pairs into the
// target projection. Used by the autocorrelation test, which needs
// planar coordinates for its neighbor graph.
func ProjectCoordinates(lats, lons []float64, proj4 string) ([][2]float64, error) {
	if len(lats) != len(lons) {
		return nil, eris.Errorf("geometry: %d latitudes for %d longitudes", len(lats), len(lons))
	}
	src, err := proj.Parse(WGS84Proj4)
	if err != nil {
		return nil, eris.Wrap(ErrProjection, WGS84Proj4)
	}
	dst, err := proj.Parse(proj4)
	if err != nil {
		return nil, eris.Wrap(ErrProjection, proj4)
	}
	transform, err := src.NewTransform(dst)
	if err != nil {
		return nil, eris.Wrapf(ErrProjection, "transform to %s", proj4)
	}

	out := make([][2]float64, len(lats))
	for i := range lats {
		if err := ValidateCoordinate(lats[i], lons[i]); err != nil {
			return nil, err
		}
		x, y, err := transform(lons[i], lats[i])
		if err != nil {
			return nil, eris.Wrapf(ErrProjection, "point %d", i)
		}
		out[i] = [2]float64{x, y}
	}
	return out, nil
}

// circle approximates a disk of the given radius as a closed polygon.
func circle(cx, cy, r float64) geom.Polygon {
	ring := make([]geom.Point, 0, bufferSegments+1)
	for i := 0; i < bufferSegments; i++ {
		a := 2 * math.Pi * float64(i) / bufferSegments
		ring = append(ring, geom.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}
