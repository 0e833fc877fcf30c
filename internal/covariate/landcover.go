// Package covariate extracts land-cover proportions and elevation
// statistics for neighborhood buffers and merges them into model-ready
// covariate rows.
package covariate

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/raster"
)

// ErrNoRaster reports that no land-cover raster covers an observation
// year under the configured substitution policy.
var ErrNoRaster = eris.New("covariate: no land-cover raster for year")

// LandCoverConfig controls class reconstruction and the year
// substitution policy.
type LandCoverConfig struct {
	// ReconstructClass is the class whose raster layer is unreliable
	// and whose proportion is rebuilt as 1 - sum(others) at merge time.
	// Negative disables reconstruction.
	ReconstructClass int `yaml:"reconstruct_class" mapstructure:"reconstruct_class"`
	// ExtendLatestYear reuses the newest raster for observation years
	// past the end of the raster series. Substitutions are recorded on
	// each sample, never silent.
	ExtendLatestYear bool `yaml:"extend_latest_year" mapstructure:"extend_latest_year"`
}

// LandCoverAggregator counts raster cells by land-cover class within a
// neighborhood, weighting each cell by the exact fraction of its area
// inside the buffer. Centroid-in-polygon counting would bias small
// radii toward whichever class the center cell carries.
type LandCoverAggregator struct {
	cfg     LandCoverConfig
	rasters map[int]*raster.Grid
	years   []int
}

// NewLandCoverAggregator indexes yearly land-cover rasters.
func NewLandCoverAggregator(cfg LandCoverConfig, byYear map[int]*raster.Grid) (*LandCoverAggregator, error) {
	if len(byYear) == 0 {
		return nil, eris.New("covariate: no land-cover rasters")
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return &LandCoverAggregator{cfg: cfg, rasters: byYear, years: years}, nil
}

// Years returns the available raster years in ascending order.
func (a *LandCoverAggregator) Years() []int {
	return a.years
}

// resolveYear maps an observation year to the raster year to sample:
// the newest raster not after the observation year, or, when the
// observation postdates the whole series and extension is enabled, the
// newest raster with an explicit substitution flag.
func (a *LandCoverAggregator) resolveYear(year int) (rasterYear int, substituted bool, err error) {
	latest := a.years[len(a.years)-1]
	if year > latest {
		if !a.cfg.ExtendLatestYear {
			return 0, false, eris.Wrapf(ErrNoRaster, "year %d past series end %d", year, latest)
		}
		return latest, true, nil
	}
	for i := len(a.years) - 1; i >= 0; i-- {
		if a.years[i] <= year {
			return a.years[i], false, nil
		}
	}
	return 0, false, eris.Wrapf(ErrNoRaster, "year %d before series start %d", year, a.years[0])
}

// Sample extracts the per-class weighted cell counts for one
// neighborhood and observation year. No-data cells are excluded from
// both numerator and denominator; class codes outside 0-15 are dropped
// with a warning.
func (a *LandCoverAggregator) Sample(nb *geometry.Neighborhood, year int) (*model.LandCoverSample, error) {
	rasterYear, substituted, err := a.resolveYear(year)
	if err != nil {
		return nil, err
	}
	if substituted {
		zap.L().Debug("covariate: substituting latest land-cover raster",
			zap.String("locality", nb.Location.LocalityID),
			zap.Int("year", year),
			zap.Int("raster_year", rasterYear),
		)
	}
	grid := a.rasters[rasterYear]

	sample := &model.LandCoverSample{
		LocalityID:  nb.Location.LocalityID,
		Year:        year,
		RasterYear:  rasterYear,
		Substituted: substituted,
	}

	c0, c1, r0, r1, ok := grid.CellRange(nb.Buffer.Bounds())
	if !ok {
		return sample, nil
	}

	var badClass int
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			v := grid.Value(col, row)
			if grid.IsNoData(v) {
				continue
			}
			w := cellFraction(grid, col, row, nb.Buffer)
			if w == 0 {
				continue
			}
			class := int(v)
			if class < 0 || class >= model.NumLandCoverClasses {
				badClass++
				continue
			}
			sample.ClassWeight[class] += w
			sample.TotalWeight += w
		}
	}
	if badClass > 0 {
		zap.L().Warn("covariate: dropped cells with out-of-range class codes",
			zap.String("raster", grid.Name),
			zap.String("locality", nb.Location.LocalityID),
			zap.Int("cells", badClass),
		)
	}
	return sample, nil
}

// cellFraction returns the fraction of the cell's area inside the
// buffer polygon, by exact polygon intersection.
func cellFraction(grid *raster.Grid, col, row int, buffer geom.Polygon) float64 {
	inter := grid.CellPolygon(col, row).Intersection(buffer)
	if inter == nil {
		return 0
	}
	area := inter.Area()
	if area <= 0 {
		return 0
	}
	return area / grid.CellArea()
}
