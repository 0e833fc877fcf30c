package covariate

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/raster"
)

// ErrEmptyNeighborhood reports that no valid elevation cells intersect a
// neighborhood. This is expected near the raster extent and yields a
// null summary rather than aborting the pipeline.
var ErrEmptyNeighborhood = eris.New("covariate: neighborhood has no valid elevation cells")

// ElevationAggregator computes fractionally-weighted elevation
// statistics within a neighborhood. Elevation is year-independent, so
// one summary per location serves every observation year.
type ElevationAggregator struct {
	grid *raster.Grid
}

// NewElevationAggregator wraps the elevation raster.
func NewElevationAggregator(grid *raster.Grid) *ElevationAggregator {
	return &ElevationAggregator{grid: grid}
}

// Summarize returns weighted mean, median, standard deviation, and
// interquartile range of elevation within the neighborhood. When no
// valid cell intersects, the summary fields stay nil and the error
// wraps ErrEmptyNeighborhood. The sample standard deviation of a single
// cell is undefined, so SD stays nil for one-cell neighborhoods.
func (a *ElevationAggregator) Summarize(nb *geometry.Neighborhood) (*model.ElevationSummary, error) {
	summary := &model.ElevationSummary{LocalityID: nb.Location.LocalityID}

	var values, weights []float64
	if c0, c1, r0, r1, ok := a.grid.CellRange(nb.Buffer.Bounds()); ok {
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				v := a.grid.Value(col, row)
				if a.grid.IsNoData(v) {
					continue
				}
				w := cellFraction(a.grid, col, row, nb.Buffer)
				if w == 0 {
					continue
				}
				values = append(values, v)
				weights = append(weights, w)
			}
		}
	}
	if len(values) == 0 {
		return summary, eris.Wrap(ErrEmptyNeighborhood, nb.Location.LocalityID)
	}

	mean := stat.Mean(values, weights)
	if len(values) > 1 {
		sd := stat.StdDev(values, weights)
		summary.SD = &sd
	}

	stat.SortWeighted(values, weights)
	median := stat.Quantile(0.5, stat.Empirical, values, weights)
	iqr := stat.Quantile(0.75, stat.Empirical, values, weights) -
		stat.Quantile(0.25, stat.Empirical, values, weights)

	summary.Mean = &mean
	summary.Median = &median
	summary.IQR = &iqr
	return summary, nil
}
