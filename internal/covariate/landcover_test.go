package covariate

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/raster"
)

// squareNeighborhood builds a neighborhood with an axis-aligned square
// buffer, so intersection weights come out as exact fractions.
func squareNeighborhood(id string, x0, y0, x1, y1 float64) *geometry.Neighborhood {
	return &geometry.Neighborhood{
		Location: model.Location{LocalityID: id},
		X:        (x0 + x1) / 2,
		Y:        (y0 + y1) / 2,
		Buffer: geom.Polygon{{
			{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
		}},
	}
}

// classGrid fills a 4x4 unit-cell grid with the given class value.
func classGrid(class float64) *raster.Grid {
	g := raster.New("landcover_2018", "", 4, 4, 0, 0, 1, 1, -1)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			g.Set(col, row, class)
		}
	}
	return g
}

func TestLandCoverAggregator_ResolveYear(t *testing.T) {
	agg, err := NewLandCoverAggregator(LandCoverConfig{ExtendLatestYear: true}, map[int]*raster.Grid{
		2015: classGrid(1),
		2018: classGrid(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2015, 2018}, agg.Years())

	tests := []struct {
		year        int
		wantRaster  int
		wantSubst   bool
		wantErr     bool
		description string
	}{
		{2015, 2015, false, false, "exact match"},
		{2016, 2015, false, false, "newest raster not after the observation"},
		{2018, 2018, false, false, "exact latest"},
		{2020, 2018, true, false, "past the series end, substituted"},
		{2014, 0, false, true, "before the series start"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			rasterYear, substituted, err := agg.resolveYear(tt.year)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoRaster)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaster, rasterYear)
			assert.Equal(t, tt.wantSubst, substituted)
		})
	}
}

func TestLandCoverAggregator_ResolveYear_NoExtension(t *testing.T) {
	agg, err := NewLandCoverAggregator(LandCoverConfig{ExtendLatestYear: false}, map[int]*raster.Grid{
		2018: classGrid(1),
	})
	require.NoError(t, err)

	_, _, err = agg.resolveYear(2020)
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestNewLandCoverAggregator_Empty(t *testing.T) {
	_, err := NewLandCoverAggregator(LandCoverConfig{}, nil)
	assert.Error(t, err)
}

func TestLandCoverAggregator_Sample(t *testing.T) {
	g := classGrid(3)
	// Bottom row of the grid is class 5.
	for col := 0; col < 4; col++ {
		g.Set(col, 3, 5)
	}
	agg, err := NewLandCoverAggregator(LandCoverConfig{}, map[int]*raster.Grid{2018: g})
	require.NoError(t, err)

	nb := squareNeighborhood("L1", 0, 0, 4, 4)
	sample, err := agg.Sample(nb, 2018)
	require.NoError(t, err)

	assert.Equal(t, "L1", sample.LocalityID)
	assert.Equal(t, 2018, sample.RasterYear)
	assert.False(t, sample.Substituted)
	assert.InDelta(t, 16.0, sample.TotalWeight, 1e-9)
	assert.InDelta(t, 0.75, sample.PLAND(3), 1e-9)
	assert.InDelta(t, 0.25, sample.PLAND(5), 1e-9)

	// A class absent from the neighborhood is exactly zero, not missing.
	assert.Equal(t, 0.0, sample.PLAND(9))

	var sum float64
	for class := 0; class < model.NumLandCoverClasses; class++ {
		sum += sample.PLAND(class)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestLandCoverAggregator_Sample_FractionalCells(t *testing.T) {
	agg, err := NewLandCoverAggregator(LandCoverConfig{}, map[int]*raster.Grid{2018: classGrid(2)})
	require.NoError(t, err)

	// A unit square centered on a cell corner takes a quarter of each of
	// the four surrounding cells.
	nb := squareNeighborhood("L1", 0.5, 0.5, 1.5, 1.5)
	sample, err := agg.Sample(nb, 2018)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sample.TotalWeight, 1e-9)
	assert.InDelta(t, 1.0, sample.PLAND(2), 1e-9)
}

func TestLandCoverAggregator_Sample_NoDataExcluded(t *testing.T) {
	g := classGrid(7)
	g.Set(1, 1, -1) // no-data
	agg, err := NewLandCoverAggregator(LandCoverConfig{}, map[int]*raster.Grid{2018: g})
	require.NoError(t, err)

	sample, err := agg.Sample(squareNeighborhood("L1", 0, 0, 4, 4), 2018)
	require.NoError(t, err)

	// No-data drops out of numerator and denominator alike.
	assert.InDelta(t, 15.0, sample.TotalWeight, 1e-9)
	assert.InDelta(t, 1.0, sample.PLAND(7), 1e-9)
}

func TestLandCoverAggregator_Sample_OutOfRangeClass(t *testing.T) {
	g := classGrid(7)
	g.Set(0, 0, 99)
	agg, err := NewLandCoverAggregator(LandCoverConfig{}, map[int]*raster.Grid{2018: g})
	require.NoError(t, err)

	sample, err := agg.Sample(squareNeighborhood("L1", 0, 0, 4, 4), 2018)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, sample.TotalWeight, 1e-9)
}

func TestLandCoverAggregator_Sample_OutsideGrid(t *testing.T) {
	agg, err := NewLandCoverAggregator(LandCoverConfig{}, map[int]*raster.Grid{2018: classGrid(1)})
	require.NoError(t, err)

	sample, err := agg.Sample(squareNeighborhood("L1", 100, 100, 101, 101), 2018)
	require.NoError(t, err)
	assert.Zero(t, sample.TotalWeight)
	assert.Zero(t, sample.PLAND(1))
}
