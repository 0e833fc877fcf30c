package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/config"
	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/store"
)

// writeASCIIGrid writes a 6x6 grid of 2500 m cells centered on the
// sinusoidal origin, filled with a constant value.
func writeASCIIGrid(t *testing.T, path string, value float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("ncols 6\nnrows 6\nxllcorner -7500\nyllcorner -7500\ncellsize 2500\nnodata_value -9999\n")
	for row := 0; row < 6; row++ {
		cells := make([]string, 6)
		for col := range cells {
			cells[col] = fmt.Sprintf("%g", value)
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

const pipelineObsCSV = `checklist_id,observer_id,locality_id,latitude,longitude,observation_date,year,day_of_year,hour_of_day,duration_minutes,effort_distance_km,number_observers,protocol_type,observation_count
S1,obs1,L1,0.0,0.0,2019-06-01,2019,152,6.5,60,2.5,1,Traveling,3
S2,obs1,L1,0.0,0.0,2019-06-02,2019,153,7.0,30,0,1,Stationary,
`

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()

	rasterDir := filepath.Join(dir, "rasters")
	require.NoError(t, os.MkdirAll(rasterDir, 0o755))
	writeASCIIGrid(t, filepath.Join(rasterDir, "landcover_2019.asc"), 4)
	elevationPath := filepath.Join(dir, "elevation.asc")
	writeASCIIGrid(t, elevationPath, 150)

	obsPath := filepath.Join(dir, "observations.csv")
	require.NoError(t, os.WriteFile(obsPath, []byte(pipelineObsCSV), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "sdm.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	cfg := &config.Config{
		Raster: config.RasterConfig{
			LandCoverDir:  rasterDir,
			ElevationPath: elevationPath,
			Proj4:         geometry.SinusoidalProj4,
		},
		LandCover: config.LandCoverConfig{ReconstructClass: 13, ExtendLatestYear: true},
		Extract:   config.ExtractConfig{Workers: 2},
	}

	result, err := New(cfg, st).Run(ctx, "woothr", obsPath)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusQueued, result.Run.Status)
	require.NotNil(t, result.Index)
	assert.Equal(t, 1, result.Index.Len())

	// One covariate row for the single (locality, year) pair.
	require.Len(t, result.Covariates, 1)
	row := result.Covariates[0]
	assert.Equal(t, "L1", row.LocalityID)
	assert.Equal(t, 2019, row.Year)
	require.NotNil(t, row.ElevationMean)
	assert.InDelta(t, 150.0, *row.ElevationMean, 1e-6)

	var sum float64
	for class := 0; class < model.NumLandCoverClasses; class++ {
		sum += row.PLAND(class)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	// S1 joins with a count; S2 lacks one and is dropped after the join.
	assert.Equal(t, 2, result.Join.Input)
	assert.Equal(t, 1, result.Join.Joined)
	assert.Equal(t, 1, result.Join.MissingResponse)
	assert.Len(t, result.Train, 1)
	assert.Empty(t, result.Test)

	// Run state and reports are persisted.
	run, err := st.GetRun(ctx, result.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)

	saved, err := st.GetCovariates(ctx, "woothr")
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	for _, kind := range []string{model.ReportKindExtraction, model.ReportKindJoin} {
		payload, err := st.GetReport(ctx, result.Run.ID, kind)
		require.NoError(t, err)
		assert.NotEmpty(t, payload)
	}
}

func TestPipeline_Run_MissingObservations(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewSQLite(filepath.Join(dir, "sdm.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	cfg := &config.Config{Raster: config.RasterConfig{LandCoverDir: dir, ElevationPath: filepath.Join(dir, "nope.asc")}}

	_, err = New(cfg, st).Run(ctx, "woothr", filepath.Join(dir, "nope.csv"))
	require.Error(t, err)

	// The run exists and is marked failed.
	runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
