package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, dir, name string) {
	t.Helper()
	in := `ncols 1
nrows 1
xllcorner 0
yllcorner 0
cellsize 1
3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(in), 0o644))
}

func TestLoadLandCoverDir(t *testing.T) {
	dir := t.TempDir()
	writeGrid(t, dir, "landcover_2018.asc")
	writeGrid(t, dir, "landcover_2019.asc")
	writeGrid(t, dir, "elevation.asc")    // ignored
	writeGrid(t, dir, "landcover_19.asc") // ignored, not a 4-digit year

	grids, err := LoadLandCoverDir(dir, "+proj=longlat")
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Contains(t, grids, 2018)
	assert.Contains(t, grids, 2019)
	assert.Equal(t, "landcover_2018", grids[2018].Name)
}

func TestLoadLandCoverDir_Empty(t *testing.T) {
	_, err := LoadLandCoverDir(t.TempDir(), "")
	assert.Error(t, err)
}

func TestLoadLandCoverDir_BadGrid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "landcover_2018.asc"), []byte("not a grid at all here\n"), 0o644))

	_, err := LoadLandCoverDir(dir, "")
	assert.Error(t, err)
}
