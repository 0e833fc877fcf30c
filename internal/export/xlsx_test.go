package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/loonworks/sdm-cli/internal/model"
)

func TestWriteCovariatesXLSX(t *testing.T) {
	mean := 300.0
	row := model.CovariateRow{LocalityID: "L1", Year: 2019, RasterYear: 2019, ElevationMean: &mean}
	row.SetPLAND(4, 0.5)

	path := filepath.Join(t.TempDir(), "covariates.xlsx")
	require.NoError(t, WriteCovariatesXLSX(path, []model.CovariateRow{row}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "covariates", sheet.Name)
	require.Len(t, sheet.Rows, 2)

	assert.Equal(t, "locality_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "pland_00", sheet.Rows[0].Cells[2].String())
	assert.Equal(t, "L1", sheet.Rows[1].Cells[0].String())

	pland04, err := sheet.Rows[1].Cells[2+4].Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pland04, 1e-9)
}
