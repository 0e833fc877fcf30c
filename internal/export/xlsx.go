package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/loonworks/sdm-cli/internal/model"
)

// WriteCovariatesXLSX writes the covariate table as a spreadsheet for
// collaborators who review it by hand.
func WriteCovariatesXLSX(path string, rows []model.CovariateRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("covariates")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{"locality_id", "year"} {
		header.AddCell().SetString(name)
	}
	for _, name := range model.PLANDColumnNames() {
		header.AddCell().SetString(name)
	}
	for _, name := range []string{
		"elevation_mean", "elevation_median", "elevation_sd", "elevation_iqr",
		"raster_year", "substituted", "reconstructed_negative",
	} {
		header.AddCell().SetString(name)
	}

	for i := range rows {
		r := &rows[i]
		row := sheet.AddRow()
		row.AddCell().SetString(r.LocalityID)
		row.AddCell().SetInt(r.Year)
		for class := 0; class < model.NumLandCoverClasses; class++ {
			row.AddCell().SetFloat(r.PLAND(class))
		}
		for _, v := range []*float64{r.ElevationMean, r.ElevationMedian, r.ElevationSD, r.ElevationIQR} {
			cell := row.AddCell()
			if v != nil {
				cell.SetFloat(*v)
			}
		}
		row.AddCell().SetInt(r.RasterYear)
		row.AddCell().SetString(strconv.FormatBool(r.Substituted))
		row.AddCell().SetString(strconv.FormatBool(r.ReconstructedNegative))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
