// Package export writes covariate tables, model input tables, reports,
// and neighborhood geometries to interchange formats.
package export

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/loonworks/sdm-cli/internal/model"
)

// WriteCovariatesCSV writes the covariate table, one row per
// (locality, year).
func WriteCovariatesCSV(w io.Writer, rows []model.CovariateRow) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal covariates")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write covariates")
	}
	return nil
}

// WriteCovariatesCSVFile writes the covariate table to disk.
func WriteCovariatesCSVFile(path string, rows []model.CovariateRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCovariatesCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// covariateColumns carries the covariate side of a model input row.
// Locality and year already come from the observation side, so they are
// not repeated here.
type covariateColumns struct {
	PLAND00 float64 `csv:"pland_00"`
	PLAND01 float64 `csv:"pland_01"`
	PLAND02 float64 `csv:"pland_02"`
	PLAND03 float64 `csv:"pland_03"`
	PLAND04 float64 `csv:"pland_04"`
	PLAND05 float64 `csv:"pland_05"`
	PLAND06 float64 `csv:"pland_06"`
	PLAND07 float64 `csv:"pland_07"`
	PLAND08 float64 `csv:"pland_08"`
	PLAND09 float64 `csv:"pland_09"`
	PLAND10 float64 `csv:"pland_10"`
	PLAND11 float64 `csv:"pland_11"`
	PLAND12 float64 `csv:"pland_12"`
	PLAND13 float64 `csv:"pland_13"`
	PLAND14 float64 `csv:"pland_14"`
	PLAND15 float64 `csv:"pland_15"`

	ElevationMean   *float64 `csv:"elevation_mean"`
	ElevationMedian *float64 `csv:"elevation_median"`
	ElevationSD     *float64 `csv:"elevation_sd"`
	ElevationIQR    *float64 `csv:"elevation_iqr"`
}

// modelInputRecord flattens a joined row for CSV interchange with the
// external model-fitting step.
type modelInputRecord struct {
	model.Observation
	covariateColumns
}

// WriteModelInputCSV writes observation rows joined with their
// covariates for consumption by the external regression step.
func WriteModelInputCSV(w io.Writer, rows []model.ModelInputRow) error {
	records := make([]modelInputRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, modelInputRecord{
			Observation: r.Obs,
			covariateColumns: covariateColumns{
				PLAND00: r.Cov.PLAND00, PLAND01: r.Cov.PLAND01,
				PLAND02: r.Cov.PLAND02, PLAND03: r.Cov.PLAND03,
				PLAND04: r.Cov.PLAND04, PLAND05: r.Cov.PLAND05,
				PLAND06: r.Cov.PLAND06, PLAND07: r.Cov.PLAND07,
				PLAND08: r.Cov.PLAND08, PLAND09: r.Cov.PLAND09,
				PLAND10: r.Cov.PLAND10, PLAND11: r.Cov.PLAND11,
				PLAND12: r.Cov.PLAND12, PLAND13: r.Cov.PLAND13,
				PLAND14: r.Cov.PLAND14, PLAND15: r.Cov.PLAND15,

				ElevationMean:   r.Cov.ElevationMean,
				ElevationMedian: r.Cov.ElevationMedian,
				ElevationSD:     r.Cov.ElevationSD,
				ElevationIQR:    r.Cov.ElevationIQR,
			},
		})
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "export: marshal model input")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write model input")
	}
	return nil
}

// WriteModelInputCSVFile writes the model input table to disk.
func WriteModelInputCSVFile(path string, rows []model.ModelInputRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteModelInputCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
