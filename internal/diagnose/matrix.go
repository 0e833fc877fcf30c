package diagnose

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/loonworks/sdm-cli/internal/model"
)

// CovariateMatrix builds the named design matrix for VIF computation
// from a covariate table: the 16 PLAND columns followed by the four
// elevation statistics. Rows with null elevation are skipped; the
// regression they would feed excludes them the same way.
//
// The PLAND columns are compositional: with class reconstruction
// enabled they sum to exactly one, so the full set is perfectly
// collinear and every PLAND VIF starts at +Inf. The resolver's first
// drop then falls to its name tie-break, which is the expected way out
// of the composition, not an arbitrary choice; protecting an
// ecologically important class steers that first drop elsewhere.
func CovariateMatrix(rows []model.CovariateRow) ([]string, *mat.Dense, error) {
	names := append(model.PLANDColumnNames(),
		"elevation_mean", "elevation_median", "elevation_sd", "elevation_iqr")

	var data []float64
	var n int
	for i := range rows {
		r := &rows[i]
		if r.ElevationMean == nil || r.ElevationMedian == nil || r.ElevationSD == nil || r.ElevationIQR == nil {
			continue
		}
		for class := 0; class < model.NumLandCoverClasses; class++ {
			data = append(data, r.PLAND(class))
		}
		data = append(data, *r.ElevationMean, *r.ElevationMedian, *r.ElevationSD, *r.ElevationIQR)
		n++
	}
	if n == 0 {
		return nil, nil, eris.New("diagnose: no covariate rows with complete elevation")
	}
	return names, mat.NewDense(n, len(names), data), nil
}
