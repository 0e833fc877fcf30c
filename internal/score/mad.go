// Package score computes held-out prediction error for competing model
// variants.
package score

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/loonworks/sdm-cli/internal/model"
)

// MAD returns the mean absolute deviation between observed and
// predicted values, skipping pairs where either side is missing, along
// with the number of pairs scored. Returns NaN when nothing is
// scorable.
func MAD(observed, predicted []*float64) (float64, int) {
	var sum float64
	var n int
	for i := range observed {
		if observed[i] == nil || predicted[i] == nil {
			continue
		}
		sum += math.Abs(*observed[i] - *predicted[i])
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}

// Score computes the MAD of one model variant over the all /
// zero-observed / nonzero-observed subsets of identical held-out data.
// No side effects beyond the returned rows.
func Score(variant string, observed, predicted []*float64) ([]model.MADRow, error) {
	if len(observed) != len(predicted) {
		return nil, eris.Errorf("score: %d observed vs %d predicted", len(observed), len(predicted))
	}

	subset := func(keep func(obs float64) bool) ([]*float64, []*float64) {
		var o, p []*float64
		for i := range observed {
			if observed[i] == nil || !keep(*observed[i]) {
				continue
			}
			o = append(o, observed[i])
			p = append(p, predicted[i])
		}
		return o, p
	}

	rows := make([]model.MADRow, 0, 3)
	for _, part := range []struct {
		name string
		keep func(float64) bool
	}{
		{model.MADSubsetAll, func(float64) bool { return true }},
		{model.MADSubsetZero, func(v float64) bool { return v == 0 }},
		{model.MADSubsetNonzero, func(v float64) bool { return v != 0 }},
	} {
		o, p := subset(part.keep)
		mad, n := MAD(o, p)
		rows = append(rows, model.MADRow{Variant: variant, Subset: part.name, MAD: mad, N: n})
	}
	return rows, nil
}

// ScoreRows extracts observed counts from held-out model input rows and
// scores them against parallel predictions.
func ScoreRows(variant string, rows []model.ModelInputRow, predicted []float64) ([]model.MADRow, error) {
	if len(rows) != len(predicted) {
		return nil, eris.Errorf("score: %d rows vs %d predictions", len(rows), len(predicted))
	}
	obs := make([]*float64, len(rows))
	pred := make([]*float64, len(rows))
	for i := range rows {
		obs[i] = rows[i].Count()
		pred[i] = &predicted[i]
	}
	return Score(variant, obs, pred)
}
