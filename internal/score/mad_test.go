package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/model"
)

func ptr(v float64) *float64 { return &v }

func ptrs(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = &vals[i]
	}
	return out
}

func rowFor(subset string, rows []model.MADRow) model.MADRow {
	for _, r := range rows {
		if r.Subset == subset {
			return r
		}
	}
	return model.MADRow{}
}

func TestMAD(t *testing.T) {
	mad, n := MAD(ptrs(0, 2, 5), ptrs(2.33, 2.33, 2.33))
	assert.Equal(t, 3, n)
	assert.InDelta(t, 1.78, mad, 0.01)
}

func TestMAD_SkipsMissingPairs(t *testing.T) {
	observed := []*float64{ptr(1), nil, ptr(3)}
	predicted := []*float64{ptr(2), ptr(9), nil}
	mad, n := MAD(observed, predicted)
	assert.Equal(t, 1, n)
	assert.InDelta(t, 1.0, mad, 1e-9)
}

func TestMAD_Empty(t *testing.T) {
	mad, n := MAD(nil, nil)
	assert.Zero(t, n)
	assert.True(t, math.IsNaN(mad))
}

func TestScore_Subsets(t *testing.T) {
	rows, err := Score("baseline", ptrs(0, 2, 5), ptrs(2.33, 2.33, 2.33))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	all := rowFor(model.MADSubsetAll, rows)
	assert.Equal(t, "baseline", all.Variant)
	assert.Equal(t, 3, all.N)
	assert.InDelta(t, 1.78, all.MAD, 0.01)

	zero := rowFor(model.MADSubsetZero, rows)
	assert.Equal(t, 1, zero.N)
	assert.InDelta(t, 2.33, zero.MAD, 1e-9)

	nonzero := rowFor(model.MADSubsetNonzero, rows)
	assert.Equal(t, 2, nonzero.N)
	assert.InDelta(t, 1.5, nonzero.MAD, 0.01)
}

func TestScore_PerfectPrediction(t *testing.T) {
	rows, err := Score("oracle", ptrs(0, 2, 5), ptrs(0, 2, 5))
	require.NoError(t, err)
	for _, r := range rows {
		assert.Zero(t, r.MAD, r.Subset)
	}
}

func TestScore_NonNegative(t *testing.T) {
	rows, err := Score("m", ptrs(0, 1, 4, 0, 9), ptrs(3, 0, 7, 1, 2))
	require.NoError(t, err)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.MAD, 0.0)
	}
}

func TestScore_EmptySubset(t *testing.T) {
	// No zero-observed rows: that subset scores NaN with n = 0 rather
	// than being omitted.
	rows, err := Score("m", ptrs(1, 2), ptrs(1, 2))
	require.NoError(t, err)

	zero := rowFor(model.MADSubsetZero, rows)
	assert.Zero(t, zero.N)
	assert.True(t, math.IsNaN(zero.MAD))
}

func TestScore_LengthMismatch(t *testing.T) {
	_, err := Score("m", ptrs(1), ptrs(1, 2))
	assert.Error(t, err)
}

func TestScoreRows(t *testing.T) {
	rows := []model.ModelInputRow{
		{Obs: model.Observation{Count: ptr(2)}},
		{Obs: model.Observation{Count: nil}},
		{Obs: model.Observation{Count: ptr(0)}},
	}
	scored, err := ScoreRows("m", rows, []float64{3, 5, 1})
	require.NoError(t, err)

	all := rowFor(model.MADSubsetAll, scored)
	// The nil-count row is skipped, the others score |2-3| and |0-1|.
	assert.Equal(t, 2, all.N)
	assert.InDelta(t, 1.0, all.MAD, 1e-9)
}

func TestScoreRows_LengthMismatch(t *testing.T) {
	_, err := ScoreRows("m", nil, []float64{1})
	assert.Error(t, err)
}
