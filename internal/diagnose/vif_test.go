package diagnose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// collinearMatrix builds a 12x3 design where x3 = x1 + x2, so all three
// columns are perfectly explained by the others.
func collinearMatrix() ([]string, *mat.Dense) {
	n := 12
	X := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		x1 := float64(i)
		x2 := float64(i % 3)
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		X.Set(i, 2, x1+x2)
	}
	return []string{"x1", "x2", "x3"}, X
}

func TestVIF_IndependentColumns(t *testing.T) {
	n := 12
	X := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
	}

	entries, err := VIF([]string{"x1", "x2"}, X)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.VIF, 1.0)
		assert.Less(t, e.VIF, 2.0)
	}
}

func TestVIF_PerfectCollinearity(t *testing.T) {
	names, X := collinearMatrix()
	entries, err := VIF(names, X)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, math.IsInf(e.VIF, 1), "%s should have infinite VIF", e.Covariate)
	}
}

func TestVIF_ConstantColumn(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 7) // constant
		X.Set(i, 1, float64(i))
	}
	entries, err := VIF([]string{"c", "x"}, X)
	require.NoError(t, err)
	assert.Equal(t, 1.0, entries[0].VIF)
}

func TestVIF_TooFewRows(t *testing.T) {
	X := mat.NewDense(3, 3, nil)
	_, err := VIF([]string{"a", "b", "c"}, X)
	assert.Error(t, err)
}

func TestVIF_NameCountMismatch(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	_, err := VIF([]string{"a"}, X)
	assert.Error(t, err)
}

func TestResolver_DropsCollinearCovariate(t *testing.T) {
	names, X := collinearMatrix()
	r := &Resolver{Threshold: 5.0}

	report, err := r.Resolve(names, X)
	require.NoError(t, err)

	// All three tie at infinite VIF; the name tiebreak drops x1 first,
	// and the remaining pair falls under the threshold.
	require.Len(t, report.Steps, 2)
	assert.Equal(t, "x1", report.Steps[0].Dropped)
	assert.Empty(t, report.Steps[1].Dropped)
	assert.Equal(t, []string{"x2", "x3"}, report.Retained)

	require.Len(t, report.Final, 2)
	for _, e := range report.Final {
		assert.Less(t, e.VIF, 5.0)
	}
	assert.Equal(t, 5.0, report.Threshold)
}

func TestResolver_ProtectedSurvives(t *testing.T) {
	names, X := collinearMatrix()
	r := &Resolver{Threshold: 5.0, Protected: []string{"x1"}}

	report, err := r.Resolve(names, X)
	require.NoError(t, err)
	assert.Contains(t, report.Retained, "x1")
	assert.Equal(t, "x2", report.Steps[0].Dropped)
}

func TestResolver_OnlyProtectedImplicated(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)) // identical column
	}
	r := &Resolver{Threshold: 5.0, Protected: []string{"a", "b"}}

	report, err := r.Resolve([]string{"a", "b"}, X)
	assert.Error(t, err)
	// The ranked table at the stuck step is still reported for the
	// modeler to act on.
	require.NotNil(t, report)
	require.Len(t, report.Steps, 1)
}

func TestResolver_DefaultThreshold(t *testing.T) {
	n := 12
	X := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
	}
	r := &Resolver{}

	report, err := r.Resolve([]string{"x1", "x2"}, X)
	require.NoError(t, err)
	assert.Equal(t, DefaultVIFThreshold, report.Threshold)
	assert.Len(t, report.Retained, 2)
}
