package diagnose

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/loonworks/sdm-cli/internal/model"
)

// ErrDuplicateCoordinate reports an attempt to run the autocorrelation
// test on non-unique coordinates; the statistic is undefined for
// repeated points, so the caller must deduplicate first.
var ErrDuplicateCoordinate = eris.New("diagnose: duplicate coordinates; deduplicate residuals first")

// Test alternatives.
const (
	AlternativeGreater  = "greater"
	AlternativeLess     = "less"
	AlternativeTwoSided = "two.sided"
)

// DeduplicateByCoordinate collapses residuals sharing an exact
// coordinate pair to a single row carrying their median. The median is
// robust to outlier checklists at heavily birded sites. Output order
// follows the first occurrence of each coordinate, so the result is
// reproducible.
func DeduplicateByCoordinate(pts []Point, residuals []float64) ([]Point, []float64) {
	index := make(map[Point]int, len(pts))
	var outPts []Point
	groups := make([][]float64, 0, len(pts))
	for i, p := range pts {
		gi, ok := index[p]
		if !ok {
			gi = len(outPts)
			index[p] = gi
			outPts = append(outPts, p)
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], residuals[i])
	}

	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = median(g)
	}
	return outPts, out
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// MoranOptions configures the autocorrelation test.
type MoranOptions struct {
	// Alternative is one of greater, less, or two.sided; greater is the
	// conventional choice when screening residuals for positive
	// clustering.
	Alternative string
}

// MoranTest computes global Moran's I for the residuals over the binary
// sphere-of-influence adjacency of their coordinates, with the
// expectation and variance under the randomization assumption. The
// output is descriptive: an elevated statistic is a diagnostic flag for
// the modeler, nothing is corrected automatically.
func MoranTest(pts []Point, residuals []float64, opts MoranOptions) (*model.MoranReport, error) {
	if len(pts) != len(residuals) {
		return nil, eris.Errorf("diagnose: %d points for %d residuals", len(pts), len(residuals))
	}
	if len(pts) < 4 {
		return nil, eris.Errorf("diagnose: need at least 4 distinct points, got %d", len(pts))
	}
	seen := make(map[Point]bool, len(pts))
	for _, p := range pts {
		if seen[p] {
			return nil, eris.Wrapf(ErrDuplicateCoordinate, "(%v, %v)", p.X, p.Y)
		}
		seen[p] = true
	}

	delaunay, err := Delaunay(pts)
	if err != nil {
		return nil, err
	}
	g := SphereOfInfluence(delaunay)

	var isolated int
	for i := range pts {
		if g.Degree(i) == 0 {
			isolated++
		}
	}
	if isolated > 0 {
		zap.L().Warn("diagnose: isolated points in neighbor graph", zap.Int("points", isolated))
	}

	report, err := moranI(g, residuals, opts.Alternative)
	if err != nil {
		return nil, err
	}
	zap.L().Info("diagnose: moran test",
		zap.Float64("i", report.I),
		zap.Float64("p", report.P),
		zap.Int("n", report.N),
		zap.Int("edges", report.Edges),
	)
	return report, nil
}

// moranI computes the statistic over binary (unweighted) adjacency.
func moranI(g *Graph, x []float64, alternative string) (*model.MoranReport, error) {
	n := float64(len(x))
	edges := g.NumEdges()
	if edges == 0 {
		return nil, eris.New("diagnose: neighbor graph has no edges")
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= n

	z := make([]float64, len(x))
	var m2, m4 float64
	for i, v := range x {
		z[i] = v - mean
		m2 += z[i] * z[i]
		m4 += z[i] * z[i] * z[i] * z[i]
	}
	if m2 == 0 {
		return nil, eris.New("diagnose: residuals are constant")
	}

	var cross float64
	for i := range x {
		for _, j := range g.Neighbors(i) {
			cross += z[i] * z[j]
		}
	}

	// Binary symmetric weights: S0 = 2E, S1 = 2 S0, S2 = 4 sum(deg^2).
	s0 := 2 * float64(edges)
	s1 := 2 * s0
	var s2 float64
	for i := range x {
		d := float64(g.Degree(i))
		s2 += 4 * d * d
	}

	observed := (n / s0) * (cross / m2)
	expected := -1 / (n - 1)

	b2 := n * m4 / (m2 * m2)
	num := n*((n*n-3*n+3)*s1-n*s2+3*s0*s0) -
		b2*((n*n-n)*s1-2*n*s2+6*s0*s0)
	den := (n - 1) * (n - 2) * (n - 3) * s0 * s0
	variance := num/den - expected*expected
	if variance <= 0 {
		return nil, eris.New("diagnose: non-positive variance for Moran's I")
	}

	zscore := (observed - expected) / math.Sqrt(variance)
	norm := distuv.Normal{Mu: 0, Sigma: 1}

	var p float64
	switch alternative {
	case AlternativeLess:
		p = norm.CDF(zscore)
	case AlternativeTwoSided:
		p = 2 * norm.Survival(math.Abs(zscore))
	case AlternativeGreater, "":
		alternative = AlternativeGreater
		p = norm.Survival(zscore)
	default:
		return nil, eris.Errorf("diagnose: unknown alternative %q", alternative)
	}

	return &model.MoranReport{
		I:           observed,
		Expected:    expected,
		Variance:    variance,
		Z:           zscore,
		P:           p,
		N:           len(x),
		Edges:       edges,
		Alternative: alternative,
	}, nil
}
