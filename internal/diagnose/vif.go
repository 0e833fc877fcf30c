// Package diagnose implements the model-fit validation engine:
// variance-inflation-factor multicollinearity resolution and Moran's I
// spatial autocorrelation testing over a sphere-of-influence neighbor
// graph.
package diagnose

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/loonworks/sdm-cli/internal/model"
)

// DefaultVIFThreshold is the conventional cutoff above which a
// covariate is considered problematically collinear.
const DefaultVIFThreshold = 5.0

// VIF computes the variance inflation factor of every column of X by
// regressing it on the remaining columns (with intercept):
// VIF = 1 / (1 - R²). A column perfectly explained by the others gets
// +Inf.
func VIF(names []string, X *mat.Dense) ([]model.VIFEntry, error) {
	n, p := X.Dims()
	if p != len(names) {
		return nil, eris.Errorf("diagnose: %d names for %d columns", len(names), p)
	}
	if n <= p {
		return nil, eris.Errorf("diagnose: %d rows cannot support %d covariates", n, p)
	}

	entries := make([]model.VIFEntry, p)
	for j := 0; j < p; j++ {
		r2, err := rsquared(X, j)
		if err != nil {
			return nil, eris.Wrapf(err, "diagnose: vif for %s", names[j])
		}
		vif := math.Inf(1)
		if r2 < 1 {
			vif = 1 / (1 - r2)
		}
		entries[j] = model.VIFEntry{Covariate: names[j], VIF: vif}
	}
	return entries, nil
}

// rsquared fits column j of X against the other columns plus an
// intercept by least squares and returns the coefficient of
// determination.
func rsquared(X *mat.Dense, j int) (float64, error) {
	n, p := X.Dims()
	if p == 1 {
		return 0, nil
	}

	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y.SetVec(i, X.At(i, j))
	}

	A := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		A.Set(i, 0, 1)
		col := 1
		for k := 0; k < p; k++ {
			if k == j {
				continue
			}
			A.Set(i, col, X.At(i, k))
			col++
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(A, y); err != nil {
		// A rank-deficient design means the column is perfectly
		// collinear with the others.
		return 1, nil
	}

	var fitted mat.VecDense
	fitted.MulVec(A, &beta)

	mean := mat.Sum(y) / float64(n)
	var rss, tss float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - fitted.AtVec(i)
		rss += d * d
		t := y.AtVec(i) - mean
		tss += t * t
	}
	if tss == 0 {
		// Constant column; its variance cannot be inflated.
		return 0, nil
	}
	r2 := 1 - rss/tss
	if r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}
	return r2, nil
}

// Resolver iteratively removes the worst collinear covariate until
// every retained covariate's VIF falls below the threshold. Covariates
// the modeler judges ecologically meaningful go in Protected and are
// never dropped; the ranked table at every step is kept in the report
// so the decision trail stays auditable.
type Resolver struct {
	Threshold float64
	Protected []string
}

// Resolve runs the drop loop over the named covariate matrix. Exactly
// one covariate is removed per iteration. Returns an error when the
// maximum VIF stays above threshold but only protected covariates
// remain implicated.
func (r *Resolver) Resolve(names []string, X *mat.Dense) (*model.VIFReport, error) {
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultVIFThreshold
	}
	protected := make(map[string]bool, len(r.Protected))
	for _, p := range r.Protected {
		protected[p] = true
	}

	report := &model.VIFReport{
		Threshold: threshold,
		Protected: append([]string(nil), r.Protected...),
	}

	cur := mat.DenseCopyOf(X)
	curNames := append([]string(nil), names...)

	for {
		entries, err := VIF(curNames, cur)
		if err != nil {
			return nil, err
		}
		ranked := rankByVIF(entries)

		if len(ranked) == 0 || ranked[0].VIF < threshold {
			report.Steps = append(report.Steps, model.VIFStep{Table: ranked})
			report.Retained = curNames
			report.Final = ranked
			break
		}

		drop := ""
		for _, e := range ranked {
			if e.VIF >= threshold && !protected[e.Covariate] {
				drop = e.Covariate
				break
			}
		}
		if drop == "" {
			report.Steps = append(report.Steps, model.VIFStep{Table: ranked})
			return report, eris.Errorf("diagnose: max VIF %.2f above threshold but only protected covariates remain implicated", ranked[0].VIF)
		}

		report.Steps = append(report.Steps, model.VIFStep{Table: ranked, Dropped: drop})
		zap.L().Info("diagnose: dropping collinear covariate",
			zap.String("covariate", drop),
			zap.Float64("max_vif", ranked[0].VIF),
		)
		cur, curNames = dropColumn(cur, curNames, drop)
	}

	return report, nil
}

// rankByVIF sorts entries by descending VIF, ties broken by name so the
// drop order is deterministic.
func rankByVIF(entries []model.VIFEntry) []model.VIFEntry {
	ranked := append([]model.VIFEntry(nil), entries...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].VIF != ranked[j].VIF {
			return ranked[i].VIF > ranked[j].VIF
		}
		return ranked[i].Covariate < ranked[j].Covariate
	})
	return ranked
}

func dropColumn(X *mat.Dense, names []string, name string) (*mat.Dense, []string) {
	idx := -1
	for i, n := range names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return X, names
	}

	n, p := X.Dims()
	out := mat.NewDense(n, p-1, nil)
	for i := 0; i < n; i++ {
		col := 0
		for k := 0; k < p; k++ {
			if k == idx {
				continue
			}
			out.Set(i, col, X.At(i, k))
			col++
		}
	}
	outNames := append(append([]string(nil), names[:idx]...), names[idx+1:]...)
	return out, outNames
}
