package obs

import (
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/model"
)

// Join inner-joins observations to covariate rows on (locality, year).
// Rows with a missing count are removed after the join, not before, so
// that join misses and unreported counts are counted as the distinct
// failure modes they are. Input order is preserved, so the drop set is
// reproducible for a given input.
func Join(observations []model.Observation, covariates []model.CovariateRow) ([]model.ModelInputRow, model.JoinReport) {
	byKey := make(map[model.LocationYear]model.CovariateRow, len(covariates))
	for _, c := range covariates {
		byKey[c.Key()] = c
	}

	report := model.JoinReport{Input: len(observations)}
	rows := make([]model.ModelInputRow, 0, len(observations))
	for _, o := range observations {
		cov, ok := byKey[o.Key()]
		if !ok {
			report.JoinMisses++
			continue
		}
		if o.Count == nil {
			report.MissingResponse++
			continue
		}
		rows = append(rows, model.ModelInputRow{Obs: o, Cov: cov})
	}
	report.Joined = len(rows)

	zap.L().Info("obs: joined observations to covariates",
		zap.Int("input", report.Input),
		zap.Int("joined", report.Joined),
		zap.Int("join_misses", report.JoinMisses),
		zap.Int("missing_response", report.MissingResponse),
	)
	return rows, report
}

// SplitByYear partitions rows into train and test sets: a year belongs
// to exactly one side, so no row can appear in both.
func SplitByYear(rows []model.ModelInputRow, testYears []int) (train, test []model.ModelInputRow) {
	isTest := make(map[int]bool, len(testYears))
	for _, y := range testYears {
		isTest[y] = true
	}
	for _, r := range rows {
		if isTest[r.Obs.Year] {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test
}
