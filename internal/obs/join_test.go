package obs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/model"
)

func obsRow(checklist, locality string, year int, count *float64) model.Observation {
	return model.Observation{
		ChecklistID: checklist,
		LocalityID:  locality,
		Year:        year,
		Count:       count,
	}
}

func covRow(locality string, year int) model.CovariateRow {
	return model.CovariateRow{LocalityID: locality, Year: year}
}

func ptr(v float64) *float64 { return &v }

func TestJoin(t *testing.T) {
	observations := []model.Observation{
		obsRow("S1", "L1", 2019, ptr(2)),
		obsRow("S2", "L1", 2019, nil),     // joined, then dropped for missing count
		obsRow("S3", "L2", 2019, ptr(0)),  // no covariate row
		obsRow("S4", "L1", 2020, ptr(5)),
	}
	covariates := []model.CovariateRow{
		covRow("L1", 2019),
		covRow("L1", 2020),
	}

	rows, report := Join(observations, covariates)

	assert.Equal(t, 4, report.Input)
	assert.Equal(t, 2, report.Joined)
	assert.Equal(t, 1, report.JoinMisses)
	assert.Equal(t, 1, report.MissingResponse)

	require.Len(t, rows, 2)
	// Input order is preserved.
	assert.Equal(t, "S1", rows[0].Obs.ChecklistID)
	assert.Equal(t, "S4", rows[1].Obs.ChecklistID)
	assert.Equal(t, 2019, rows[0].Cov.Year)
}

func TestJoin_MissingCountOnMissedJoinCountsAsMiss(t *testing.T) {
	// A row that both misses the join and lacks a count is a join miss;
	// the response check happens after the join.
	observations := []model.Observation{obsRow("S1", "L9", 2019, nil)}
	_, report := Join(observations, nil)
	assert.Equal(t, 1, report.JoinMisses)
	assert.Zero(t, report.MissingResponse)
}

func TestSplitByYear(t *testing.T) {
	rows := []model.ModelInputRow{
		{Obs: obsRow("S1", "L1", 2018, ptr(1))},
		{Obs: obsRow("S2", "L1", 2019, ptr(2))},
		{Obs: obsRow("S3", "L2", 2019, ptr(3))},
		{Obs: obsRow("S4", "L2", 2020, ptr(4))},
	}

	train, test := SplitByYear(rows, []int{2019})
	assert.Len(t, train, 2)
	assert.Len(t, test, 2)
	assert.Equal(t, len(rows), len(train)+len(test))

	// A year lands on exactly one side.
	trainYears := map[int]bool{}
	for _, r := range train {
		trainYears[r.Obs.Year] = true
	}
	for _, r := range test {
		assert.False(t, trainYears[r.Obs.Year])
	}
}

func TestSplitByYear_NoTestYears(t *testing.T) {
	rows := []model.ModelInputRow{{Obs: obsRow("S1", "L1", 2018, ptr(1))}}
	train, test := SplitByYear(rows, nil)
	assert.Len(t, train, 1)
	assert.Empty(t, test)
}
