package covariate

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/model"
)

// MergeStats counts rows affected by the merge. Dropped is the total
// across all drop reasons; EmptyLandCover counts the subset dropped for
// having no weighted land-cover cells.
type MergeStats struct {
	Dropped               int
	EmptyLandCover        int
	NegativeReconstructed int
}

// Merge inner-joins land-cover samples with elevation summaries into
// covariate rows. A sample with no weighted land-cover cells, or whose
// location lacks an elevation summary (or whose summary is empty), is
// dropped: a covariate row without both halves is not usable
// downstream, and reconstructing proportions over an empty sample would
// report coverage nothing measured. The configured unreliable class is
// reconstructed as 1 - sum(all other proportions); a negative result is
// flagged and kept, never clamped. Output is sorted by (locality, year)
// and guaranteed free of duplicate keys.
func Merge(samples []*model.LandCoverSample, elev map[string]*model.ElevationSummary, cfg LandCoverConfig) ([]model.CovariateRow, MergeStats, error) {
	var stats MergeStats
	seen := make(map[model.LocationYear]bool, len(samples))
	rows := make([]model.CovariateRow, 0, len(samples))

	for _, s := range samples {
		key := model.LocationYear{LocalityID: s.LocalityID, Year: s.Year}
		if seen[key] {
			return nil, stats, eris.Errorf("covariate: duplicate key %s/%d", s.LocalityID, s.Year)
		}
		seen[key] = true

		if s.TotalWeight == 0 {
			stats.EmptyLandCover++
			stats.Dropped++
			zap.L().Warn("covariate: no weighted land-cover cells in neighborhood",
				zap.String("locality", s.LocalityID),
				zap.Int("year", s.Year),
			)
			continue
		}

		es, ok := elev[s.LocalityID]
		if !ok || es.Empty() {
			stats.Dropped++
			continue
		}

		row := model.CovariateRow{
			LocalityID:      s.LocalityID,
			Year:            s.Year,
			RasterYear:      s.RasterYear,
			Substituted:     s.Substituted,
			ElevationMean:   es.Mean,
			ElevationMedian: es.Median,
			ElevationSD:     es.SD,
			ElevationIQR:    es.IQR,
		}
		for class := 0; class < model.NumLandCoverClasses; class++ {
			row.SetPLAND(class, s.PLAND(class))
		}

		if rc := cfg.ReconstructClass; rc >= 0 && rc < model.NumLandCoverClasses {
			var others float64
			for class := 0; class < model.NumLandCoverClasses; class++ {
				if class != rc {
					others += row.PLAND(class)
				}
			}
			reconstructed := 1 - others
			row.SetPLAND(rc, reconstructed)
			if reconstructed < 0 {
				row.ReconstructedNegative = true
				stats.NegativeReconstructed++
				zap.L().Warn("covariate: reconstructed class below zero",
					zap.String("locality", s.LocalityID),
					zap.Int("year", s.Year),
					zap.Int("class", rc),
					zap.Float64("value", reconstructed),
				)
			}
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LocalityID != rows[j].LocalityID {
			return rows[i].LocalityID < rows[j].LocalityID
		}
		return rows[i].Year < rows[j].Year
	})
	return rows, stats, nil
}
