package covariate

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
)

// Extractor fans covariate extraction out across a worker pool. Each
// location-year extraction is independent; rasters are read-only shared
// inputs, so the only synchronization is the fan-in map. A failed
// extraction for one location-year is recorded and skipped, never fatal
// to the batch.
type Extractor struct {
	Index     *geometry.Index
	LandCover *LandCoverAggregator
	Elevation *ElevationAggregator
	Workers   int
}

// Result is the merged covariate table plus the extraction report.
type Result struct {
	Rows   []model.CovariateRow
	Report model.ExtractionReport
}

// Run extracts covariates for every given location-year pair. Elevation
// is computed once per distinct location, land cover once per pair, and
// the two are merged at the end.
func (e *Extractor) Run(ctx context.Context, pairs []model.LocationYear) (*Result, error) {
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}

	pairs = dedupePairs(pairs)
	report := model.ExtractionReport{
		Locations:     e.Index.Len(),
		LocationYears: len(pairs),
	}

	// Elevation pass: one summary per distinct location.
	elev := make(map[string]*model.ElevationSummary, e.Index.Len())
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, localityID := range e.Index.Localities() {
		nb := e.Index.Neighborhood(localityID)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := e.Elevation.Summarize(nb)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Empty neighborhoods are expected near the raster
				// edge; the null summary rides along and the merge
				// drops the row.
				report.EmptyElevation++
			}
			elev[nb.Location.LocalityID] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Land-cover pass: one sample per location-year.
	samples := make([]*model.LandCoverSample, 0, len(pairs))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, pair := range pairs {
		nb := e.Index.Neighborhood(pair.LocalityID)
		if nb == nil {
			mu.Lock()
			report.NullLandCover++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := e.LandCover.Sample(nb, pair.Year)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.NullLandCover++
				zap.L().Warn("covariate: land-cover extraction failed",
					zap.String("locality", pair.LocalityID),
					zap.Int("year", pair.Year),
					zap.Error(err),
				)
				return nil
			}
			if sample.Substituted {
				report.Substituted++
			}
			samples = append(samples, sample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fan-in order is nondeterministic; the merge sorts, but sort here
	// too so duplicate detection errors are reproducible.
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].LocalityID != samples[j].LocalityID {
			return samples[i].LocalityID < samples[j].LocalityID
		}
		return samples[i].Year < samples[j].Year
	})

	rows, stats, err := Merge(samples, elev, e.LandCover.cfg)
	if err != nil {
		return nil, err
	}
	report.Rows = len(rows)
	report.DroppedByMerge = stats.Dropped
	report.EmptyLandCover = stats.EmptyLandCover
	report.NegativeReconstructed = stats.NegativeReconstructed

	zap.L().Info("covariate: extraction complete",
		zap.Int("locations", report.Locations),
		zap.Int("location_years", report.LocationYears),
		zap.Int("rows", report.Rows),
		zap.Int("substituted", report.Substituted),
		zap.Int("empty_land_cover", report.EmptyLandCover),
		zap.Int("empty_elevation", report.EmptyElevation),
	)
	return &Result{Rows: rows, Report: report}, nil
}

// dedupePairs removes repeated location-year keys, preserving a sorted
// deterministic order.
func dedupePairs(pairs []model.LocationYear) []model.LocationYear {
	seen := make(map[model.LocationYear]bool, len(pairs))
	out := make([]model.LocationYear, 0, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocalityID != out[j].LocalityID {
			return out[i].LocalityID < out[j].LocalityID
		}
		return out[i].Year < out[j].Year
	})
	return out
}
