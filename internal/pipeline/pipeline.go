// Package pipeline runs the end-to-end covariate extraction and join
// for one species. Each invocation builds its own context from scratch;
// no state is shared between species runs.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/config"
	"github.com/loonworks/sdm-cli/internal/covariate"
	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/obs"
	"github.com/loonworks/sdm-cli/internal/raster"
	"github.com/loonworks/sdm-cli/internal/store"
)

// Pipeline orchestrates extraction, merge, join, and split for one
// species at a time.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
}

// New creates a Pipeline over the given configuration and store.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: st}
}

// Result is the output of one species run.
type Result struct {
	Run        *model.Run
	Index      *geometry.Index
	Covariates []model.CovariateRow
	Train      []model.ModelInputRow
	Test       []model.ModelInputRow
	Extraction model.ExtractionReport
	Join       model.JoinReport
}

// Run executes the pipeline for one species observation table.
func (p *Pipeline) Run(ctx context.Context, species, obsPath string) (*Result, error) {
	log := zap.L().With(zap.String("species", species))
	log.Info("pipeline: starting run")

	run, err := p.store.CreateRun(ctx, species)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	result := &Result{Run: run}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	fail := func(err error) (*Result, error) {
		setStatus(model.RunStatusFailed)
		return nil, err
	}

	// Inputs.
	observations, err := obs.LoadFile(obsPath)
	if err != nil {
		return fail(err)
	}
	landCover, err := raster.LoadLandCoverDir(p.cfg.Raster.LandCoverDir, p.cfg.Raster.Proj4)
	if err != nil {
		return fail(err)
	}
	elevation, err := raster.OpenASCII(p.cfg.Raster.ElevationPath, p.cfg.Raster.Proj4)
	if err != nil {
		return fail(err)
	}

	// Covariate extraction.
	setStatus(model.RunStatusExtracting)

	var maxCell float64
	for _, g := range landCover {
		if g.MaxCellSize() > maxCell {
			maxCell = g.MaxCellSize()
		}
	}
	radius := geometry.BufferRadius(maxCell)

	index, err := geometry.NewIndex(obs.Locations(observations), radius, p.cfg.Raster.Proj4)
	if err != nil {
		return fail(err)
	}
	result.Index = index

	landCoverAgg, err := covariate.NewLandCoverAggregator(covariate.LandCoverConfig{
		ReconstructClass: p.cfg.LandCover.ReconstructClass,
		ExtendLatestYear: p.cfg.LandCover.ExtendLatestYear,
	}, landCover)
	if err != nil {
		return fail(err)
	}

	extractor := &covariate.Extractor{
		Index:     index,
		LandCover: landCoverAgg,
		Elevation: covariate.NewElevationAggregator(elevation),
		Workers:   p.cfg.Extract.Workers,
	}
	extracted, err := extractor.Run(ctx, obs.Pairs(observations))
	if err != nil {
		return fail(err)
	}
	result.Covariates = extracted.Rows
	result.Extraction = extracted.Report

	if err := p.store.SaveCovariates(ctx, species, extracted.Rows); err != nil {
		return fail(err)
	}
	if err := p.saveNeighborhoods(ctx, species, index); err != nil {
		return fail(err)
	}
	if err := p.saveReport(ctx, run.ID, model.ReportKindExtraction, extracted.Report); err != nil {
		return fail(err)
	}

	// Join and split.
	setStatus(model.RunStatusJoining)

	joined, joinReport := obs.Join(observations, extracted.Rows)
	result.Train, result.Test = obs.SplitByYear(joined, p.cfg.Split.TestYears)
	joinReport.Train = len(result.Train)
	joinReport.Test = len(result.Test)
	result.Join = joinReport

	if err := p.saveReport(ctx, run.ID, model.ReportKindJoin, joinReport); err != nil {
		return fail(err)
	}

	setStatus(model.RunStatusComplete)
	log.Info("pipeline: run complete",
		zap.Int("covariate_rows", len(result.Covariates)),
		zap.Int("train", len(result.Train)),
		zap.Int("test", len(result.Test)),
	)
	return result, nil
}

func (p *Pipeline) saveNeighborhoods(ctx context.Context, species string, index *geometry.Index) error {
	records := make([]store.NeighborhoodRecord, 0, index.Len())
	for _, localityID := range index.Localities() {
		data, err := index.Neighborhood(localityID).EncodeWKB()
		if err != nil {
			return err
		}
		records = append(records, store.NeighborhoodRecord{LocalityID: localityID, EWKB: data})
	}
	return p.store.SaveNeighborhoods(ctx, species, records)
}

func (p *Pipeline) saveReport(ctx context.Context, runID, kind string, report any) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s report", kind)
	}
	return p.store.SaveReport(ctx, runID, kind, payload)
}
