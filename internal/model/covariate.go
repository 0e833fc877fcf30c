package model

import "fmt"

// NumLandCoverClasses is the number of land-cover class codes (0-15) in
// the UMD classification carried by the yearly MODIS-style rasters.
const NumLandCoverClasses = 16

// LandCoverSample holds the area-weighted cell counts per land-cover
// class within one neighborhood for one year. RasterYear is the year of
// the raster actually sampled; Substituted marks the case where the
// observation year ran past the newest available raster and the newest
// one was reused.
type LandCoverSample struct {
	LocalityID  string
	Year        int
	RasterYear  int
	Substituted bool
	ClassWeight [NumLandCoverClasses]float64
	TotalWeight float64
}

// PLAND returns the proportion of the neighborhood covered by the given
// class, or 0 when the neighborhood had no valid cells.
func (s *LandCoverSample) PLAND(class int) float64 {
	if s.TotalWeight == 0 {
		return 0
	}
	return s.ClassWeight[class] / s.TotalWeight
}

// ElevationSummary holds neighborhood elevation statistics for one
// location. All fields are nil when no valid elevation cells intersect
// the neighborhood.
type ElevationSummary struct {
	LocalityID string   `csv:"locality_id" json:"locality_id"`
	Mean       *float64 `csv:"elevation_mean" json:"elevation_mean,omitempty"`
	Median     *float64 `csv:"elevation_median" json:"elevation_median,omitempty"`
	SD         *float64 `csv:"elevation_sd" json:"elevation_sd,omitempty"`
	IQR        *float64 `csv:"elevation_iqr" json:"elevation_iqr,omitempty"`
}

// Empty reports whether the summary carries no statistics.
func (e *ElevationSummary) Empty() bool {
	return e.Mean == nil && e.Median == nil && e.SD == nil && e.IQR == nil
}

// CovariateRow is one model-ready covariate record keyed by
// (locality, year): the 16 PLAND proportions plus the elevation
// statistics. ReconstructedNegative marks rows where the reconstructed
// class came out below zero due to fractional-extraction rounding; the
// value is kept as-is, never clamped.
type CovariateRow struct {
	LocalityID string `csv:"locality_id" json:"locality_id"`
	Year       int    `csv:"year" json:"year"`

	PLAND00 float64 `csv:"pland_00" json:"pland_00"`
	PLAND01 float64 `csv:"pland_01" json:"pland_01"`
	PLAND02 float64 `csv:"pland_02" json:"pland_02"`
	PLAND03 float64 `csv:"pland_03" json:"pland_03"`
	PLAND04 float64 `csv:"pland_04" json:"pland_04"`
	PLAND05 float64 `csv:"pland_05" json:"pland_05"`
	PLAND06 float64 `csv:"pland_06" json:"pland_06"`
	PLAND07 float64 `csv:"pland_07" json:"pland_07"`
	PLAND08 float64 `csv:"pland_08" json:"pland_08"`
	PLAND09 float64 `csv:"pland_09" json:"pland_09"`
	PLAND10 float64 `csv:"pland_10" json:"pland_10"`
	PLAND11 float64 `csv:"pland_11" json:"pland_11"`
	PLAND12 float64 `csv:"pland_12" json:"pland_12"`
	PLAND13 float64 `csv:"pland_13" json:"pland_13"`
	PLAND14 float64 `csv:"pland_14" json:"pland_14"`
	PLAND15 float64 `csv:"pland_15" json:"pland_15"`

	ElevationMean   *float64 `csv:"elevation_mean" json:"elevation_mean,omitempty"`
	ElevationMedian *float64 `csv:"elevation_median" json:"elevation_median,omitempty"`
	ElevationSD     *float64 `csv:"elevation_sd" json:"elevation_sd,omitempty"`
	ElevationIQR    *float64 `csv:"elevation_iqr" json:"elevation_iqr,omitempty"`

	RasterYear            int  `csv:"raster_year" json:"raster_year"`
	Substituted           bool `csv:"substituted" json:"substituted"`
	ReconstructedNegative bool `csv:"reconstructed_negative" json:"reconstructed_negative"`
}

// Key returns the (locality, year) join key.
func (r CovariateRow) Key() LocationYear {
	return LocationYear{LocalityID: r.LocalityID, Year: r.Year}
}

// PLAND returns the proportion for the given class code.
func (r *CovariateRow) PLAND(class int) float64 {
	return *r.plandRef(class)
}

// SetPLAND sets the proportion for the given class code.
func (r *CovariateRow) SetPLAND(class int, v float64) {
	*r.plandRef(class) = v
}

func (r *CovariateRow) plandRef(class int) *float64 {
	fields := [NumLandCoverClasses]*float64{
		&r.PLAND00, &r.PLAND01, &r.PLAND02, &r.PLAND03,
		&r.PLAND04, &r.PLAND05, &r.PLAND06, &r.PLAND07,
		&r.PLAND08, &r.PLAND09, &r.PLAND10, &r.PLAND11,
		&r.PLAND12, &r.PLAND13, &r.PLAND14, &r.PLAND15,
	}
	return fields[class]
}

// PLANDColumnNames returns the covariate column names in class order.
func PLANDColumnNames() []string {
	names := make([]string, NumLandCoverClasses)
	for i := range names {
		names[i] = plandColumnName(i)
	}
	return names
}

func plandColumnName(class int) string {
	return fmt.Sprintf("pland_%02d", class)
}

// ModelInputRow is one observation joined to its covariates, the unit
// consumed by the external model-fitting step.
type ModelInputRow struct {
	Obs Observation
	Cov CovariateRow
}

// Count returns the response value, nil when unreported.
func (m ModelInputRow) Count() *float64 {
	return m.Obs.Count
}
