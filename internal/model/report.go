package model

// ExtractionReport aggregates per-row outcomes of one covariate
// extraction run. Per-row failures are counted here rather than aborting
// the batch.
type ExtractionReport struct {
	Locations             int `json:"locations" yaml:"locations"`
	LocationYears         int `json:"location_years" yaml:"location_years"`
	Rows                  int `json:"rows" yaml:"rows"`
	NullLandCover         int `json:"null_land_cover" yaml:"null_land_cover"`
	EmptyLandCover        int `json:"empty_land_cover" yaml:"empty_land_cover"`
	EmptyElevation        int `json:"empty_elevation" yaml:"empty_elevation"`
	Substituted           int `json:"substituted" yaml:"substituted"`
	NegativeReconstructed int `json:"negative_reconstructed" yaml:"negative_reconstructed"`
	DroppedByMerge        int `json:"dropped_by_merge" yaml:"dropped_by_merge"`
}

// JoinReport counts row outcomes of the observation-covariate join. A
// join miss and a genuinely unreported count are different failure modes
// and are counted separately.
type JoinReport struct {
	Input           int `json:"input" yaml:"input"`
	Joined          int `json:"joined" yaml:"joined"`
	JoinMisses      int `json:"join_misses" yaml:"join_misses"`
	MissingResponse int `json:"missing_response" yaml:"missing_response"`
	Train           int `json:"train" yaml:"train"`
	Test            int `json:"test" yaml:"test"`
}

// VIFEntry is one covariate's variance inflation factor.
type VIFEntry struct {
	Covariate string  `json:"covariate" yaml:"covariate"`
	VIF       float64 `json:"vif" yaml:"vif"`
}

// VIFStep records one iteration of the multicollinearity resolution
// loop: the ranked table as seen, and the covariate removed (empty on
// the terminating iteration).
type VIFStep struct {
	Table   []VIFEntry `json:"table" yaml:"table"`
	Dropped string     `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// VIFReport is the decision-support output of the multicollinearity
// resolver.
type VIFReport struct {
	Threshold float64    `json:"threshold" yaml:"threshold"`
	Protected []string   `json:"protected,omitempty" yaml:"protected,omitempty"`
	Steps     []VIFStep  `json:"steps" yaml:"steps"`
	Retained  []string   `json:"retained" yaml:"retained"`
	Final     []VIFEntry `json:"final" yaml:"final"`
}

// MoranReport holds the global spatial autocorrelation test result.
type MoranReport struct {
	I           float64 `json:"i" yaml:"i"`
	Expected    float64 `json:"expected" yaml:"expected"`
	Variance    float64 `json:"variance" yaml:"variance"`
	Z           float64 `json:"z" yaml:"z"`
	P           float64 `json:"p" yaml:"p"`
	N           int     `json:"n" yaml:"n"`
	Edges       int     `json:"edges" yaml:"edges"`
	Alternative string  `json:"alternative" yaml:"alternative"`
}

// MAD subset labels.
const (
	MADSubsetAll     = "all"
	MADSubsetZero    = "zero"
	MADSubsetNonzero = "nonzero"
)

// MADRow is one mean-absolute-deviation score for one model variant on
// one observation subset.
type MADRow struct {
	Variant string  `json:"variant" yaml:"variant"`
	Subset  string  `json:"subset" yaml:"subset"`
	MAD     float64 `json:"mad" yaml:"mad"`
	N       int     `json:"n" yaml:"n"`
}

// MADReport collects scores across variants and subsets.
type MADReport struct {
	Rows []MADRow `json:"rows" yaml:"rows"`
}
