// Package obs loads per-species observation tables and joins them to
// covariate rows for model fitting.
package obs

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
)

// Load reads an observation CSV produced by the upstream extraction
// step. Stationary-protocol records have their travel distance forced
// to zero, and every coordinate is validated on the way in.
func Load(r io.Reader) ([]model.Observation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "obs: read")
	}

	var rows []model.Observation
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "obs: decode csv")
	}

	var stationary int
	for i := range rows {
		if err := geometry.ValidateCoordinate(rows[i].Latitude, rows[i].Longitude); err != nil {
			return nil, eris.Wrapf(err, "obs: checklist %s", rows[i].ChecklistID)
		}
		if rows[i].ProtocolType == model.ProtocolStationary && rows[i].EffortDistanceKM != 0 {
			rows[i].EffortDistanceKM = 0
			stationary++
		}
	}
	if stationary > 0 {
		zap.L().Debug("obs: zeroed travel distance on stationary checklists", zap.Int("rows", stationary))
	}
	return rows, nil
}

// LoadFile reads an observation CSV from disk.
func LoadFile(path string) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "obs: open %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Locations returns the distinct locations referenced by the
// observations, first occurrence per locality id.
func Locations(observations []model.Observation) []model.Location {
	seen := make(map[string]bool, len(observations))
	var locs []model.Location
	for _, o := range observations {
		if seen[o.LocalityID] {
			continue
		}
		seen[o.LocalityID] = true
		locs = append(locs, o.Location())
	}
	return locs
}

// Pairs returns the distinct (locality, year) keys referenced by the
// observations.
func Pairs(observations []model.Observation) []model.LocationYear {
	seen := make(map[model.LocationYear]bool, len(observations))
	var pairs []model.LocationYear
	for _, o := range observations {
		key := o.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, key)
	}
	return pairs
}
