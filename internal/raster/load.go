package raster

import (
	"os"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var landCoverName = regexp.MustCompile(`^landcover_(\d{4})\.asc$`)

// LoadLandCoverDir reads every landcover_<year>.asc grid in dir, keyed
// by year. An unreadable grid aborts the load: a structurally broken
// raster is not a per-row failure.
func LoadLandCoverDir(dir, proj4 string) (map[int]*Grid, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read dir %s", dir)
	}

	grids := make(map[int]*Grid)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := landCoverName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		g, err := OpenASCII(dir+"/"+entry.Name(), proj4)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: land cover year %d", year)
		}
		grids[year] = g
	}
	if len(grids) == 0 {
		return nil, eris.Errorf("raster: no landcover_<year>.asc grids in %s", dir)
	}

	zap.L().Info("raster: loaded land-cover series", zap.Int("years", len(grids)))
	return grids, nil
}
