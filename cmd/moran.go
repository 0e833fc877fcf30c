package main

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/diagnose"
	"github.com/loonworks/sdm-cli/internal/export"
	"github.com/loonworks/sdm-cli/internal/geometry"
)

var (
	moranResiduals string
	moranOut       string
)

// residualRecord is one model residual at a checklist coordinate, as
// exported by the model-fitting step.
type residualRecord struct {
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
	Residual  float64 `csv:"residual"`
}

var moranCmd = &cobra.Command{
	Use:   "moran",
	Short: "Test model residuals for spatial autocorrelation",
	Long:  "Deduplicates residuals to one median per distinct coordinate, builds a Delaunay-then-sphere-of-influence neighbor graph, and reports global Moran's I with its p-value. Diagnostic only; nothing is corrected automatically.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(moranResiduals)
		if err != nil {
			return eris.Wrapf(err, "open %s", moranResiduals)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return eris.Wrap(err, "read residuals")
		}
		var records []residualRecord
		if err := csvutil.Unmarshal(data, &records); err != nil {
			return eris.Wrap(err, "decode residuals csv")
		}
		if len(records) == 0 {
			return eris.New("no residuals in input")
		}

		lats := make([]float64, len(records))
		lons := make([]float64, len(records))
		residuals := make([]float64, len(records))
		for i, r := range records {
			lats[i] = r.Latitude
			lons[i] = r.Longitude
			residuals[i] = r.Residual
		}

		projected, err := geometry.ProjectCoordinates(lats, lons, cfg.Raster.Proj4)
		if err != nil {
			return err
		}
		points := make([]diagnose.Point, len(projected))
		for i, xy := range projected {
			points[i] = diagnose.Point{X: xy[0], Y: xy[1]}
		}

		points, residuals = diagnose.DeduplicateByCoordinate(points, residuals)
		report, err := diagnose.MoranTest(points, residuals, diagnose.MoranOptions{
			Alternative: cfg.Moran.Alternative,
		})
		if err != nil {
			return err
		}
		return export.WriteReportYAML(moranOut, report)
	},
}

func init() {
	moranCmd.Flags().StringVar(&moranResiduals, "residuals", "", "residual CSV (latitude, longitude, residual)")
	moranCmd.Flags().StringVar(&moranOut, "out", "moran.yaml", "report output path")
	moranCmd.MarkFlagRequired("residuals")
	rootCmd.AddCommand(moranCmd)
}
