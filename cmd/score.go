package main

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/export"
	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/score"
)

var (
	scorePredictions []string
	scoreOut         string
)

// predictionRecord is one held-out prediction pair. Either value may be
// missing; pairs with a missing side are skipped, not zeroed.
type predictionRecord struct {
	Variant   string   `csv:"variant"`
	Observed  *float64 `csv:"observed"`
	Predicted *float64 `csv:"predicted"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score held-out predictions by mean absolute deviation",
	Long:  "Computes MAD over the all / zero-observed / nonzero-observed subsets for each model variant, to compare variants on identical held-out data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := &model.MADReport{}

		for _, path := range scorePredictions {
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "open %s", path)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return eris.Wrapf(err, "read %s", path)
			}

			var records []predictionRecord
			if err := csvutil.Unmarshal(data, &records); err != nil {
				return eris.Wrapf(err, "decode %s", path)
			}

			byVariant := map[string][]predictionRecord{}
			var order []string
			for _, r := range records {
				if _, ok := byVariant[r.Variant]; !ok {
					order = append(order, r.Variant)
				}
				byVariant[r.Variant] = append(byVariant[r.Variant], r)
			}

			for _, variant := range order {
				recs := byVariant[variant]
				observed := make([]*float64, len(recs))
				predicted := make([]*float64, len(recs))
				for i, r := range recs {
					observed[i] = r.Observed
					predicted[i] = r.Predicted
				}
				rows, err := score.Score(variant, observed, predicted)
				if err != nil {
					return err
				}
				report.Rows = append(report.Rows, rows...)
			}
		}
		return export.WriteReportYAML(scoreOut, report)
	},
}

func init() {
	scoreCmd.Flags().StringSliceVar(&scorePredictions, "predictions", nil, "prediction CSVs (variant, observed, predicted)")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "mad.yaml", "report output path")
	scoreCmd.MarkFlagRequired("predictions")
	rootCmd.AddCommand(scoreCmd)
}
