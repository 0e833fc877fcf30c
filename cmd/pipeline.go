package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/export"
	"github.com/loonworks/sdm-cli/internal/pipeline"
)

var (
	pipelineSpecies      string
	pipelineObservations string
	pipelineExportDir    string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run extraction, join, and split end-to-end for one species",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := pipeline.New(cfg, st).Run(ctx, pipelineSpecies, pipelineObservations)
		if err != nil {
			return err
		}

		if pipelineExportDir == "" {
			return nil
		}
		prefix := filepath.Join(pipelineExportDir, pipelineSpecies)
		if err := export.WriteCovariatesCSVFile(prefix+"_covariates.csv", result.Covariates); err != nil {
			return err
		}
		if err := export.WriteModelInputCSVFile(prefix+"_train.csv", result.Train); err != nil {
			return err
		}
		if err := export.WriteModelInputCSVFile(prefix+"_test.csv", result.Test); err != nil {
			return err
		}
		return export.WriteNeighborhoodsShapefile(prefix+"_neighborhoods.shp", result.Index)
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineSpecies, "species", "", "species code, e.g. woothr")
	pipelineCmd.Flags().StringVar(&pipelineObservations, "observations", "", "observation CSV path")
	pipelineCmd.Flags().StringVar(&pipelineExportDir, "export-dir", "", "directory for covariate/train/test CSV and neighborhood shapefile exports")
	pipelineCmd.MarkFlagRequired("species")
	pipelineCmd.MarkFlagRequired("observations")
	rootCmd.AddCommand(pipelineCmd)
}
