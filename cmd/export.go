package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/export"
)

var (
	exportSpecies string
	exportFormat  string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored covariate table as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.GetCovariates(ctx, exportSpecies)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			return export.WriteCovariatesCSVFile(exportOut, rows)
		case "xlsx":
			return export.WriteCovariatesXLSX(exportOut, rows)
		default:
			return eris.Errorf("unknown export format %q", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSpecies, "species", "", "species whose covariate table to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "covariates.csv", "output path")
	exportCmd.MarkFlagRequired("species")
	rootCmd.AddCommand(exportCmd)
}
