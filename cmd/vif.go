package main

import (
	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/diagnose"
	"github.com/loonworks/sdm-cli/internal/export"
)

var (
	vifSpecies   string
	vifProtected []string
	vifOut       string
)

var vifCmd = &cobra.Command{
	Use:   "vif",
	Short: "Resolve multicollinearity over a stored covariate table",
	Long:  "Computes variance inflation factors for every covariate and iteratively drops the worst unprotected covariate until all retained VIFs fall below the threshold. Protected covariates are never dropped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.GetCovariates(ctx, vifSpecies)
		if err != nil {
			return err
		}
		names, X, err := diagnose.CovariateMatrix(rows)
		if err != nil {
			return err
		}

		protected := cfg.VIF.Protected
		if len(vifProtected) > 0 {
			protected = vifProtected
		}
		resolver := &diagnose.Resolver{
			Threshold: cfg.VIF.Threshold,
			Protected: protected,
		}
		report, err := resolver.Resolve(names, X)
		if err != nil {
			return err
		}
		return export.WriteReportYAML(vifOut, report)
	},
}

func init() {
	vifCmd.Flags().StringVar(&vifSpecies, "species", "", "species whose covariate table to test")
	vifCmd.Flags().StringSliceVar(&vifProtected, "protected", nil, "covariates never dropped (overrides config)")
	vifCmd.Flags().StringVar(&vifOut, "out", "vif.yaml", "report output path")
	vifCmd.MarkFlagRequired("species")
	rootCmd.AddCommand(vifCmd)
}
