package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/loonworks/sdm-cli/internal/fetcher"
)

var fetchYears []int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download yearly land-cover rasters from the configured FTP mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fetcher.New(fetcher.Options{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})
		_, err := f.DownloadLandCoverYears(cmd.Context(), cfg.Fetch.BaseURL, fetchYears, cfg.Raster.LandCoverDir)
		return err
	},
}

func init() {
	fetchCmd.Flags().IntSliceVar(&fetchYears, "years", nil, "raster years to download")
	fetchCmd.MarkFlagRequired("years")
	rootCmd.AddCommand(fetchCmd)
}
