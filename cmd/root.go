package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/config"
	"github.com/loonworks/sdm-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sdm-cli",
	Short: "Species distribution modeling covariate pipeline",
	Long:  "Extracts land-cover and elevation covariates around bird checklist locations, joins them for count-model fitting, and validates fitted models (VIF, Moran's I, held-out MAD).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore builds the configured store backend with its schema
// migrated.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
