package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/studio-cms/pkg/config"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
)

var (
	cfg         *config.Config
	log         *logger.Logger
	databaseURL string
	catalogFile string
)

var rootCmd = &cobra.Command{
	Use:           "studio-cli",
	Short:         "Maintenance tasks for the studio CMS document store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cfg = config.Load()
	log = logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", cfg.DatabaseURL, "database URL (file:... or libsql://...)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "collections", cfg.CollectionsFile, "YAML collection catalogue")

	importCmd.Flags().StringVar(&importFile, "file", "", "JSON file to import")
	_ = importCmd.MarkFlagRequired("file")
	renumberCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")

	rootCmd.AddCommand(exportCmd, importCmd, checkCmd, renumberCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func openRepo() (*sqlite.SQLiteRepository, error) {
	return sqlite.NewSQLiteRepository(databaseURL)
}

func loadCatalog() (domain.Catalog, error) {
	return config.LoadCatalog(catalogFile)
}
