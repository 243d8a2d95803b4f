package cmd

import (
	"github.com/spf13/cobra"

	"nexus/config"
	"nexus/models"
)

var seedCompanies []string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithField("component", "migrate")

		db, err := config.ConnectDB(cfg, log)
		if err != nil {
			return err
		}
		if err := models.CreateDefaultCompanies(db, seedCompanies...); err != nil {
			return err
		}
		log.WithField("companies", len(seedCompanies)).Info("Schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringSliceVar(&seedCompanies, "company", nil, "company to create if missing (repeatable)")
}
