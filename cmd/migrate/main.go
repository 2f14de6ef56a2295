package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coin-wallet/internal/infrastructure/config"
	"coin-wallet/internal/infrastructure/persistence/schema"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the coin wallet schema",
	Long: `Create or update the coin wallet tables (wallets, transactions, coin_packages,
payments, reward_tasks) and optionally seed the default coin packages and the
starter reward tasks for the given users. Seeding never overwrites existing rows.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().Bool("seed-packages", true, "Insert the default coin packages")
	rootCmd.Flags().StringSlice("seed-tasks-for", nil, "User IDs to receive the starter reward tasks")
	rootCmd.Flags().Bool("dry-run", false, "Print the planned actions without connecting to the database")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	seedPackages, _ := cmd.Flags().GetBool("seed-packages")
	taskUsers, _ := cmd.Flags().GetStringSlice("seed-tasks-for")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "would migrate %d tables on %s:%d/%s\n", len(schema.Models()), dbCfg.Host, dbCfg.Port, dbCfg.Database)
		if seedPackages {
			fmt.Fprintf(out, "would seed %d coin packages\n", len(schema.DefaultPackages()))
		}
		for _, userID := range taskUsers {
			fmt.Fprintf(out, "would seed %d reward tasks for %s\n", len(schema.DefaultTasks(userID)), userID)
		}
		return nil
	}

	db, err := schema.Open(dbCfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := schema.Migrate(db); err != nil {
		return err
	}
	fmt.Fprintf(out, "migrated %d tables\n", len(schema.Models()))

	if seedPackages {
		n, err := schema.SeedPackages(db, schema.DefaultPackages())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d coin packages\n", n)
	}

	for _, userID := range taskUsers {
		n, err := schema.SeedTasks(db, schema.DefaultTasks(userID))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d reward tasks for %s\n", n, userID)
	}
	return nil
}
