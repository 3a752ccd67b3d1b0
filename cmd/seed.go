/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/internal/db"
	"github.com/jobportal/apiserver/internal/fixtures"
	"github.com/jobportal/apiserver/internal/server"
	"github.com/jobportal/apiserver/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the development dataset into postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log := loadConfig()

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		ds, err := fixtures.Load()
		if err != nil {
			return err
		}
		err = fixtures.Seed(ctx, ds, fixtures.Target{
			Accounts:     store.NewAccountRepository(conn),
			JobPostings:  store.NewJobPostingRepository(conn),
			Applications: store.NewApplicationRepository(conn),
		}, server.PasswordHasher(cfg.Password))
		if err != nil {
			return err
		}

		log.Info(ctx, "seeded database",
			"accounts", len(ds.Accounts),
			"job_postings", len(ds.JobPostings),
			"applications", len(ds.Applications),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
