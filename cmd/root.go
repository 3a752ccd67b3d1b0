/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobportal",
	Short: "Job portal backend",
	Long: `Job portal backend: session-cookie auth, profiles and job applications.

	jobportal server
	jobportal migrate up
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it with a
// context that is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig() (config.Config, logging.Logger) {
	cfg := config.LoadConfig()
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.IsProduction())
}
