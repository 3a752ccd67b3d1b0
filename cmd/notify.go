/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/mq"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume application events and log employer notifications",
	Long: `Consume application events from the configured broker. With
MQ_BACKEND=memory the server notifies in-process and this command is not needed.

	MQ_BACKEND=rabbitmq jobportal notify
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log := loadConfig()
		if cfg.MQBackend == "memory" {
			return errors.New("notify needs an external broker; set MQ_BACKEND to rabbitmq or pubsub")
		}

		bus, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer bus.Close()

		log.Info(ctx, "waiting for application events", "backend", cfg.MQBackend, "channel", events.ApplicationChannel)
		err = events.SubscribeApplications(ctx, bus, log, events.NewNotifier(log).Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume events: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
