package main

import (
	"context"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/job"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the low-stock digest once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			n, err := job.NewLowStockDigest(a.services.Inventory, a.services.Notifier(), a.logger).Run(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("Low stock digest sent", zap.Int("items", n))
			// 飞书推送是异步的，留出发送时间
			if n > 0 && a.cfg.Notify.FeishuWebhook != "" {
				time.Sleep(3 * time.Second)
			}
			return nil
		},
	}
}
