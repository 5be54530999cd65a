package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaopengme/topicbot/pkg/broadcast"
	"github.com/zhaopengme/topicbot/pkg/config"
	"github.com/zhaopengme/topicbot/pkg/line"
)

func newBroadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast",
		Short: "Push one generated topic to every registered user now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg.Logging); err != nil {
				return err
			}

			reg, err := openRegistry(cfg.Registry)
			if err != nil {
				return err
			}
			defer reg.Close()

			gen, err := newGenerator(cfg)
			if err != nil {
				return err
			}
			client := line.NewClient(cfg.LINE.ChannelAccessToken, cfg.LINE.APIBase, cfg.LINE.Timeout)

			svc, err := broadcast.NewService(reg, gen, client, broadcast.Schedule{
				Interval: cfg.Broadcast.Interval,
				Cron:     cfg.Broadcast.Cron,
			})
			if err != nil {
				return err
			}

			res := svc.Broadcast(cmd.Context())
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Run %s skipped: %s\n", res.RunID, res.SkipReason)
				return nil
			}
			fmt.Fprintf(out, "Run %s: %d/%d sent, %d failed (%s)\n",
				res.RunID, res.Sent, res.Total, res.Failed, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
