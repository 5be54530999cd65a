package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhaopengme/topicbot/pkg/broadcast"
	"github.com/zhaopengme/topicbot/pkg/config"
	"github.com/zhaopengme/topicbot/pkg/handler"
	"github.com/zhaopengme/topicbot/pkg/line"
	"github.com/zhaopengme/topicbot/pkg/logger"
	"github.com/zhaopengme/topicbot/pkg/persona"
	"github.com/zhaopengme/topicbot/pkg/webhook"
)

const minShutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and the topic broadcaster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg.Logging); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
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
	h := handler.New(client, gen, reg, persona.FileSource{Path: cfg.PersonaPath})
	dispatcher := webhook.NewDispatcher(cfg.LINE.ChannelSecret, h, cfg.Server.HandlerTimeout)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           webhook.NewMux(dispatcher),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var scheduler *broadcast.Service
	if cfg.Broadcast.Enabled {
		scheduler, err = broadcast.NewService(reg, gen, client, broadcast.Schedule{
			Interval: cfg.Broadcast.Interval,
			Cron:     cfg.Broadcast.Cron,
		})
		if err != nil {
			return err
		}
		// Shutdown goes through Stop so an in-flight run can finish its pushes.
		if err := scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	} else {
		logger.InfoC("main", "Topic broadcast disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoCF("main", "Webhook server listening", map[string]interface{}{
			"addr": srv.Addr,
			"path": "/callback",
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoC("main", "Shutting down")
		if scheduler != nil {
			scheduler.Stop()
		}
		return shutdownServer(srv, shutdownTimeout(cfg.Server.HandlerTimeout))
	})

	return g.Wait()
}

// shutdownTimeout gives requests still in their handler the full handler
// budget before connections are dropped.
func shutdownTimeout(handlerTimeout time.Duration) time.Duration {
	if t := handlerTimeout + time.Second; t > minShutdownTimeout {
		return t
	}
	return minShutdownTimeout
}

// shutdownServer drains srv. Running out of time is a normal stop: the
// remaining connections are closed and no error is reported.
func shutdownServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	logger.WarnCF("main", "Shutdown timed out, closing remaining connections", map[string]interface{}{
		"timeout": timeout.String(),
	})
	if cerr := srv.Close(); cerr != nil {
		logger.DebugCF("main", "Close after shutdown timeout", map[string]interface{}{
			"error": cerr.Error(),
		})
	}
	return nil
}
