package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/ledhost/config"
	"github.com/wippyai/ledhost/dispatch"
	"github.com/wippyai/ledhost/engine"
	"github.com/wippyai/ledhost/netlink"
	"github.com/wippyai/ledhost/status"
	"github.com/wippyai/ledhost/transport"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command channel and drive the strip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Log.Level)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	out, err := openOutput(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn("close sink", zap.Error(err))
		}
	}()

	engine.SetLogger(log)
	eng, err := engine.New(ctx, &engine.Config{
		MemoryLimitPages: cfg.Engine.MemoryLimitPages,
		WASI:             cfg.Engine.WASI,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(context.Background()); err != nil {
			log.Warn("close engine", zap.Error(err))
		}
	}()

	if cfg.Network.SSID != "" {
		link := &netlink.Unmanaged{Logger: log.Named("netlink")}
		if err := link.Connect(ctx, cfg.Network.SSID, cfg.Network.PSK); err != nil {
			return err
		}
	}

	d := dispatch.New(ctx, dispatch.Config{
		Loader:   dispatch.EngineLoader(eng),
		Sink:     out.sink,
		Logger:   log.Named("dispatch"),
		Policy:   cfg.Policy(),
		Count:    cfg.LEDs.Count,
		Interval: cfg.Tick.Interval,
		MaxFrame: cfg.Protocol.MaxFrame,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.Close(closeCtx); err != nil {
			log.Warn("stop program", zap.Error(err))
		}
	}()

	runner := newRunner(cfg, log.Named("transport"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx, func(ctx context.Context, conn net.Conn) error {
			return d.Serve(ctx, conn)
		})
	})
	if cfg.Status.Listen != "" {
		srv := status.New(status.Config{Listen: cfg.Status.Listen}, d, out.frames, log.Named("status"))
		g.Go(func() error { return srv.Start(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.Info("shutting down")
		return nil
	}
	return err
}

func newRunner(cfg *config.Config, log *zap.Logger) transport.Runner {
	if cfg.Transport.Connect != "" {
		return &transport.Dialer{
			Logger: log,
			Addr:   cfg.Transport.Connect,
			Delay:  cfg.Transport.ReconnectDelay,
		}
	}
	return &transport.Listener{Logger: log, Addr: cfg.Transport.Listen}
}
