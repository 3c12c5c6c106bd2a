package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/watchbridge/internal/adapters/http"
	"github.com/dkeye/watchbridge/internal/adapters/notify"
	peer "github.com/dkeye/watchbridge/internal/adapters/signal"
	"github.com/dkeye/watchbridge/internal/app"
	"github.com/dkeye/watchbridge/internal/app/orch"
	"github.com/dkeye/watchbridge/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	dialer, err := peer.NewPeerDialer(cfg.Peer.URL, cfg.Peer.HandshakeTimeout, cfg.ReadLimit, cfg.PingPeriod)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid peer config")
	}
	center, err := notify.NewCenter(cfg.Notify.Backend, cfg.Notify.AppName)
	if err != nil {
		log.Fatal().Err(err).Msg("notification center")
	}

	policy, err := app.PolicyByName(cfg.Dispatcher.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("dispatcher policy")
	}

	reg := app.NewRegistry()
	dispatcher := app.NewDispatcher(reg, app.NewChannelManager(), policy)
	dispatcher.Strict = cfg.Dispatcher.StrictArguments

	o := &orch.Orchestrator{
		Loop:       app.NewMainLoop(),
		Transport:  app.NewTransport(dialer, cfg.Peer.ReconnectInterval),
		Router:     app.NewRouter(dispatcher),
		Dispatcher: dispatcher,
		Notifier:   app.NewTerminationNotifier(dispatcher, center, cfg.Notify.Delay),
		Registry:   reg,
	}
	o.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupRouter(ctx, cfg, o),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("bridge started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		cancel()

		teardownCtx, teardownCancel := context.WithTimeout(context.Background(), time.Second)
		o.Teardown(teardownCtx)
		teardownCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}

		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Notify.DrainTimeout)
		defer drainCancel()
		center.Drain(drainCtx)
		if c, ok := center.(io.Closer); ok {
			_ = c.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Msg("Bridge exited")
}
