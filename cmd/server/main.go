package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canvas-sync/backend/internal/config"
	"github.com/canvas-sync/backend/internal/httpapi"
	"github.com/canvas-sync/backend/internal/objects"
	"github.com/canvas-sync/backend/internal/room"
)

var objectPalette = []string{"#ff6b6b", "#4ecdc4", "#ffe66d", "#a78bfa", "#f8961e"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log, err := buildLogger(cfg.Debug)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := objects.Seed(cfg.ObjectCount, objectPalette)
	r := room.New(ctx, store, cfg.CursorThrottle, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(r, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("objects", cfg.ObjectCount))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.Inbox() <- room.Shutdown{}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
