package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	echoapi "github.com/trezcool/nudge/apps/api/echo"
	"github.com/trezcool/nudge/apps/shared"
	"github.com/trezcool/nudge/core"
	logsvc "github.com/trezcool/nudge/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	app, err := shared.New(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up app: %v", err), err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err := run(app); err != nil {
		logger.Error(fmt.Sprintf("server error: %v", err), err)
	}
}

func run(app *shared.App) error {
	conf, logger := app.Conf, app.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:             conf,
		Logger:           logger,
		StudentSvc:       app.StudentSvc,
		EncouragementSvc: app.EncouragementSvc,
		SignalShutdown:   stop,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			return server.Close()
		}
		return nil
	})
	if conf.Encouragement.SweepEnabled {
		g.Go(func() error {
			logger.Info(fmt.Sprintf("inactivity sweeps every %v", conf.Encouragement.SweepInterval))
			return app.EncouragementSvc.RunSweeps(gctx, conf.Encouragement.SweepInterval)
		})
	}
	return g.Wait()
}
