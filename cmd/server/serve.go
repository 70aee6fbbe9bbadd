package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/atlekbai/expansion_explorer/internal/config"
	"github.com/atlekbai/expansion_explorer/internal/handler"
	"github.com/atlekbai/expansion_explorer/internal/middleware"
	"github.com/atlekbai/expansion_explorer/internal/server"
	"github.com/atlekbai/expansion_explorer/internal/service"
	"github.com/atlekbai/expansion_explorer/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	sessions, err := session.NewManager(session.NewPgProvider(cfg.Database), cfg.Session.Capacity, cfg.Session.TTL)
	if err != nil {
		return err
	}
	defer sessions.Close()

	explorer := service.NewExplorerService(sessions, cfg.Database.StatementTimeout)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: newRouter(explorer),
	}

	go func() {
		<-ctx.Done()
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logStartup(cfg)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return errors.Wrap(err, "server error")
	}
	return nil
}

func newRouter(explorer *service.ExplorerService) http.Handler {
	r := mux.NewRouter()

	server.Mount(r, []server.ConnectService{explorer}, server.LoggingInterceptor())

	handler.New(explorer).Routes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return middleware.Chain(r, middleware.Recovery, middleware.Logging)
}

func logStartup(cfg *config.Config) {
	log.Printf("listening on %s (session ttl %s, statement timeout %s)",
		cfg.Addr(), cfg.Session.TTL, cfg.Database.StatementTimeout)
}
