package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/auth"
	httpapp "github.com/bunchup/bunchup/internal/http"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/store/sqlite"
)

func (a *app) serverCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Run the development API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default: $BUNCHUP_ADDR or :$PORT)"},
			&cli.StringFlag{Name: "db", Usage: "sqlite database path (default: $BUNCHUP_DB)"},
		},
		Action: func(c *cli.Context) error {
			cfg := a.cfg.Server
			if v := c.String("addr"); v != "" {
				cfg.Addr = v
			}
			if v := c.String("db"); v != "" {
				cfg.DBPath = v
			}

			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			authSvc := auth.NewService(store, cfg.TokenSecret, cfg.TokenTTL)
			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapp.NewServer(store, authSvc),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				log.Info.Printf("bunchup listening on %s", cfg.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			log.Info.Println("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}
