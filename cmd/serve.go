package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/server"
	"github.com/desertthunder/mibands/internal/shared"
	"github.com/desertthunder/mibands/internal/web"
)

// Serve runs the web app until SIGINT or SIGTERM, then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", r.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.Server.Addr(), err)
	}
	return r.serve(ctx, ln, cmd.Bool("open"))
}

// serve builds the app and serves it on ln until ctx is cancelled.
func (r *Runner) serve(ctx context.Context, ln net.Listener, open bool) error {
	db, closeDB, err := r.openDB(true)
	if err != nil {
		ln.Close()
		return err
	}
	defer closeDB()

	app, err := web.New(web.Options{
		Config:   r.config,
		DB:       db,
		Logger:   shared.WithLogger(r.logger, "component", "web"),
		Previews: r.previews,
	})
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to build web app: %w", err)
	}

	srv := server.New(r.config.Server, app.Handler(), r.logger)
	if open {
		url := r.config.Server.BaseURL
		if url == "" {
			url = "http://" + ln.Addr().String()
		}
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}
	return srv.Serve(ctx, ln)
}
