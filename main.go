package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tr1v3r/pkg/log"
	"github.com/urfave/cli/v3"

	"github.com/tr1v3r/mpvbridge/internal/config"
	"github.com/tr1v3r/mpvbridge/internal/host"
	"github.com/tr1v3r/mpvbridge/internal/httpserver"
	"github.com/tr1v3r/mpvbridge/internal/monitoring"
	"github.com/tr1v3r/mpvbridge/internal/state"
	"github.com/tr1v3r/mpvbridge/internal/uuid"
)

func main() {
	defer log.Close()

	cmd := &cli.Command{
		Name:  "mpvbridge",
		Usage: "supervise an mpv engine and bridge it to a hosting application",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.StringFlag{Name: "config", Usage: "path to a TOML config file"},
			&cli.IntFlag{Name: "http-port", Usage: "override the HTTP listen port"},
			&cli.BoolFlag{Name: "external-window", Usage: "spawn the engine at startup"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	cfg := config.Load(cmd.String("config"))
	if port := int(cmd.Int("http-port")); port > 0 {
		cfg.HTTPPort = port
	}
	if cmd.Bool("external-window") {
		cfg.ExternalWindow = true
	}

	// 实例 UUID
	instanceUUID, err := uuid.LoadOrCreate(cfg.UUIDPath)
	if err != nil {
		log.Info("instance id not persisted: %v", err)
	}
	log.Info("instance id %s", instanceUUID)

	// 状态
	hub := host.NewHub()
	bridge := state.New(cfg, hub)
	defer bridge.Close()

	if cfg.ExternalWindow {
		if res := bridge.Enable(ctx, 0); !res.Success {
			log.Error("engine start failed: %s", res.Error)
		}
	}

	// HTTP
	mux := httpserver.NewMux()
	httpserver.Register(mux, instanceUUID, bridge, hub)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpserver.LogMiddleware(mux),
	}

	go func() {
		log.Info("HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP error: %v", err)
		}
	}()

	// 优雅退出
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	monitoring.GetMetrics().LogMetrics()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	log.Info("bye")
	return nil
}
