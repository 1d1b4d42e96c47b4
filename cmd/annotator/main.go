package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/api"
	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/config"
	"github.com/dgnsrekt/chartmark/internal/controller"
	"github.com/dgnsrekt/chartmark/internal/geometry"
	"github.com/dgnsrekt/chartmark/internal/journal"
	"github.com/dgnsrekt/chartmark/internal/netutil"
	"github.com/dgnsrekt/chartmark/internal/relay"
	"github.com/dgnsrekt/chartmark/internal/tvcanvas"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load annotator config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("annotator config loaded",
		"bind_addr", cfg.BindAddr,
		"canvas_backend", cfg.CanvasBackend,
		"annotations_dir", cfg.AnnotationsDir,
		"journal_dir", cfg.JournalDir,
		"hit_tolerance_px", cfg.HitTolerancePx,
		"snap_step", cfg.SnapStep,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	host, cleanup, err := buildCanvas(cfg)
	if err != nil {
		slog.Error("failed to initialize canvas backend", "backend", cfg.CanvasBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	store, err := codec.NewStore(cfg.AnnotationsDir)
	if err != nil {
		slog.Error("failed to create annotation store", "dir", cfg.AnnotationsDir, "error", err)
		os.Exit(1)
	}

	jw := journal.NewWriter(cfg.JournalDir, cfg.JournalBuffer, cfg.JournalMaxMB)
	defer func() {
		if err := jw.Close(); err != nil {
			slog.Debug("journal close failed", "error", err)
		}
	}()

	broker := relay.NewBroker()

	mgr := annotate.NewManager()
	mgr.SetListener(func(evt annotate.Event) {
		broker.Publish(evt)
	})
	if err := mgr.Attach(host); err != nil {
		slog.Error("failed to attach annotation manager", "error", err)
		os.Exit(1)
	}

	reg := annotate.NewRegistry()
	session := annotate.NewSession(mgr, reg, host, annotate.SessionOptions{
		SnapStep:       cfg.SnapStep,
		HitTolerancePx: cfg.HitTolerancePx,
	})

	svc := controller.NewService(session, mgr, reg, store, jw)
	h := api.NewServer(svc, broker)

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("annotator listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("annotator server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("annotator shutdown failed", "error", err)
	}
}

func buildCanvas(cfg *config.Config) (canvas.HostCanvas, func(), error) {
	switch cfg.CanvasBackend {
	case "tradingview":
		c, err := tvcanvas.Connect(context.Background(), cfg.CDPURL(), cfg.TabURLFilter, time.Duration(cfg.EvalTimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	default:
		// Memory backend maps a 1280x720 viewport onto a unit-per-pixel
		// coordinate plane, enough for headless and test use.
		visible := geometry.Rect{MinX: 0, MinY: 0, MaxX: 1280, MaxY: 720}
		return canvas.NewMemory(geometry.Point{X: 0, Y: 720}, 1, -1, visible), func() {}, nil
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
