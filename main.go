package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asifrahman2003/devpulse/internal/cloudsync"
	"github.com/asifrahman2003/devpulse/internal/config"
	"github.com/asifrahman2003/devpulse/internal/reminder"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stdout, so logs only go to a file.
	logWriter := io.Discard
	if cfg.Log.Path != "" {
		w, err := newLogFile(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer w.Close()
			logWriter = w
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	s, err := store.New(cfg.DB.Path,
		store.WithLogger(logger),
		store.WithLegacyMirror(cfg.Store.MirrorLegacyLogs),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	logger.Info("store opened", "path", cfg.DB.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := cloudsync.New(cfg.Sync, s, logger)
	if !client.Configured() {
		logger.Info("cloud sync disabled")
	}

	app := tui.NewApp(s, tui.Options{
		Context: ctx,
		Sync:    client,
		Logger:  logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	scheduler := reminder.New(s, logger)
	go func() {
		err := scheduler.Poll(ctx, cfg.Reminder.PollInterval, func(rs store.ReminderSettings) {
			p.Send(tui.ReminderMsg{Settings: rs})
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("reminder poll stopped", "error", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
