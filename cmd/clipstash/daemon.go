package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipstash/internal/api"
	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/imaging"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/logging"
	"go.klb.dev/clipstash/internal/monitor"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Record clipboard changes and serve the local API",
		Long: `Starts the clipstash daemon. It polls the system clipboard, records
every text or image copied by another application, and saves the history
after each change.

The daemon listens on a local socket that carries both the line-delimited
JSON protocol used by the other commands and a small HTTP API:

  GET    /entries            list entries (data base64-encoded)
  POST   /entries/{id}/copy  put an entry back on the clipboard
  DELETE /entries/{id}       delete an entry
  DELETE /entries            clear the history
  POST   /export             {"path": "..."}
  POST   /import             {"path": "...", "mode": "overwrite|merge"}
  GET    /status

Send SIGHUP to reload the history file. Changing log-level in the config
file takes effect without a restart.

Config file search order:
  /etc/clipstash/clipstash.toml
  $HOME/.config/clipstash/clipstash.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSTASH_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.String("backend", "auto", "clipboard backend: auto|memory|headless")
	f.Duration("interval", monitor.DefaultInterval, "clipboard poll interval (minimum 100ms)")
	f.Int("max-image-dimension", imaging.DefaultMaxDimension, "longest side of stored images, in pixels")
	f.Int("image-quality", imaging.DefaultQuality, "JPEG quality of stored images (1-100)")
	f.Bool("no-log-file", false, "do not write clipstash.log in the history directory")
	addStoreFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	p := pathsFrom(v)
	dir, err := p.Dir()
	if err != nil {
		return err
	}

	var logFile *os.File
	if !v.GetBool("no-log-file") {
		logFile, err = logging.OpenFile(p.LogFile())
		if err != nil {
			return err
		}
		defer logFile.Close()
	}
	var level *slog.LevelVar
	if logFile != nil {
		level = setupLogging(v, logFile)
	} else {
		level = setupLogging(v)
	}

	sock := socketFrom(v)
	if ipc.IsRunning(sock) {
		return fmt.Errorf("a clipstash daemon is already listening on %s", sock)
	}

	backend, err := clip.Open(v.GetString("backend"))
	if err != nil {
		return err
	}
	defer backend.Close()

	eng := engine.New(engine.Config{
		Backend:  backend,
		Paths:    p,
		Capacity: v.GetInt("capacity"),
		Interval: v.GetDuration("interval"),
		Image: imaging.Options{
			MaxDimension: v.GetInt("max-image-dimension"),
			Quality:      v.GetInt("image-quality"),
		},
	})

	slog.Info("clipstash daemon starting",
		"version", Version,
		"dir", dir,
		"backend", backend.Name(),
		"capacity", v.GetInt("capacity"),
		"socket", sock,
	)

	// Load before polling starts so a fresh copy is never clobbered by the
	// load replacing the store.
	eng.Load()

	ln, err := ipc.Listen(sock)
	if err != nil {
		return fmt.Errorf("listen %s: %w", sock, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchConfig(v, level)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return api.New(eng).Serve(ctx, ln) })
	g.Go(func() error { return reloadOnHangup(ctx, eng) })
	g.Go(func() error { return logResults(ctx, eng) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("clipstash daemon stopped")
	return nil
}

// reloadOnHangup reloads the history file on SIGHUP.
func reloadOnHangup(ctx context.Context, eng *engine.Engine) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			slog.Info("SIGHUP received, reloading history")
			eng.LoadAsync()
		}
	}
}

// logResults drains the results of async engine operations.
func logResults(ctx context.Context, eng *engine.Engine) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-eng.Results():
			slog.Debug("async operation finished", "op", r.Op, "ok", r.OK, "message", r.Message)
		}
	}
}

// watchConfig applies a changed log-level from the config file live.
func watchConfig(v *viper.Viper, level *slog.LevelVar) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s := v.GetString("log-level")
		if s == "" {
			return
		}
		next := logging.ParseLevel(s)
		if next != level.Level() {
			level.Set(next)
			slog.Info("log level changed", "config", e.Name, "level", next)
		}
	})
	v.WatchConfig()
	slog.Debug("watching config file", "path", v.ConfigFileUsed())
}
