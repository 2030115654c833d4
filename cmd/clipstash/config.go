package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/logging"
	"go.klb.dev/clipstash/internal/paths"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPSTASH_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPSTASH_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipstash")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipstash/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipstash", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for the daemon, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addStoreFlags adds the flags locating the history and the daemon.
func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("dir", "", "history directory (default $XDG_DATA_HOME/clipstash)")
	f.String("socket", "", "daemon socket (default "+ipc.SocketPath()+")")
	f.Int("capacity", history.DefaultCapacity, "number of entries kept")
}

// addClientFlags adds the flags shared by the one-shot commands.
func addClientFlags(cmd *cobra.Command) {
	addStoreFlags(cmd)
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: warn)")
	addConfigFlag(cmd)
}

func pathsFrom(v *viper.Viper) paths.Paths { return paths.New(v.GetString("dir")) }

func socketFrom(v *viper.Viper) string {
	if s := v.GetString("socket"); s != "" {
		return s
	}
	return ipc.SocketPath()
}

// setupLogging reads logging flags from viper and configures slog. Records
// are also written as JSON to every writer in tees. The returned level can
// be changed while running.
func setupLogging(v *viper.Viper, tees ...io.Writer) *slog.LevelVar {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	return resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"), tees...)
}

// setupCLILogging keeps one-shot commands quiet unless asked otherwise.
func setupCLILogging(v *viper.Viper) {
	level := v.GetString("log-level")
	if level == "" {
		level = "warn"
	}
	resolveLogging(false, "text", level)
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string, tees ...io.Writer) *slog.LevelVar {
	format := logging.ParseFormat(formatStr)
	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(levelStr))
	if levelStr == "" {
		if interactive {
			level.Set(logging.ParseLevel("debug"))
		} else {
			level.Set(logging.ParseLevel("info"))
		}
	}
	logging.Setup(format, level, tees...)
	return level
}
