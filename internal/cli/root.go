package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fanfirst-engagement-service/internal/config"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FANFIRST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// PORT and CONFIG_PATH are what most container platforms inject.
	_ = v.BindEnv("port", "FANFIRST_PORT", "PORT")
	_ = v.BindEnv("config", "FANFIRST_CONFIG", "CONFIG_PATH")

	cmd := &cobra.Command{
		Use:          "fanfirst",
		Short:        "Fan engagement service: trivia scoring, fandom points and Web3 comfort steering",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("port", "", "port to listen on (overrides config)")
	cmd.PersistentFlags().String("config", "config/config.yaml", "path to YAML or TOML config")
	cmd.PersistentFlags().String("log-level", "", "debug|info|warn|error (overrides config)")
	_ = v.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(NewStartCmd(v))
	cmd.AddCommand(NewMigrateCmd(v))
	cmd.AddCommand(NewComfortCmd(v))
	return cmd
}

// loadConfig reads the config file named by viper. A missing file is not an
// error: the service then runs on defaults, fully in memory.
func loadConfig(v *viper.Viper) (config.Config, error) {
	path := v.GetString("config")
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		return cfg, err
	}
	if port := v.GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Server.LogLevel = level
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
