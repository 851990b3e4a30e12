package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamzrod/taskwatch/internal/config"
	"github.com/tamzrod/taskwatch/internal/logutil"
)

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "taskwatch",
		Short:        "Watch a Telegram bot's task list and announce changes",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment.")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")

	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("env_file", cmd.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))

	config.SetDefaults(viper.GetViper())

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newNotifyTestCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func initConfig() {
	if err := config.LoadDotEnv(viper.GetString("env_file")); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read env file: %v\n", err)
	}
	if err := config.BindEnv(viper.GetViper()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to bind environment: %v\n", err)
	}

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}

// loadConfig builds, validates and normalizes the runtime config.
func loadConfig() (*config.Config, *slog.Logger, error) {
	logger, err := logutil.FromViper(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	return cfg, logger, nil
}
