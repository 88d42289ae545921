// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the floorplan-diff CLI.
// Each stage of a comparison is reachable as a subcommand: normalize,
// compare, diffs (stored results), and serve (HTTP API).
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is loaded before any subcommand runs.
	appConfig types.AppConfig

	log = logrus.New()
)

// rootCmd is the base command for the floorplan-diff CLI.
var rootCmd = &cobra.Command{
	Use:   "floorplan-diff",
	Short: "Compare two revisions of an architectural floor plan",
	Long: `floorplan-diff compares the geometry entities of two drawing revisions.
The revised drawing is first aligned to the original using its reference
grid (or a bounding-box fallback); entities are then paired per layer and
type and reported as added, removed, modified, or unchanged.

Entity files are JSON or YAML, either a bare list of entities or a document
with an "entities" key, as produced by the extraction stage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		return configureLogger(log, cfg.Log)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./floorplan-diff.yaml or ~/.config/floorplan-diff/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: loading %s: %v\n", envFile, err)
		}
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("floorplan-diff")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "floorplan-diff"))
		}
	}

	viper.SetEnvPrefix("FLOORPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultAppConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
