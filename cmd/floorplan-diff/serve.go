// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/floorplan-diff/internal/server"
	"github.com/pdiddy/floorplan-diff/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the comparison API over HTTP",
	Long: `Serve starts the HTTP API: POST /api/v1/compare and /api/v1/normalize
take entity collections as JSON; /api/v1/diffs exposes the diff store.
The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if addr := flagString(cmd, "addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	var st *store.Store
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		var err error
		if st, err = store.Open(cfg.Store); err != nil {
			return err
		}
		defer st.Close()
	}

	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return server.New(cfg, st, log).Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("no-store", false, "run without the diff store")

	rootCmd.AddCommand(serveCmd)
}
