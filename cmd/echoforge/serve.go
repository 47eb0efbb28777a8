package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/echoforge/echoforge/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversations over WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := buildAgent(cmd.Context())
		if err != nil {
			return err
		}

		srv := server.New(a)
		log.Printf("[SERVER] Listening on %s", cfg.ListenAddr)
		log.Printf("[SERVER] WebSocket: ws://localhost%s/ws", cfg.ListenAddr)
		log.Printf("[SERVER] Health:    http://localhost%s/healthz", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
