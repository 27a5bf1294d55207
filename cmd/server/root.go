package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tyrowin/gosignal/internal/server"
)

var (
	configPath string
	logLevel   string
	port       string
)

// rootCmd starts the signaling server.
var rootCmd = &cobra.Command{
	Use:   "gosignal",
	Short: "WebRTC signaling server",
	Long: `gosignal is a rendezvous and relay service for WebRTC session establishment.
Peers register under a chosen ID, optionally gather in rooms, and exchange offers,
answers and ICE candidates through it over WebSocket.`,
	RunE: runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "listen address, e.g. :8080")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if port != "" {
		cfg.Port = port
	}

	loggerFactory := server.NewLoggerFactory(cfg.LogLevel, cmd.ErrOrStderr())
	log := loggerFactory.NewLogger("main")

	srv, err := server.New(*cfg, loggerFactory)
	if err != nil {
		return err
	}
	if dump, err := srv.Config().YAML(); err == nil {
		log.Debugf("Effective configuration:\n%s", dump)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting signaling server...")
	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
