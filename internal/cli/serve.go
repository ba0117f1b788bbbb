package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/config"
	"github.com/evcraddock/estate/internal/db"
	"github.com/evcraddock/estate/internal/logging"
	"github.com/evcraddock/estate/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the JSON API server. Configuration comes from ESTATE_* environment
variables; --port and --db override them. Callers are identified by the
X-User-Email header set by the authenticating proxy in front of the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, cmd.Flags().Changed("port"))
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, port int, portSet bool) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if portSet {
		cfg.Port = port
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if cfg.DBPath == "" {
		if cfg.DBPath, err = db.DefaultPath(); err != nil {
			return err
		}
	}

	logging.Setup(cfg.DevMode)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv, err := web.NewServer(database, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Port)
}
