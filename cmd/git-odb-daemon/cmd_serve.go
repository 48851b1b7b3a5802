package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vdye/git-odb-refs/internal/db"
	"github.com/vdye/git-odb-refs/internal/log"
	"github.com/vdye/git-odb-refs/internal/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [repository]",
		Short: "Listen on the repository's IPC socket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repository := repositoryArg(args)
			if repository != "" {
				abs, err := filepath.Abs(repository)
				if err != nil {
					return err
				}
				repository = abs
			}

			cfg, err := loadConfig(flags, repository)
			if err != nil {
				return err
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, database, cfg.SocketPath(), cfg.PrometheusListenAddr)
		},
	}
}

func serve(ctx context.Context, database db.Database, socketPath, metricsAddr string) error {
	logger := log.Default()

	socket, err := net.Listen("unix", socketPath)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", socketPath)
	}
	// Cleanup the socket file.
	defer os.Remove(socketPath)

	var metrics net.Listener
	if metricsAddr != "" {
		if metrics, err = net.Listen("tcp", metricsAddr); err != nil {
			socket.Close()
			return errors.Wrapf(err, "listen on %s", metricsAddr)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("socket", socketPath).Info("serving objects")
		return server.New(database, logger).Serve(ctx, socket)
	})

	if metrics != nil {
		g.Go(func() error {
			logger.WithField("address", metrics.Addr().String()).Info("serving metrics")
			return server.ServeMetrics(ctx, metrics)
		})
	}

	err = g.Wait()
	logger.Info("shut down")
	return err
}
