package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/cli/config"
	httpctrl "github.com/secmon-lab/bastion/pkg/controller/http"
	"github.com/secmon-lab/bastion/pkg/service/worker"
	"github.com/secmon-lab/bastion/pkg/usecase"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var baseURL string
	var parallel int
	var sweepInterval time.Duration
	var sweepGrace time.Duration
	var catalogCfg config.Catalog
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("BASTION_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL for the application, used for links in notifications (e.g., https://your-domain.com)",
			Sources:     cli.EnvVars("BASTION_BASE_URL"),
			Destination: &baseURL,
		},
		&cli.IntFlag{
			Name:        "parallel",
			Usage:       "Number of threats scored concurrently",
			Value:       usecase.DefaultParallelism,
			Sources:     cli.EnvVars("BASTION_PARALLEL"),
			Destination: &parallel,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval of removing stale scenario rows. 0 disables the sweep",
			Value:       30 * time.Minute,
			Sources:     cli.EnvVars("BASTION_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
		&cli.DurationFlag{
			Name:        "sweep-grace",
			Usage:       "Minimum age of a stale scenario row before it is removed",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("BASTION_SWEEP_GRACE"),
			Destination: &sweepGrace,
		},
	}

	// Add shared config flags
	flags = append(flags, catalogCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			registry, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalog")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithParallelism(parallel),
			}

			notifier, err := slackCfg.Configure(baseURL)
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack notification")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notification enabled", "slack", slackCfg)
			} else {
				logging.Default().Info("Slack Bot Token not configured, critical risk notification is disabled")
			}

			uc := usecase.New(repo, registry, ucOpts...)

			// Start stale scenario sweep worker
			var sweepWorker *worker.ScenarioSweepWorker
			if sweepInterval > 0 {
				sweepWorker = worker.NewScenarioSweepWorker(uc.Scenario, sweepInterval, sweepGrace)
				sweepWorker.Start(ctx)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"templates", len(registry.List()),
					"repository", repoCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop sweep worker first
				if sweepWorker != nil {
					sweepWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Wait for in-flight notifications
				uc.Wait()

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
