package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/doctriage-lab/grammateus/pkg/cli/config"
	httpctrl "github.com/doctriage-lab/grammateus/pkg/controller/http"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var slackCfg config.Slack
	var archiveCfg config.Archive

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("GRAMMATEUS_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			book, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load intent workbook")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Gemini client")
			}
			if llmClient == nil {
				logging.Default().Warn("Gemini not configured, classification and extraction run on keyword heuristics")
			}

			classifierSvc, err := classifier.New(llmClient, book,
				classifier.WithModelName(geminiCfg.Model()))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize classifier")
			}

			dispatcher := extract.NewDispatcher(
				extract.NewEmail(llmClient),
				extract.NewJSON(llmClient),
				extract.NewPDF(llmClient),
			)

			ucOpts := []usecase.Option{
				usecase.WithClassifier(classifierSvc),
				usecase.WithDispatcher(dispatcher),
				usecase.WithIntentBook(book),
			}

			store, err := archiveCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize archive")
			}
			if store != nil {
				if closer, ok := store.(io.Closer); ok {
					defer func() {
						if err := closer.Close(); err != nil {
							logging.Default().Error("failed to close archive", "error", err.Error())
						}
					}()
				}
				ucOpts = append(ucOpts, usecase.WithArchive(store))
				logging.Default().Info("Archive enabled", "backend", archiveCfg.Backend())
			} else {
				logging.Default().Info("Archive not configured, oversized documents will be rejected")
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifications")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notifications enabled")
			} else {
				logging.Default().Info("Slack not configured, high urgency notifications disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			httpHandler, err := httpctrl.New(uc, httpctrl.WithVersion(version))
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
