package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/doctriage-lab/grammateus/pkg/cli/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdTriage() *cli.Command {
	var format string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var archiveCfg config.Archive

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Force the document format (pdf, json or email) instead of sniffing",
			Destination: &format,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)

	return &cli.Command{
		Name:      "triage",
		Aliases:   []string{"t"},
		Usage:     "Classify and extract a single document",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("a document path is required")
			}
			if format != "" && !types.Format(format).Normalize().IsValid() {
				return goerr.New("invalid format", goerr.V("format", format))
			}

			// #nosec G304 - path comes from the command line
			content, err := os.ReadFile(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read document", goerr.V("path", path))
			}

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

			classifierSvc, err := classifier.New(llmClient, book,
				classifier.WithModelName(geminiCfg.Model()))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize classifier")
			}

			ucOpts := []usecase.Option{
				usecase.WithClassifier(classifierSvc),
				usecase.WithDispatcher(extract.NewDispatcher(
					extract.NewEmail(llmClient),
					extract.NewJSON(llmClient),
					extract.NewPDF(llmClient),
				)),
				usecase.WithIntentBook(book),
			}

			store, err := archiveCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize archive")
			}
			if store != nil {
				ucOpts = append(ucOpts, usecase.WithArchive(store))
			}

			uc := usecase.New(repo, ucOpts...)

			record, err := uc.Triage.Run(ctx, &usecase.IntakeInput{
				Name:    filepath.Base(path),
				Content: content,
				Format:  types.Format(format),
			})
			if err != nil {
				return goerr.Wrap(err, "triage failed", goerr.V("path", path))
			}

			printRecord(os.Stdout, filepath.Base(path), record)
			return nil
		},
	}
}

// printRecord renders a triage result for the terminal
func printRecord(w io.Writer, name string, record *model.Record) {
	header := color.New(color.FgCyan, color.Bold)
	key := color.New(color.FgHiBlack)

	_, _ = header.Fprintln(w, name)

	c := record.Classification
	fmt.Fprintf(w, "  %s %s\n", key.Sprint("Format:"), c.Format)
	fmt.Fprintf(w, "  %s %s\n", key.Sprint("Intent:"), c.Intent)
	fmt.Fprintf(w, "  %s %.2f (%s)\n", key.Sprint("Confidence:"), c.Confidence, c.Model)

	result := record.Result
	if result == nil {
		return
	}

	urgency := result.Urgency()
	fmt.Fprintf(w, "  %s %s\n", key.Sprint("Urgency:"), urgencyColor(urgency).Sprint(urgency))

	if result.Valid != nil {
		if *result.Valid {
			fmt.Fprintf(w, "  %s %s\n", key.Sprint("Schema:"), color.New(color.FgGreen).Sprint("valid"))
		} else {
			fmt.Fprintf(w, "  %s %s (missing: %s)\n", key.Sprint("Schema:"),
				color.New(color.FgRed).Sprint("invalid"), strings.Join(result.MissingFields, ", "))
		}
	}
	if result.Summary != "" {
		fmt.Fprintf(w, "  %s %s\n", key.Sprint("Summary:"), result.Summary)
	}

	names := make([]string, 0, len(result.Fields))
	for fieldName := range result.Fields {
		if fieldName == "urgency" {
			continue
		}
		names = append(names, fieldName)
	}
	if len(names) > 0 {
		sort.Strings(names)
		fmt.Fprintf(w, "  %s\n", key.Sprint("Fields:"))
		for _, fieldName := range names {
			fmt.Fprintf(w, "    %s: %s\n", fieldName, result.Fields[fieldName])
		}
	}
}

func urgencyColor(u types.Urgency) *color.Color {
	switch u {
	case types.UrgencyHigh:
		return color.New(color.FgRed, color.Bold)
	case types.UrgencyMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
