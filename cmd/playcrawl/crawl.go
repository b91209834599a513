package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/playcrawl/internal/config"
	"github.com/nao1215/playcrawl/internal/crawler"
	"github.com/nao1215/playcrawl/internal/database"
	"github.com/nao1215/playcrawl/internal/loader"
	applog "github.com/nao1215/playcrawl/internal/log"
	"github.com/nao1215/playcrawl/internal/model"
	"github.com/nao1215/playcrawl/internal/pipeline"
	"github.com/nao1215/playcrawl/internal/report"
	"github.com/nao1215/playcrawl/internal/transport"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl search results for one or more keywords",
		Long: `Crawl searches the Play Store for each keyword, follows every result
page and loads each app detail page into an item.

The crawl stops when every keyword runs out of result pages, when the item
budget (--max-item) is reached, or when interrupted with Ctrl-C. Items
already written stay in the output file.

Examples:
  # Crawl two keywords without a limit
  playcrawl crawl --keywords "cat,dog"

  # Stop after 100 items and wait 2 seconds between requests
  playcrawl crawl -k "photo editor" --max-item 100 --download-delay 2

  # Write JSON Lines instead of CSV
  playcrawl crawl -k cat -o items.jsonl

  # Route requests through a SOCKS5 proxy
  playcrawl crawl -k cat --proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("keywords", "k", "",
		"Comma-separated search keywords")
	cmd.Flags().StringP("max-item", "n", "0",
		"Maximum number of items to produce (0 = unlimited)")
	cmd.Flags().StringP("download-delay", "d", "0",
		"Seconds to wait between requests")
	cmd.Flags().StringP("output", "o", config.DefaultOutput,
		"Output file (.csv or .jsonl)")

	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Maximum number of requests in flight")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port or user:pass@host:port)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .playcrawl in current or home directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the crawl history database")
	cmd.Flags().String("db-dir", "",
		"Crawl history database directory (default: XDG data directory)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the final summary as Markdown")

	cmd.Flags().String("search-url", config.DefaultSearchURL, "Search listing endpoint")
	cmd.Flags().String("detail-url-prefix", config.DefaultDetailURLPrefix, "Prefix of detail page URLs")
	_ = cmd.Flags().MarkHidden("search-url")        //nolint:errcheck // flag is defined above
	_ = cmd.Flags().MarkHidden("detail-url-prefix") //nolint:errcheck // flag is defined above

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runCrawl(ctx, cfg, logger)
	if summary != nil {
		if werr := writeSummary(cmd.OutOrStdout(), cfg, summary); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig layers defaults, the configuration file and explicitly set
// flags, then validates the result.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := file.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	var raw config.Raw
	raw.Keywords = changedString(cmd, "keywords")
	raw.MaxItem = changedString(cmd, "max-item")
	raw.DownloadDelay = changedString(cmd, "download-delay")
	raw.Output = changedString(cmd, "output")
	if err := raw.Apply(cfg); err != nil {
		return nil, err
	}

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if v := changedString(cmd, "proxy"); v != nil {
		cfg.ProxyAddress = *v
	}
	if v := changedString(cmd, "user-agent"); v != nil {
		cfg.UserAgent = *v
	}
	if v := changedString(cmd, "db-dir"); v != nil {
		cfg.DBDir = *v
	}
	if v := changedString(cmd, "search-url"); v != nil {
		cfg.SearchURL = *v
	}
	if v := changedString(cmd, "detail-url-prefix"); v != nil {
		cfg.DetailURLPrefix = *v
	}
	if flags.Changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noDB
	}
	if flags.Changed("markdown") {
		if cfg.MarkdownSummary, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// changedString returns the value of a string flag the user set, or nil.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

// runCrawl wires the transport, fetcher, loader, item pipeline and crawl
// database together and runs the controller until it terminates.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.CrawlSummary, error) {
	client, err := transport.NewClient(
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithHeaders(cfg.Headers),
		transport.WithProxy(cfg.ProxyAddress),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if cfg.ProxyAddress != "" {
		if status := client.CheckProxy(ctx); status != transport.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
				status, client.ProxyAddress(), status.Error())
		}
		logger.Info("proxy connection verified", "address", client.ProxyAddress())
	}

	itemWriter, err := report.NewItemWriterForPath(cfg.Output)
	if err != nil {
		return nil, err
	}

	steps := []pipeline.Step{
		pipeline.NewValidateStep(),
		pipeline.NewFingerprintStep(),
		pipeline.NewExportStep(itemWriter),
	}

	var (
		db    *database.CrawlDB
		runID int64
	)
	if cfg.SaveToDB {
		db, runID, err = openRun(ctx, cfg, logger)
		if err != nil {
			_ = itemWriter.Close()
			return nil, err
		}
		defer db.Close()
		steps = append(steps, pipeline.NewStoreStep(db, runID, logger))
	}

	items := pipeline.New(steps, pipeline.WithLogger(logger))

	fetcher := crawler.NewHTTPFetcher(client.HTTPClient(),
		crawler.WithSearchURL(cfg.SearchURL),
		crawler.WithDetailURLPrefix(cfg.DetailURLPrefix),
		crawler.WithDownloadDelay(cfg.DownloadDelay),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	)
	controller := crawler.NewController(fetcher, loader.New(), items,
		crawler.WithMaxItem(cfg.MaxItem),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	)

	logger.Info("starting crawl",
		"keywords", cfg.Keywords,
		"max_item", cfg.MaxItem,
		"output", cfg.Output,
		"run_id", runID,
	)

	summary, runErr := controller.Run(ctx, cfg.Keywords)
	closeErr := items.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("failed to close %s: %w", cfg.Output, closeErr)
	}

	if db != nil && summary != nil {
		// The crawl context may already be cancelled by a signal.
		if err := db.FinishRun(context.WithoutCancel(ctx), runID, summary); err != nil {
			logger.Error("failed to record crawl run", "run_id", runID, "error", err)
		}
	}

	return summary, errors.Join(runErr, closeErr)
}

// openRun opens the crawl database and records the start of a run.
func openRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.CrawlDB, int64, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open database: %w", err)
	}
	runID, err := db.CreateRun(ctx, cfg.Keywords, cfg.MaxItem, time.Now())
	if err != nil {
		_ = db.Close()
		return nil, 0, err
	}
	logger.Info("crawl run recorded", "run_id", runID, "db", db.Path())
	return db, runID, nil
}

// writeSummary prints the final crawl summary.
func writeSummary(w io.Writer, cfg *config.Config, summary *model.CrawlSummary) error {
	var writer report.Writer
	if cfg.MarkdownSummary {
		writer = report.NewMarkdownWriter(w)
	} else {
		writer = report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
	if _, err := writer.Write(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nItems written to: %s\n", cfg.Output)
	return err
}
