package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/playcrawl/internal/config"
	"github.com/nao1215/playcrawl/internal/database"
	"github.com/nao1215/playcrawl/internal/model"
	"github.com/nao1215/playcrawl/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// historyDateFormat is how run start times are printed.
const historyDateFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past crawl runs",
		Long: `History lists the crawl runs recorded in the local database, newest first.

With --run-id it shows the summary of a single run followed by its items.

Examples:
  # List the most recent runs
  playcrawl history

  # Show run 3 and its items
  playcrawl history --run-id 3

  # Print run 3 as JSON
  playcrawl history --run-id 3 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run-id", "r", 0, "Show a single run and its items")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().String("db-dir", "", "Crawl history database directory (default: XDG data directory)")

	return cmd
}

// runDetail is the JSON shape of a single run.
type runDetail struct {
	Run   *database.Run    `json:"run"`
	Items []*model.AppItem `json:"items"`
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetInt64("run-id")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runID > 0 {
		return showRun(ctx, out, db, runID, asJSON)
	}
	return listRuns(ctx, out, db, limit, asJSON)
}

func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int, asJSON bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %-20s  %s\n", "ID", "Started", "Items", "Failed", "Result", "Keywords")
	for _, run := range runs {
		result := "running"
		if run.Finished() {
			result = run.Reason.String()
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %-20s  %s\n",
			run.ID,
			run.StartedAt.Local().Format(historyDateFormat),
			run.Items,
			run.Failed,
			result,
			strings.Join(run.Keywords, ", "),
		)
	}
	return nil
}

func showRun(ctx context.Context, out io.Writer, db *database.CrawlDB, runID int64, asJSON bool) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	items, err := db.ListItems(ctx, runID)
	if err != nil {
		return err
	}

	if asJSON {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runDetail{Run: run, Items: items})
		return err
	}

	fmt.Fprintf(out, "Run %d\n", run.ID)
	if _, err := report.NewSimpleWriter(out, report.WithVerbose(true)).Write(run.Summary()); err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "\nNo items stored for this run.")
		return nil
	}
	fmt.Fprintf(out, "\nItems (%d):\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(out, "  %-40s  %-30s  %s\n", item.AppID, item.Name, item.Keyword)
	}
	return nil
}
