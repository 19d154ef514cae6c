package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/aggregate"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
)

func runTop(args []string) int {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	window := addWindowFlags(fs)
	metric := fs.String("metric", "revenue", "Ranking metric: revenue or orders")
	limit := fs.Int("limit", 10, "Number of groups to show")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "top does not accept positional arguments")
		return 2
	}

	filter, err := window.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
		return 2
	}
	topMetric, err := aggregate.ParseTopMetric(*metric)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid metric: %v\n", err)
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}
	if *limit < 1 {
		fmt.Fprintln(os.Stderr, "--limit must be positive")
		return 2
	}

	ctx, cancel, _, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	records, err := pool.FetchLineRecords(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load line records: %v\n", err)
		return 1
	}

	items := aggregate.Top(aggregate.Resolve(records), topMetric, *limit)

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"items":  items,
			"metric": topMetric,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(items))
	for i, group := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncateForTable(group.DisplayName, 60),
			fmt.Sprintf("%d", group.Orders),
			fmt.Sprintf("%.2f", group.Revenue),
			fmt.Sprintf("%d", group.Appearances),
		})
	}

	if err := writeTable([]string{"#", "product", "orders", "revenue", "appearances"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
