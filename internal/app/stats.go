package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	stats, err := pool.QueryEngineStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query engine stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	lastReport := ""
	if stats.LastReportDate != nil {
		lastReport = stats.LastReportDate.UTC().Format("2006-01-02")
	}

	rows := [][]string{
		{"reports", fmt.Sprintf("%d", stats.Reports)},
		{"line records", fmt.Sprintf("%d", stats.LineRecords)},
		{"canonicalized records", fmt.Sprintf("%d", stats.CanonicalizedRecords)},
		{"canonical names", fmt.Sprintf("%d", stats.CanonicalNames)},
		{"last report date", lastReport},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
