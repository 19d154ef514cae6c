package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/config"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/timerange"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

// windowFlags are the report-window selectors shared by every command that
// reads or writes line records.
type windowFlags struct {
	period *string
	start  *string
	end    *string
	owner  *int64
	store  *string
}

func addWindowFlags(fs *flag.FlagSet) *windowFlags {
	return &windowFlags{
		period: fs.String("period", "all", "Report window: all, today, yesterday, 7d, 30d or custom"),
		start:  fs.String("start", "", "Window start date (YYYY-MM-DD, with --period custom)"),
		end:    fs.String("end", "", "Window end date inclusive (YYYY-MM-DD, with --period custom)"),
		owner:  fs.Int64("owner", 0, "Restrict to one report owner id (0 = all)"),
		store:  fs.String("store", "", "Restrict to one store name"),
	}
}

func (w *windowFlags) filter() (db.Filter, error) {
	window, err := timerange.Resolve(*w.period, *w.start, *w.end)
	if err != nil {
		return db.Filter{}, err
	}
	if *w.owner < 0 {
		return db.Filter{}, fmt.Errorf("--owner must be non-negative")
	}
	return db.Filter{
		OwnerID: *w.owner,
		Store:   strings.TrimSpace(*w.store),
		From:    window.From,
		To:      window.To,
	}, nil
}

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func pointerStringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func connectReadPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *config.Config, *db.Pool, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, cancel, cfg, pool, nil
}
