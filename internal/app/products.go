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

func runProducts(args []string) int {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	window := addWindowFlags(fs)
	query := fs.String("q", "", "Case-insensitive substring filter on the display name")
	sortBy := fs.String("sort-by", "revenue", "Sort field: name, clicks, addToCart, orders, itemsSold, revenue or appearances")
	sortDir := fs.String("sort-dir", "desc", "Sort direction: asc or desc")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 25, "Groups per page")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "products does not accept positional arguments")
		return 2
	}

	filter, err := window.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
		return 2
	}
	sortField, err := aggregate.ParseSortField(*sortBy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid sort: %v\n", err)
		return 2
	}
	descending, err := aggregate.ParseSortDirection(*sortDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid sort direction: %v\n", err)
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}
	if *page < 1 || *pageSize < 1 {
		fmt.Fprintln(os.Stderr, "--page and --page-size must be positive")
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

	groups := aggregate.Resolve(records)
	total, items, err := aggregate.Query(groups, aggregate.QueryOptions{
		Search:     *query,
		SortBy:     sortField,
		Descending: descending,
		Page:       *page,
		PageSize:   *pageSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query groups: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"items":       items,
			"total_items": total,
			"page":        *page,
			"page_size":   *pageSize,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(items))
	for _, group := range items {
		rows = append(rows, []string{
			truncateForTable(group.DisplayName, 60),
			pointerStringOrEmpty(group.ExternalID),
			fmt.Sprintf("%d", group.Clicks),
			fmt.Sprintf("%d", group.AddToCart),
			fmt.Sprintf("%d", group.Orders),
			fmt.Sprintf("%d", group.ItemsSold),
			fmt.Sprintf("%.2f", group.Revenue),
			fmt.Sprintf("%d", group.Appearances),
		})
	}

	if err := writeTable(
		[]string{"product", "external_id", "clicks", "add_to_cart", "orders", "items_sold", "revenue", "appearances"},
		rows,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	fmt.Printf("\n%d of %d groups (page %d)\n", len(items), total, *page)
	return 0
}
