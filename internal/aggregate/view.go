package aggregate

import (
	"fmt"
	"sort"
	"strings"
)

// SortField enumerates the allowed sort keys for aggregated listings.
type SortField string

const (
	SortName        SortField = "name"
	SortClicks      SortField = "clicks"
	SortAddToCart   SortField = "addToCart"
	SortOrders      SortField = "orders"
	SortItemsSold   SortField = "itemsSold"
	SortRevenue     SortField = "revenue"
	SortAppearances SortField = "appearances"
)

// TopMetric enumerates the metrics the top-products view can rank by.
type TopMetric string

const (
	TopByRevenue TopMetric = "revenue"
	TopByOrders  TopMetric = "orders"
)

var lessFuncs = map[SortField]func(a, b Group) bool{
	SortName:        func(a, b Group) bool { return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName) },
	SortClicks:      func(a, b Group) bool { return a.Clicks < b.Clicks },
	SortAddToCart:   func(a, b Group) bool { return a.AddToCart < b.AddToCart },
	SortOrders:      func(a, b Group) bool { return a.Orders < b.Orders },
	SortItemsSold:   func(a, b Group) bool { return a.ItemsSold < b.ItemsSold },
	SortRevenue:     func(a, b Group) bool { return a.Revenue < b.Revenue },
	SortAppearances: func(a, b Group) bool { return a.Appearances < b.Appearances },
}

// ParseSortField validates a raw sort key against the allow-list. Unknown
// keys are rejected rather than silently falling back.
func ParseSortField(raw string) (SortField, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SortRevenue, nil
	}
	field := SortField(trimmed)
	if _, ok := lessFuncs[field]; !ok {
		return "", fmt.Errorf("unknown sort field %q", raw)
	}
	return field, nil
}

// ParseSortDirection accepts "asc" or "desc" (default "desc").
func ParseSortDirection(raw string) (descending bool, err error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "", "desc":
		return true, nil
	case "asc":
		return false, nil
	default:
		return false, fmt.Errorf("sort direction must be asc or desc")
	}
}

// ParseTopMetric validates the ranking metric for the top-products view.
func ParseTopMetric(raw string) (TopMetric, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "", "revenue":
		return TopByRevenue, nil
	case "orders":
		return TopByOrders, nil
	default:
		return "", fmt.Errorf("top metric must be revenue or orders")
	}
}

// QueryOptions shapes the aggregated listing view.
type QueryOptions struct {
	Search     string
	SortBy     SortField
	Descending bool
	Page       int
	PageSize   int
}

// Query filters, sorts and paginates aggregated groups. Pagination happens
// strictly after full aggregation and sorting so sums stay correct.
func Query(groups []Group, opts QueryOptions) (total int, page []Group, err error) {
	if opts.SortBy == "" {
		opts.SortBy = SortRevenue
	}
	less, ok := lessFuncs[opts.SortBy]
	if !ok {
		return 0, nil, fmt.Errorf("unknown sort field %q", opts.SortBy)
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 20
	}

	filtered := groups
	if search := strings.TrimSpace(opts.Search); search != "" {
		needle := strings.ToLower(search)
		filtered = make([]Group, 0, len(groups))
		for _, g := range groups {
			if strings.Contains(strings.ToLower(g.DisplayName), needle) {
				filtered = append(filtered, g)
			}
		}
	} else {
		filtered = append([]Group(nil), groups...)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if opts.Descending {
			return less(filtered[j], filtered[i])
		}
		return less(filtered[i], filtered[j])
	})

	start := (opts.Page - 1) * opts.PageSize
	if start >= len(filtered) {
		return len(filtered), []Group{}, nil
	}
	end := start + opts.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return len(filtered), filtered[start:end], nil
}

// Top returns the n highest-ranked groups by the given metric.
func Top(groups []Group, metric TopMetric, n int) []Group {
	if n < 1 {
		n = 10
	}

	ranked := append([]Group(nil), groups...)
	sort.SliceStable(ranked, func(i, j int) bool {
		switch metric {
		case TopByOrders:
			return ranked[i].Orders > ranked[j].Orders
		default:
			return ranked[i].Revenue > ranked[j].Revenue
		}
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
