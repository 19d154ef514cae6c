package app

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
)

func parseWindowArgs(t *testing.T, args ...string) *windowFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	window := addWindowFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return window
}

func TestWindowFlags_Defaults(t *testing.T) {
	window := parseWindowArgs(t)

	filter, err := window.filter()
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if filter.OwnerID != 0 || filter.Store != "" || filter.From != nil || filter.To != nil {
		t.Fatalf("expected unbounded default filter, got %+v", filter)
	}
}

func TestWindowFlags_CustomRange(t *testing.T) {
	window := parseWindowArgs(t,
		"-period", "custom",
		"-start", "2026-03-01",
		"-end", "2026-03-05",
		"-owner", "7",
		"-store", " megaju ",
	)

	filter, err := window.filter()
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if filter.OwnerID != 7 || filter.Store != "megaju" {
		t.Fatalf("unexpected owner/store: %+v", filter)
	}
	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	if filter.From == nil || !filter.From.Equal(wantFrom) {
		t.Fatalf("expected window start %v, got %v", wantFrom, filter.From)
	}
	if filter.To == nil || !filter.To.Equal(wantTo) {
		t.Fatalf("end day must be inclusive, expected %v, got %v", wantTo, filter.To)
	}
}

func TestWindowFlags_Today(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	window := parseWindowArgs(t, "-period", "today")
	filter, err := window.filter()
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	wantFrom := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if filter.From == nil || !filter.From.Equal(wantFrom) {
		t.Fatalf("expected today start %v, got %v", wantFrom, filter.From)
	}
}

func TestWindowFlags_Errors(t *testing.T) {
	if _, err := parseWindowArgs(t, "-period", "fortnight").filter(); err == nil {
		t.Fatalf("unknown period must be rejected")
	}
	if _, err := parseWindowArgs(t, "-owner", "-3").filter(); err == nil {
		t.Fatalf("negative owner must be rejected")
	}
	if _, err := parseWindowArgs(t, "-period", "custom").filter(); err == nil {
		t.Fatalf("custom period without dates must be rejected")
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	if format, err := parseOutputFormat("", outputFormatTable); err != nil || format != outputFormatTable {
		t.Fatalf("expected table default, got %q, %v", format, err)
	}
	if format, err := parseOutputFormat(" JSON ", outputFormatTable); err != nil || format != outputFormatJSON {
		t.Fatalf("expected json, got %q, %v", format, err)
	}
	if _, err := parseOutputFormat("yaml", outputFormatTable); err == nil {
		t.Fatalf("unknown format must be rejected")
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  short  ", 60); got != "short" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := truncateForTable("Luminária Repolho Silicone Fofo LED USB", 10); got != "Luminár..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
