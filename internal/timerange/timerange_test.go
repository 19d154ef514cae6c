package timerange

import (
	"testing"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
)

func TestResolve_FixedTokens(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	today, err := Resolve("today", "", "")
	if err != nil {
		t.Fatalf("resolve today: %v", err)
	}
	wantFrom := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !today.From.Equal(wantFrom) || !today.To.Equal(wantTo) {
		t.Fatalf("unexpected today window: [%v, %v)", today.From, today.To)
	}

	yesterday, err := Resolve("yesterday", "", "")
	if err != nil {
		t.Fatalf("resolve yesterday: %v", err)
	}
	if !yesterday.From.Equal(wantFrom.AddDate(0, 0, -1)) || !yesterday.To.Equal(wantFrom) {
		t.Fatalf("unexpected yesterday window: [%v, %v)", yesterday.From, yesterday.To)
	}

	week, err := Resolve("7d", "", "")
	if err != nil {
		t.Fatalf("resolve 7d: %v", err)
	}
	if !week.From.Equal(wantFrom.AddDate(0, 0, -6)) || !week.To.Equal(wantTo) {
		t.Fatalf("unexpected 7d window: [%v, %v)", week.From, week.To)
	}

	month, err := Resolve("30d", "", "")
	if err != nil {
		t.Fatalf("resolve 30d: %v", err)
	}
	if !month.From.Equal(wantFrom.AddDate(0, 0, -29)) || !month.To.Equal(wantTo) {
		t.Fatalf("unexpected 30d window: [%v, %v)", month.From, month.To)
	}
}

func TestResolve_Unbounded(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "all", "  ALL  "} {
		window, err := Resolve(token, "", "")
		if err != nil {
			t.Fatalf("resolve %q: %v", token, err)
		}
		if window.From != nil || window.To != nil {
			t.Fatalf("expected unbounded window for %q", token)
		}
	}
}

func TestResolve_Custom(t *testing.T) {
	t.Parallel()

	window, err := Resolve("custom", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("resolve custom: %v", err)
	}
	if !window.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected custom start: %v", window.From)
	}
	// End day is inclusive, so the half-open bound is the following midnight.
	if !window.To.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected custom end: %v", window.To)
	}

	if _, err := Resolve("custom", "2026-02-01", "2026-01-01"); err == nil {
		t.Fatalf("expected error for inverted custom range")
	}
	if _, err := Resolve("custom", "", "2026-01-01"); err == nil {
		t.Fatalf("expected error for missing custom start")
	}
	if _, err := Resolve("custom", "01/02/2026", "2026-01-01"); err == nil {
		t.Fatalf("expected error for malformed custom start")
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	t.Parallel()

	if _, err := Resolve("fortnight", "", ""); err == nil {
		t.Fatalf("expected error for unknown period token")
	}
}
