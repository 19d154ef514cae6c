package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/canonical"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
)

func newTestContext(t *testing.T, method, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) jsendResponse {
	t.Helper()
	var resp jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	s := &Server{logger: zerolog.Nop()}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/health")

	if err := s.handleHealth(c); err != nil {
		t.Fatalf("handle health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Fatalf("expected success status, got %q", resp.Status)
	}
}

func TestHandleCanonicalize_NotConfigured(t *testing.T) {
	// A canonicalizer without a classifier serves undo but refuses runs.
	canon, err := canonical.NewCanonicalizer((*db.Pool)(nil), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new canonicalizer: %v", err)
	}
	s := &Server{canon: canon, logger: zerolog.Nop()}
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/products/canonicalize")

	if err := s.handleCanonicalize(c); err != nil {
		t.Fatalf("handle canonicalize: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "fail" {
		t.Fatalf("expected fail status, got %q", resp.Status)
	}
}

func TestParseFilter(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	query := url.Values{}
	query.Set("owner_id", "42")
	query.Set("store", "  megaju  ")
	query.Set("period", "today")
	c, _ := newTestContext(t, http.MethodGet, "/api/v1/products?"+query.Encode())

	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		t.Fatalf("unexpected field errors: %v", fieldErrors)
	}
	if filter.OwnerID != 42 {
		t.Fatalf("expected owner 42, got %d", filter.OwnerID)
	}
	if filter.Store != "megaju" {
		t.Fatalf("expected trimmed store name, got %q", filter.Store)
	}
	wantFrom := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if filter.From == nil || !filter.From.Equal(wantFrom) {
		t.Fatalf("expected window start %v, got %v", wantFrom, filter.From)
	}
	if filter.To == nil || !filter.To.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Fatalf("expected window end %v, got %v", wantFrom.AddDate(0, 0, 1), filter.To)
	}
}

func TestParseFilter_Defaults(t *testing.T) {
	c, _ := newTestContext(t, http.MethodGet, "/api/v1/products")

	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		t.Fatalf("unexpected field errors: %v", fieldErrors)
	}
	if filter.OwnerID != 0 || filter.Store != "" || filter.From != nil || filter.To != nil {
		t.Fatalf("expected unbounded default filter, got %+v", filter)
	}
}

func TestParseFilter_FieldErrors(t *testing.T) {
	cases := map[string]string{
		"owner_id=abc":        "owner_id",
		"owner_id=-5":         "owner_id",
		"period=fortnight":    "period",
		"period=custom":       "period",
		"period=custom&start=2026-03-10&end=2026-03-01": "period",
	}
	for rawQuery, wantField := range cases {
		c, _ := newTestContext(t, http.MethodGet, "/api/v1/products?"+rawQuery)
		_, fieldErrors := parseFilter(c)
		if fieldErrors == nil {
			t.Fatalf("query %q: expected field errors", rawQuery)
		}
		if _, ok := fieldErrors[wantField]; !ok {
			t.Fatalf("query %q: expected error on %q, got %v", rawQuery, wantField, fieldErrors)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 25, 1, 200); err != nil || got != 25 {
		t.Fatalf("empty input must yield default, got %d, %v", got, err)
	}
	if got, err := parsePositiveInt(" 50 ", 25, 1, 200); err != nil || got != 50 {
		t.Fatalf("expected 50, got %d, %v", got, err)
	}
	if _, err := parsePositiveInt("0", 25, 1, 200); err == nil {
		t.Fatalf("below-range value must be rejected")
	}
	if _, err := parsePositiveInt("201", 25, 1, 200); err == nil {
		t.Fatalf("above-range value must be rejected")
	}
	if _, err := parsePositiveInt("ten", 25, 1, 200); err == nil {
		t.Fatalf("non-integer must be rejected")
	}
}

func TestHTTPErrorHandler_ClientError(t *testing.T) {
	s := &Server{logger: zerolog.Nop()}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/missing")

	s.httpErrorHandler(echo.NewHTTPError(http.StatusNotFound, "Not found"), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "fail" || resp.Message != "Not found" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestHTTPErrorHandler_MasksInternalDetails(t *testing.T) {
	s := &Server{logger: zerolog.Nop()}
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/products")

	s.httpErrorHandler(echo.NewHTTPError(http.StatusInternalServerError, "pq: connection refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %q", resp.Status)
	}
	if resp.Message != "Internal server error" {
		t.Fatalf("internal detail leaked: %q", resp.Message)
	}
}
