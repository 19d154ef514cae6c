// Package httpapi exposes the aggregation and canonicalization engine over a
// small JSON API. Responses follow the jsend envelope.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/aggregate"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/canonical"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/classify"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/timerange"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	maxTopLimit     = 100
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	canon  *canonical.Canonicalizer
	logger zerolog.Logger
	opts   Options
}

// NewServer wires the API over a connection pool. canon may carry no
// classifier when no endpoint is configured; the canonicalize route then
// answers 503 while the read and undo routes keep working.
func NewServer(pool *db.Pool, canon *canonical.Canonicalizer, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8845
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Canonicalization waits on the classifier, which is slow.
		writeTimeout = 10 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		canon:  canon,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil || s.canon == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	s.registerRoutes(e)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("reportd api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("reportd api server stopped")
	return nil
}

func (s *Server) registerRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/products", s.handleProducts)
	api.GET("/products/top", s.handleTopProducts)
	api.POST("/products/canonicalize", s.handleCanonicalize)
	api.POST("/products/canonicalize/undo", s.handleUndo)
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "reportd",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryEngineStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query engine stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

// parseFilter reads the shared window parameters (period/start/end, owner_id,
// store) into a record filter. Field errors come back in fieldErrors.
func parseFilter(c echo.Context) (db.Filter, map[string]string) {
	fieldErrors := map[string]string{}

	var filter db.Filter
	if raw := strings.TrimSpace(c.QueryParam("owner_id")); raw != "" {
		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ownerID < 0 {
			fieldErrors["owner_id"] = "must be a non-negative integer"
		} else {
			filter.OwnerID = ownerID
		}
	}
	filter.Store = strings.TrimSpace(c.QueryParam("store"))

	window, err := timerange.Resolve(c.QueryParam("period"), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		fieldErrors["period"] = err.Error()
	}
	filter.From = window.From
	filter.To = window.To

	if len(fieldErrors) > 0 {
		return db.Filter{}, fieldErrors
	}
	return filter, nil
}

func (s *Server) resolveGroups(ctx context.Context, filter db.Filter) ([]aggregate.Group, error) {
	records, err := s.pool.FetchLineRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate.Resolve(records), nil
}

func (s *Server) handleProducts(c echo.Context) error {
	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}
	sortBy, err := aggregate.ParseSortField(c.QueryParam("sort_by"))
	if err != nil {
		return failValidation(c, map[string]string{"sort_by": err.Error()})
	}
	descending, err := aggregate.ParseSortDirection(c.QueryParam("sort_dir"))
	if err != nil {
		return failValidation(c, map[string]string{"sort_dir": err.Error()})
	}

	groups, err := s.resolveGroups(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("load product groups failed")
		return internalError(c, "Failed to load products")
	}

	total, items, err := aggregate.Query(groups, aggregate.QueryOptions{
		Search:     c.QueryParam("q"),
		SortBy:     sortBy,
		Descending: descending,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return failValidation(c, map[string]string{"sort_by": err.Error()})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return success(c, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		},
		"filters": map[string]any{
			"owner_id": filter.OwnerID,
			"store":    filter.Store,
			"from":     filter.From,
			"to":       filter.To,
			"q":        strings.TrimSpace(c.QueryParam("q")),
		},
	})
}

func (s *Server) handleTopProducts(c echo.Context) error {
	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	metric, err := aggregate.ParseTopMetric(c.QueryParam("metric"))
	if err != nil {
		return failValidation(c, map[string]string{"metric": err.Error()})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), 10, 1, maxTopLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	groups, err := s.resolveGroups(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("load product groups failed")
		return internalError(c, "Failed to load products")
	}

	return success(c, map[string]any{
		"items":  aggregate.Top(groups, metric, limit),
		"metric": metric,
		"limit":  limit,
	})
}

func (s *Server) handleCanonicalize(c echo.Context) error {
	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	result, err := s.canon.Run(c.Request().Context(), filter)
	if err != nil {
		if errors.Is(err, classify.ErrNotConfigured) {
			return fail(c, http.StatusServiceUnavailable, "Classifier endpoint is not configured", nil)
		}
		s.logger.Error().Err(err).Str("run_id", result.RunID).Msg("canonicalization run failed")
		// Committed counts still matter to the caller when the run died
		// halfway through its writes.
		return c.JSON(http.StatusInternalServerError, jsendResponse{
			Status:  "error",
			Message: "Canonicalization failed",
			Code:    http.StatusInternalServerError,
			Data:    result,
		})
	}
	return success(c, result)
}

func (s *Server) handleUndo(c echo.Context) error {
	filter, fieldErrors := parseFilter(c)
	if fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	result, err := s.canon.Undo(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("canonicalization undo failed")
		return internalError(c, "Failed to undo canonicalization")
	}
	return success(c, result)
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
