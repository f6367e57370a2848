// Package httpapi exposes the transcription pipeline over HTTP: one
// synchronous POST endpoint, a health check, and the Prometheus metrics
// endpoint (spec §6). It is a thin Echo-based adapter — all the real
// work happens in internal/pipeline.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speechcore/whispersrv/internal/conf"
	"github.com/speechcore/whispersrv/internal/engine"
	apperrors "github.com/speechcore/whispersrv/internal/errors"
	"github.com/speechcore/whispersrv/internal/logging"
	"github.com/speechcore/whispersrv/internal/pipeline"
)

var log = logging.ForComponent("httpapi")

// transcribeRequest is the JSON body for POST /transcribe (spec §6).
type transcribeRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

// apiResponse is the success envelope spec §6 mandates for
// POST /transcribe: {error_code:0, data:{...}}.
type apiResponse struct {
	ErrorCode int             `json:"error_code"`
	Data      *transcribeData `json:"data,omitempty"`
}

type transcribeData struct {
	Text            string  `json:"text"`
	Duration        float64 `json:"duration"`
	Confidence      float64 `json:"confidence"`
	ProcessingTime  float64 `json:"processing_time"`
	Model           string  `json:"model"`
	Language        string  `json:"language"`
	ChunksProcessed int     `json:"chunks_processed"`
}

type errorResponse struct {
	ErrorCode int    `json:"error_code"`
	Error     string `json:"error"`
	Category  string `json:"category,omitempty"`
	Component string `json:"component,omitempty"`
}

// NewServer builds an *echo.Echo exposing POST /transcribe, GET /health,
// GET /metrics, and GET /swagger/* (static documentation, spec §6),
// wrapped with Echo's recover and request-ID middleware plus an
// API-key check when one is configured. eng is consulted by the health
// check to report whether the engine singleton has finished
// initializing.
func NewServer(p *pipeline.Pipeline, settings *conf.Settings, eng *engine.Engine) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	api := e.Group("")
	if settings.Server.APIKey != "" {
		api.Use(apiKeyMiddleware(settings.Server.APIKey))
	}

	api.POST("/transcribe", transcribeHandler(p))
	e.GET("/health", healthHandler(eng))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/swagger", "web/swagger")

	return e
}

// apiKeyMiddleware rejects requests missing a matching X-API-Key
// header, mirroring the teacher's bearer-token auth middleware shape.
func apiKeyMiddleware(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-API-Key") != expected {
				return c.JSON(http.StatusUnauthorized, errorResponse{ErrorCode: 1, Error: "missing or invalid API key"})
			}
			return next(c)
		}
	}
}

// healthHandler returns 200 iff eng has finished loading its native
// model context (spec §6); a nil or not-yet-ready engine reports 503.
func healthHandler(eng *engine.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		if eng == nil || !eng.Ready() {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func transcribeHandler(p *pipeline.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req transcribeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{ErrorCode: 1, Error: "invalid request body", Category: string(apperrors.CategoryValidation)})
		}
		if req.URL == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{ErrorCode: 1, Error: "url is required", Category: string(apperrors.CategoryValidation)})
		}

		result, err := p.Run(c.Request().Context(), pipeline.Request{SourceURL: req.URL, Language: req.Language})
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, apiResponse{
			ErrorCode: 0,
			Data: &transcribeData{
				Text:            result.Text,
				Duration:        result.DurationS,
				Confidence:      result.Confidence,
				ProcessingTime:  result.ProcessingTimeS,
				Model:           result.Model,
				Language:        result.Language,
				ChunksProcessed: result.Chunks,
			},
		})
	}
}

func writeError(c echo.Context, err error) error {
	var ee *apperrors.EnhancedError
	status := http.StatusInternalServerError
	category := apperrors.CategoryGeneric
	component := ""

	if apperrors.As(err, &ee) {
		status = ee.HTTPStatus()
		category = ee.Category
		component = ee.Component()
	}

	log.Error("request failed", "error", err, "category", category, "component", component)
	return c.JSON(status, errorResponse{ErrorCode: 1, Error: err.Error(), Category: string(category), Component: component})
}
