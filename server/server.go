// Package server exposes the dashboard views and pipeline commands as a
// JSON API in front of the sentiment backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/dashboard"
	"github.com/adeilh/sentiscope/fetcher"
	"github.com/adeilh/sentiscope/httpx"
	"github.com/adeilh/sentiscope/sentinews"
)

type Handler struct {
	api    *sentinews.Client
	dash   *dashboard.Dashboard
	logger *zap.Logger
}

func New(api *sentinews.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		api:    api,
		dash:   dashboard.New(api, logger.Named("dashboard")),
		logger: logger,
	}
}

// Routes lists every endpoint served by h.
func (h *Handler) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: "GET", Path: "/healthz", Handler: h.health},
		{Method: "GET", Path: "/metrics", Handler: httpx.WrapHandler(promhttp.Handler())},
		{Method: "GET", Path: "/api/overview", Handler: h.overview},
		{Method: "GET", Path: "/api/entities", Handler: h.entities},
		{Method: "GET", Path: "/api/entities/:name", Handler: h.entityDetail},
		{Method: "GET", Path: "/api/search", Handler: h.search},
		{Method: "GET", Path: "/api/developer", Handler: h.developer},
		{Method: "POST", Path: "/api/pipeline/trigger", Handler: h.trigger},
		{Method: "POST", Path: "/api/pipeline/stop", Handler: h.stop},
		{Method: "POST", Path: "/api/pipeline/schedule", Handler: h.schedule},
		{Method: "POST", Path: "/api/cache/clear", Handler: h.clearCache},
	}
}

// Register mounts the routes on a; it satisfies httpx.RouteRegistrar.
func (h *Handler) Register(a *httpx.App) {
	httpx.RegisterRoutes(a, h.Routes()...)
}

func (h *Handler) health(c httpx.Context) error {
	return c.JSON(httpx.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) overview(c httpx.Context) error {
	out, err := h.dash.Overview(c.Request().Context(), dashboard.Filter{
		Type:      c.QueryParam("type"),
		Sentiment: c.QueryParam("sentiment"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) entities(c httpx.Context) error {
	out, err := h.api.Entities(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) entityDetail(c httpx.Context) error {
	out, err := h.dash.EntityDetail(c.Request().Context(), c.Param("name"), c.QueryParam("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) search(c httpx.Context) error {
	out, err := h.dash.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) developer(c httpx.Context) error {
	out, err := h.dash.Developer(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(httpx.StatusOK, out)
}

func (h *Handler) trigger(c httpx.Context) error {
	var req sentinews.TriggerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.command(c, httpx.StatusAccepted, func(ctx context.Context) (*sentinews.Message, error) {
		return h.api.TriggerPipeline(ctx, req)
	})
}

func (h *Handler) stop(c httpx.Context) error {
	var req sentinews.StopRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.command(c, httpx.StatusAccepted, func(ctx context.Context) (*sentinews.Message, error) {
		return h.api.StopPipeline(ctx, req)
	})
}

func (h *Handler) schedule(c httpx.Context) error {
	var req sentinews.ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.command(c, httpx.StatusOK, func(ctx context.Context) (*sentinews.Message, error) {
		return h.api.ConfigureSchedule(ctx, req)
	})
}

func (h *Handler) command(c httpx.Context, code int, run func(context.Context) (*sentinews.Message, error)) error {
	msg, err := run(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(code, msg)
}

func (h *Handler) clearCache(c httpx.Context) error {
	prefix := c.QueryParam("prefix")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		return httpx.HTTPError(httpx.StatusBadRequest, "prefix must start with /")
	}
	ctx := c.Request().Context()
	canceled := h.api.Fetcher().CancelRequests(prefix)
	if err := h.api.Fetcher().ClearCache(ctx, prefix); err != nil {
		return h.fail(c, err)
	}
	h.logger.Info("cache cleared", zap.String("prefix", prefix), zap.Int("canceled", canceled))
	return c.JSON(httpx.StatusOK, map[string]any{"prefix": prefix, "canceled": canceled})
}

// fail translates err into an HTTP error. Upstream 4xx statuses are relayed
// as-is; other upstream failures become 502.
func (h *Handler) fail(c httpx.Context, err error) error {
	var se *httpx.StatusError
	switch {
	case errors.Is(err, sentinews.ErrInvalidRequest):
		return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrNotFound):
		return httpx.HTTPError(httpx.StatusNotFound, err.Error())
	case fetcher.IsCancellation(err), errors.Is(err, context.Canceled):
		return httpx.HTTPError(httpx.StatusServiceUnavailable, err.Error())
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
		return httpx.HTTPError(se.Code, upstreamMessage(se.Body))
	}
	h.logger.Warn("upstream request failed", zap.String("path", c.Path()), zap.Error(err))
	return httpx.HTTPError(httpx.StatusBadGateway, err.Error())
}

// upstreamMessage extracts the error text from a backend error body.
func upstreamMessage(body string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return body
}
