// Package fakeapi serves an in-process stand-in for the sentiment API with
// canned data, for tests.
package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/adeilh/sentiscope/httpx"
	"github.com/adeilh/sentiscope/sentinews"
)

// Data is the canned content served by a Backend.
type Data struct {
	Articles  []sentinews.Article
	Entities  []sentinews.Entity
	Top       []sentinews.RankedEntity
	Stats     sentinews.DashboardStats
	BySent    map[string]sentinews.ArticlesBySentiment
	Trends    map[string]sentinews.SentimentTrend
	Summaries map[string]sentinews.EntitySummary
	Scrapers  []string
	Status    sentinews.PipelineStatus
	LastRun   sentinews.PipelineRun
	Usage     []sentinews.UsageStat
	Summary   []sentinews.UsageStat
}

type Backend struct {
	mu       sync.Mutex
	data     Data
	failures map[string]int
	calls    map[string]int
	queries  map[string]string
	bodies   map[string][]byte
	delays   map[string]time.Duration

	server *httpx.TestServer
}

// Start serves d until Close.
func Start(d Data) *Backend {
	b := &Backend{
		data:     d,
		failures: make(map[string]int),
		calls:    make(map[string]int),
		queries:  make(map[string]string),
		bodies:   make(map[string][]byte),
		delays:   make(map[string]time.Duration),
	}
	app := httpx.New()
	api := app.Group("/api", b.delay)
	api.GET(sentinews.EndpointArticles, b.articles)
	api.GET(sentinews.EndpointEntities, b.serve(func(d *Data) any { return d.Entities }))
	api.GET(sentinews.EndpointTopEntities, b.topEntities)
	api.GET(sentinews.EndpointDashboardStats, b.serve(func(d *Data) any { return d.Stats }))
	api.GET(sentinews.EndpointScrapers, b.serve(func(d *Data) any { return d.Scrapers }))
	api.GET(sentinews.EndpointPipelineStatus, b.serve(func(d *Data) any { return d.Status }))
	api.GET(sentinews.EndpointSentimentOverTime, b.byEntity(func(d *Data, name string) (any, bool) {
		v, ok := d.Trends[name]
		return v, ok
	}))
	api.GET(sentinews.EndpointArticlesBySentiment, b.byEntity(func(d *Data, name string) (any, bool) {
		v, ok := d.BySent[name]
		return v, ok
	}))
	api.GET(sentinews.EndpointSummarizeEntity, b.byEntity(func(d *Data, name string) (any, bool) {
		v, ok := d.Summaries[name]
		return v, ok
	}))
	api.GET(sentinews.EndpointPipelineLastRun, b.lastRun)
	api.GET(sentinews.EndpointUsageStats, b.usage)
	api.POST(sentinews.EndpointTriggerPipeline, b.trigger)
	api.POST(sentinews.EndpointStopPipeline, b.stop)
	api.POST(sentinews.EndpointConfigureSchedule, b.schedule)

	b.server = httpx.NewTestServer(app)
	return b
}

// URL is the API root, suitable for httpx.WithBaseURL.
func (b *Backend) URL() string { return b.server.BaseURL() + "/api" }

func (b *Backend) Close() { b.server.Close() }

// Fail makes endpoint answer with code until cleared with code 0.
func (b *Backend) Fail(endpoint string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code == 0 {
		delete(b.failures, endpoint)
		return
	}
	b.failures[endpoint] = code
}

// Slow delays every response from endpoint by d; zero clears it.
func (b *Backend) Slow(endpoint string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[endpoint] = d
}

func (b *Backend) delay(next httpx.HandlerFunc) httpx.HandlerFunc {
	return func(c httpx.Context) error {
		b.mu.Lock()
		d := b.delays[endpointOf(c)]
		b.mu.Unlock()
		if d > 0 {
			select {
			case <-time.After(d):
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		return next(c)
	}
}

// Update mutates the served data.
func (b *Backend) Update(fn func(*Data)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.data)
}

// Calls reports how many requests endpoint has received.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// Query returns the raw query string of the last request to endpoint.
func (b *Backend) Query(endpoint string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[endpoint]
}

// Body returns the body of the last POST to endpoint.
func (b *Backend) Body(endpoint string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[endpoint]
}

// record counts the request and reports an injected failure, if any. The
// caller must hold b.mu.
func (b *Backend) record(c httpx.Context, endpoint string) (int, bool) {
	b.calls[endpoint]++
	b.queries[endpoint] = c.QueryString()
	code, ok := b.failures[endpoint]
	return code, ok
}

func fail(c httpx.Context, code int) error {
	return c.JSON(code, map[string]string{"error": http.StatusText(code)})
}

func (b *Backend) serve(get func(*Data) any) httpx.HandlerFunc {
	return func(c httpx.Context) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		if code, ok := b.record(c, endpointOf(c)); ok {
			return fail(c, code)
		}
		return c.JSON(http.StatusOK, get(&b.data))
	}
}

func (b *Backend) byEntity(get func(*Data, string) (any, bool)) httpx.HandlerFunc {
	return func(c httpx.Context) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		if code, ok := b.record(c, endpointOf(c)); ok {
			return fail(c, code)
		}
		name := c.QueryParam("entity_name")
		if name == "" {
			return fail(c, http.StatusBadRequest)
		}
		v, ok := get(&b.data, name)
		if !ok {
			return fail(c, http.StatusNotFound)
		}
		return c.JSON(http.StatusOK, v)
	}
}

func (b *Backend) articles(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.record(c, sentinews.EndpointArticles); ok {
		return fail(c, code)
	}
	out := make([]sentinews.Article, 0, len(b.data.Articles))
	name := c.QueryParam("entity_name")
	for _, a := range b.data.Articles {
		if name == "" || mentions(a, name) {
			out = append(out, a)
		}
	}
	return c.JSON(http.StatusOK, limit(out, c.QueryParam("limit"), 20))
}

func mentions(a sentinews.Article, name string) bool {
	for _, s := range a.Sentiments {
		if s.EntityName == name {
			return true
		}
	}
	return false
}

func (b *Backend) topEntities(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.record(c, sentinews.EndpointTopEntities); ok {
		return fail(c, code)
	}
	return c.JSON(http.StatusOK, limit(b.data.Top, c.QueryParam("limit"), 10))
}

func limit[T any](items []T, raw string, def int) []T {
	n := def
	if v, err := strconv.Atoi(raw); err == nil {
		n = v
	}
	if n >= 0 && n < len(items) {
		return items[:n]
	}
	return items
}

func (b *Backend) lastRun(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.record(c, sentinews.EndpointPipelineLastRun); ok {
		return fail(c, code)
	}
	if b.data.LastRun == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "No previous pipeline run found."})
	}
	return c.JSON(http.StatusOK, b.data.LastRun)
}

func (b *Backend) usage(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.record(c, sentinews.EndpointUsageStats); ok {
		return fail(c, code)
	}
	if c.QueryParam("summarize") == "true" {
		return c.JSON(http.StatusOK, b.data.Summary)
	}
	return c.JSON(http.StatusOK, b.data.Usage)
}

func (b *Backend) command(c httpx.Context, endpoint string) (int, bool) {
	code, ok := b.record(c, endpoint)
	body, _ := io.ReadAll(c.Request().Body)
	b.bodies[endpoint] = body
	return code, ok
}

func (b *Backend) trigger(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.command(c, sentinews.EndpointTriggerPipeline); ok {
		return fail(c, code)
	}
	if b.data.Status.IsRunning {
		return c.JSON(http.StatusConflict, map[string]string{"error": "A pipeline is already running."})
	}
	b.data.Status = sentinews.PipelineStatus{IsRunning: true, Status: "Running", CurrentTask: "Scraping"}
	return c.JSON(http.StatusAccepted, sentinews.Message{Message: "Pipeline triggered successfully in the background."})
}

func (b *Backend) stop(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.command(c, sentinews.EndpointStopPipeline); ok {
		return fail(c, code)
	}
	if !b.data.Status.IsRunning {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No pipeline is currently running."})
	}
	b.data.Status.Status = "Stopping..."
	return c.JSON(http.StatusAccepted, sentinews.Message{Message: "Pipeline stop signal sent. It will terminate shortly."})
}

func (b *Backend) schedule(c httpx.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if code, ok := b.command(c, sentinews.EndpointConfigureSchedule); ok {
		return fail(c, code)
	}
	var req sentinews.ScheduleRequest
	if err := json.Unmarshal(b.bodies[sentinews.EndpointConfigureSchedule], &req); err != nil || req.ScheduleTime == "" {
		return fail(c, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, sentinews.Message{Message: "Pipeline schedule updated successfully to " + req.ScheduleTime + " UTC."})
}

// endpointOf strips the /api prefix from the matched route.
func endpointOf(c httpx.Context) string {
	p := c.Path()
	if len(p) >= 4 && p[:4] == "/api" {
		return p[4:]
	}
	return p
}
