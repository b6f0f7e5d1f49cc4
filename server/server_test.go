package server_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/sentiscope/dashboard"
	"github.com/adeilh/sentiscope/fetcher"
	"github.com/adeilh/sentiscope/httpx"
	"github.com/adeilh/sentiscope/internal/fakeapi"
	"github.com/adeilh/sentiscope/sentinews"
	"github.com/adeilh/sentiscope/server"
)

type env struct {
	backend *fakeapi.Backend
	client  *httpx.Client
}

func setup(t *testing.T) *env {
	t.Helper()
	b := fakeapi.Start(fakeapi.Sample())
	t.Cleanup(b.Close)

	api := sentinews.New(b.URL(), []fetcher.Option{fetcher.WithRetries(0), fetcher.WithSharedRequests()})
	srv := httpx.NewServer()
	srv.RegisterRoutes(server.New(api, nil).Register)
	ts := httpx.NewTestServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &env{backend: b, client: httpx.NewClient(httpx.WithBaseURL(ts.BaseURL()))}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se *httpx.StatusError
	require.ErrorAs(t, err, &se)
	return se.Code
}

func TestHealthz(t *testing.T) {
	e := setup(t)
	var out map[string]string
	_, err := e.client.Get(context.Background(), "/healthz", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
}

func TestOverview(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	var out dashboard.Overview
	_, err := e.client.Get(ctx, "/api/overview", &out, httpx.WithQuery(map[string]string{"type": "crypto"}))
	require.NoError(t, err)
	assert.Equal(t, "crypto", out.Filter.Type)
	require.Len(t, out.TopEntities, 2)
	assert.Equal(t, "Bitcoin", out.TopEntities[0].EntityName)
	assert.Equal(t, 2, out.Stats.ArticlesAnalyzed)

	_, err = e.client.Get(ctx, "/api/overview", nil, httpx.WithQuery(map[string]string{"type": "etf"}))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestOverview_UpstreamFailure(t *testing.T) {
	e := setup(t)
	e.backend.Fail(sentinews.EndpointDashboardStats, http.StatusInternalServerError)

	_, err := e.client.Get(context.Background(), "/api/overview", nil)
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
}

func TestEntities(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	var list []sentinews.Entity
	_, err := e.client.Get(ctx, "/api/entities", &list)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	var detail dashboard.EntityDetail
	_, err = e.client.Get(ctx, "/api/entities/Bitcoin", &detail)
	require.NoError(t, err)
	assert.Equal(t, "crypto", detail.Type)
	assert.Equal(t, "Bitcoin faces short-term selling pressure.", detail.Summary.FinalSummary)
	assert.Equal(t, -1, detail.Trend.FinancialTrend[0].Score)

	_, err = e.client.Get(ctx, "/api/entities/Nokia", nil)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestConcurrentIdenticalReads(t *testing.T) {
	e := setup(t)
	e.backend.Slow(sentinews.EndpointEntities, 200*time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var list []sentinews.Entity
			_, errs[i] = e.client.Get(context.Background(), "/api/entities", &list)
		}(i)
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, 1, e.backend.Calls(sentinews.EndpointEntities))
}

func TestSearch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	var res dashboard.SearchResult
	_, err := e.client.Get(ctx, "/api/search", &res, httpx.WithQuery(map[string]string{"q": "bitc"}))
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.NotNil(t, res.Detail)
	assert.Equal(t, "Bitcoin", res.Detail.Name)
	assert.Equal(t, "crypto", res.Detail.Type)

	_, err = e.client.Get(ctx, "/api/search", nil, httpx.WithQuery(map[string]string{"q": "zzz"}))
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = e.client.Get(ctx, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestDeveloper(t *testing.T) {
	e := setup(t)

	var out dashboard.Developer
	_, err := e.client.Get(context.Background(), "/api/developer", &out)
	require.NoError(t, err)
	assert.Equal(t, "Idle", out.Status.Status)
	assert.Len(t, out.Usage, 2)
}

func TestPipelineCommands(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.client.Post(ctx, "/api/pipeline/trigger", map[string]any{"provider": "anthropic"}, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = e.client.Post(ctx, "/api/pipeline/stop", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	var msg sentinews.Message
	resp, err := e.client.Post(ctx, "/api/pipeline/trigger", map[string]any{"provider": "groq"}, &msg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode())
	assert.Contains(t, msg.Message, "triggered")

	_, err = e.client.Post(ctx, "/api/pipeline/trigger", map[string]any{}, nil)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Contains(t, err.Error(), "A pipeline is already running.")

	resp, err = e.client.Post(ctx, "/api/pipeline/stop", map[string]any{}, &msg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode())
}

func TestSchedule(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.client.Post(ctx, "/api/pipeline/schedule", map[string]string{"schedule_time": "25:00"}, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Zero(t, e.backend.Calls(sentinews.EndpointConfigureSchedule))

	var msg sentinews.Message
	_, err = e.client.Post(ctx, "/api/pipeline/schedule", map[string]string{"schedule_time": "06:15"}, &msg)
	require.NoError(t, err)
	assert.Contains(t, msg.Message, "06:15")
}

func TestClearCache(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.client.Get(ctx, "/api/entities", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 1, e.backend.Calls(sentinews.EndpointEntities))

	_, err := e.client.Post(ctx, "/api/cache/clear", nil, nil, httpx.WithQuery(map[string]string{"prefix": "entities"}))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = e.client.Post(ctx, "/api/cache/clear", nil, nil, httpx.WithQuery(map[string]string{"prefix": "/entities"}))
	require.NoError(t, err)
	_, err = e.client.Get(ctx, "/api/entities", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, e.backend.Calls(sentinews.EndpointEntities))
}

func TestMetricsEndpoint(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.client.Get(ctx, "/api/entities", nil)
	require.NoError(t, err)

	resp, err := e.client.Get(ctx, "/metrics", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.String(), "sentiscope_fetch_requests_total")
}
