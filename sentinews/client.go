// Package sentinews is a typed client for the financial news sentiment API.
//
// Read endpoints go through a fetcher.Fetcher and are cached, deduplicated
// and retried. Pipeline status and usage are always fetched fresh. Pipeline
// commands are validated locally and posted uncached.
package sentinews

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/fetcher"
	"github.com/adeilh/sentiscope/httpx"
)

const (
	EndpointArticles            = "/articles"
	EndpointEntities            = "/entities"
	EndpointTopEntities         = "/top_entities"
	EndpointSentimentOverTime   = "/sentiment_over_time"
	EndpointDashboardStats      = "/dashboard_stats"
	EndpointArticlesBySentiment = "/entity_articles_by_sentiment"
	EndpointSummarizeEntity     = "/summarize_entity"
	EndpointScrapers            = "/scrapers"
	EndpointPipelineStatus      = "/pipeline_status"
	EndpointPipelineLastRun     = "/pipeline_last_run"
	EndpointUsageStats          = "/usage_stats"
	EndpointTriggerPipeline     = "/trigger_pipeline"
	EndpointStopPipeline        = "/stop_pipeline"
	EndpointConfigureSchedule   = "/configure_schedule"
)

// analyticsEndpoints are invalidated after a pipeline run is triggered.
var analyticsEndpoints = []string{
	EndpointArticles,
	EndpointEntities,
	EndpointTopEntities,
	EndpointSentimentOverTime,
	EndpointDashboardStats,
	EndpointArticlesBySentiment,
	EndpointSummarizeEntity,
}

// ErrInvalidRequest is returned when a query or command fails local
// validation. Nothing is sent.
var ErrInvalidRequest = errors.New("sentinews: invalid request")

type Client struct {
	fetcher  *fetcher.Fetcher
	http     *httpx.Client
	validate *validator.Validate
	logger   *zap.Logger
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client. f is expected to use hc (or an equivalent
// transport) for its GETs; hc is used directly for commands.
func NewClient(hc *httpx.Client, f *fetcher.Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:  f,
		http:     hc,
		validate: newValidator(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// New builds the transport and fetcher for baseURL in one step.
func New(baseURL string, fetchOpts []fetcher.Option, opts ...Option) *Client {
	hc := httpx.NewClient(httpx.WithBaseURL(baseURL))
	return NewClient(hc, fetcher.New(hc, fetchOpts...), opts...)
}

// Fetcher exposes the underlying cache, e.g. for ClearCache.
func (c *Client) Fetcher() *fetcher.Fetcher { return c.fetcher }

func (c *Client) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (c *Client) Articles(ctx context.Context, q ArticleQuery, opts ...fetcher.FetchOption) ([]Article, error) {
	if err := c.check(q); err != nil {
		return nil, err
	}
	var out []Article
	if err := c.fetcher.Fetch(ctx, EndpointArticles, q.params(), &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Entities lists every distinct (name, type) pair ordered by name.
func (c *Client) Entities(ctx context.Context, opts ...fetcher.FetchOption) ([]Entity, error) {
	var out []Entity
	if err := c.fetcher.Fetch(ctx, EndpointEntities, nil, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TopEntities(ctx context.Context, q TopEntitiesQuery, opts ...fetcher.FetchOption) ([]RankedEntity, error) {
	if err := c.check(q); err != nil {
		return nil, err
	}
	var out []RankedEntity
	if err := c.fetcher.Fetch(ctx, EndpointTopEntities, q.params(), &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SentimentOverTime(ctx context.Context, name string, opts ...fetcher.FetchOption) (*SentimentTrend, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entity name is required", ErrInvalidRequest)
	}
	var out SentimentTrend
	if err := c.fetcher.Fetch(ctx, EndpointSentimentOverTime, fetcher.Params{"entity_name": name}, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DashboardStats(ctx context.Context, opts ...fetcher.FetchOption) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.fetcher.Fetch(ctx, EndpointDashboardStats, nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EntityArticlesBySentiment(ctx context.Context, name, entityType string, opts ...fetcher.FetchOption) (*ArticlesBySentiment, error) {
	if err := c.check(entityRef{Name: name, Type: entityType}); err != nil {
		return nil, err
	}
	var out ArticlesBySentiment
	params := fetcher.Params{"entity_name": name, "entity_type": entityType}
	if err := c.fetcher.Fetch(ctx, EndpointArticlesBySentiment, params, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeEntity returns the generated digest for name. Summaries are
// expensive upstream, so the cache matters most here.
func (c *Client) SummarizeEntity(ctx context.Context, name string, opts ...fetcher.FetchOption) (*EntitySummary, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entity name is required", ErrInvalidRequest)
	}
	var out EntitySummary
	if err := c.fetcher.Fetch(ctx, EndpointSummarizeEntity, fetcher.Params{"entity_name": name}, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Scrapers(ctx context.Context, opts ...fetcher.FetchOption) ([]string, error) {
	var out []string
	if err := c.fetcher.Fetch(ctx, EndpointScrapers, nil, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PipelineStatus(ctx context.Context) (*PipelineStatus, error) {
	var out PipelineStatus
	if err := c.fetcher.Fetch(ctx, EndpointPipelineStatus, nil, &out, fetcher.SkipCache()); err != nil {
		return nil, err
	}
	return &out, nil
}

// PipelineLastRun returns the most recent run. The API answers 404 when no
// run has been recorded.
func (c *Client) PipelineLastRun(ctx context.Context) (PipelineRun, error) {
	var out PipelineRun
	if err := c.fetcher.Fetch(ctx, EndpointPipelineLastRun, nil, &out, fetcher.SkipCache()); err != nil {
		return nil, err
	}
	return out, nil
}

// UsageStats lists LLM usage records, newest first, or per-provider totals
// when summarize is set.
func (c *Client) UsageStats(ctx context.Context, summarize bool) ([]UsageStat, error) {
	var out []UsageStat
	params := fetcher.Params{"summarize": summarize}
	if err := c.fetcher.Fetch(ctx, EndpointUsageStats, params, &out, fetcher.SkipCache()); err != nil {
		return nil, err
	}
	return out, nil
}

// TriggerPipeline starts a background run and drops cached analytics so the
// next reads see its results.
func (c *Client) TriggerPipeline(ctx context.Context, req TriggerRequest) (*Message, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	msg, err := c.post(ctx, EndpointTriggerPipeline, req)
	if err != nil {
		return nil, err
	}
	for _, ep := range analyticsEndpoints {
		if err := c.fetcher.ClearCache(ctx, ep); err != nil {
			c.logger.Warn("clear cache after trigger", zap.String("endpoint", ep), zap.Error(err))
		}
	}
	return msg, nil
}

func (c *Client) StopPipeline(ctx context.Context, req StopRequest) (*Message, error) {
	return c.post(ctx, EndpointStopPipeline, req)
}

func (c *Client) ConfigureSchedule(ctx context.Context, req ScheduleRequest) (*Message, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	return c.post(ctx, EndpointConfigureSchedule, req)
}

// Refresh drops every cached response.
func (c *Client) Refresh(ctx context.Context) error {
	return c.fetcher.ClearCache(ctx, "")
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (*Message, error) {
	var out Message
	if _, err := c.http.Post(ctx, endpoint, body, &out); err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	c.logger.Info("pipeline command", zap.String("endpoint", endpoint), zap.String("message", out.Message))
	return &out, nil
}
