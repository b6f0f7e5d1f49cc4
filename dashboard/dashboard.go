// Package dashboard assembles the page-level views of the sentiment
// dashboard from several concurrent API reads.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adeilh/sentiscope/entity"
	"github.com/adeilh/sentiscope/fetcher"
	"github.com/adeilh/sentiscope/sentinews"
)

const (
	latestArticles = 20
	topEntities    = 20
)

// ErrNotFound is returned by Search when no entity matches.
var ErrNotFound = errors.New("dashboard: no matching entity")

// API is the subset of *sentinews.Client the dashboard reads from.
type API interface {
	Articles(ctx context.Context, q sentinews.ArticleQuery, opts ...fetcher.FetchOption) ([]sentinews.Article, error)
	Entities(ctx context.Context, opts ...fetcher.FetchOption) ([]sentinews.Entity, error)
	TopEntities(ctx context.Context, q sentinews.TopEntitiesQuery, opts ...fetcher.FetchOption) ([]sentinews.RankedEntity, error)
	SentimentOverTime(ctx context.Context, name string, opts ...fetcher.FetchOption) (*sentinews.SentimentTrend, error)
	DashboardStats(ctx context.Context, opts ...fetcher.FetchOption) (*sentinews.DashboardStats, error)
	EntityArticlesBySentiment(ctx context.Context, name, entityType string, opts ...fetcher.FetchOption) (*sentinews.ArticlesBySentiment, error)
	SummarizeEntity(ctx context.Context, name string, opts ...fetcher.FetchOption) (*sentinews.EntitySummary, error)
	PipelineStatus(ctx context.Context) (*sentinews.PipelineStatus, error)
	PipelineLastRun(ctx context.Context) (sentinews.PipelineRun, error)
	UsageStats(ctx context.Context, summarize bool) ([]sentinews.UsageStat, error)
}

type Dashboard struct {
	api    API
	logger *zap.Logger
}

func New(api API, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{api: api, logger: logger}
}

// Filter selects what the overview shows. Empty fields mean "all" and
// "positive".
type Filter struct {
	Type      string
	Sentiment string
}

func (f Filter) normalize() (Filter, error) {
	if f.Type == "" {
		f.Type = "all"
	}
	if f.Type != "all" && !entity.Type(f.Type).Valid() {
		return f, fmt.Errorf("%w: unknown entity type %q", sentinews.ErrInvalidRequest, f.Type)
	}
	if f.Sentiment == "" {
		f.Sentiment = "positive"
	}
	return f, nil
}

type Overview struct {
	Filter      Filter                    `json:"filter"`
	Stats       *sentinews.DashboardStats `json:"stats"`
	Articles    []sentinews.Article       `json:"articles"`
	TopEntities []sentinews.RankedEntity  `json:"top_entities"`
}

// Overview loads stats, the latest articles and the entities ranked by
// financial sentiment. Any failed read fails the whole view.
func (d *Dashboard) Overview(ctx context.Context, filter Filter) (*Overview, error) {
	filter, err := filter.normalize()
	if err != nil {
		return nil, err
	}
	out := &Overview{Filter: filter}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.api.DashboardStats(gctx)
		out.Stats = s
		return err
	})
	g.Go(func() error {
		a, err := d.api.Articles(gctx, sentinews.ArticleQuery{Limit: latestArticles})
		out.Articles = a
		return err
	})
	g.Go(func() error {
		top, err := d.api.TopEntities(gctx, sentinews.TopEntitiesQuery{
			SentimentType: "financial",
			Sentiment:     filter.Sentiment,
			Limit:         topEntities,
		})
		out.TopEntities = filterByType(top, filter.Type)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func filterByType(top []sentinews.RankedEntity, t string) []sentinews.RankedEntity {
	if t == "all" {
		return top
	}
	out := make([]sentinews.RankedEntity, 0, len(top))
	for _, e := range top {
		if e.EntityType == t {
			out = append(out, e)
		}
	}
	return out
}

// EntityDetail is the drill-down for one entity. Parts that failed to load
// are nil and their errors are listed in Errors.
type EntityDetail struct {
	Name     string                         `json:"entity_name"`
	Type     string                         `json:"entity_type"`
	Articles *sentinews.ArticlesBySentiment `json:"articles"`
	Trend    *sentinews.SentimentTrend      `json:"sentiment_trend"`
	Summary  *sentinews.EntitySummary       `json:"ai_summary"`
	Errors   map[string]string              `json:"errors,omitempty"`
}

// EntityDetail loads articles by sentiment, the sentiment trend and the
// generated summary concurrently. An empty entityType is guessed from the
// name. It fails only when every part fails.
func (d *Dashboard) EntityDetail(ctx context.Context, name, entityType string) (*EntityDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: entity name is required", sentinews.ErrInvalidRequest)
	}
	if entityType == "" {
		entityType = string(entity.DetectType(name))
	}
	out := &EntityDetail{Name: name, Type: entityType}

	var articlesErr, trendErr, summaryErr error
	var g errgroup.Group
	g.Go(func() error {
		out.Articles, articlesErr = d.api.EntityArticlesBySentiment(ctx, name, entityType)
		return nil
	})
	g.Go(func() error {
		out.Trend, trendErr = d.api.SentimentOverTime(ctx, name)
		return nil
	})
	g.Go(func() error {
		out.Summary, summaryErr = d.api.SummarizeEntity(ctx, name)
		return nil
	})
	_ = g.Wait()

	parts := map[string]error{"articles": articlesErr, "sentiment_trend": trendErr, "ai_summary": summaryErr}
	for part, err := range parts {
		if err == nil {
			continue
		}
		if out.Errors == nil {
			out.Errors = make(map[string]string)
		}
		out.Errors[part] = err.Error()
		d.logger.Warn("entity detail part failed",
			zap.String("entity", name), zap.String("part", part), zap.Error(err))
	}
	if len(out.Errors) == len(parts) {
		return nil, errors.Join(articlesErr, trendErr, summaryErr)
	}
	return out, nil
}

type SearchResult struct {
	Term    string             `json:"term"`
	Matches []sentinews.Entity `json:"matches"`
	Detail  *EntityDetail      `json:"detail,omitempty"`
}

// Search matches term case-insensitively against entity names. An exact
// name match, or a single partial match, is expanded into its detail.
func (d *Dashboard) Search(ctx context.Context, term string) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", sentinews.ErrInvalidRequest)
	}
	all, err := d.api.Entities(ctx)
	if err != nil {
		return nil, err
	}
	// Tickers also match the coin's full name, so "btc" finds Bitcoin.
	needles := []string{strings.ToLower(term)}
	if full := strings.ToLower(entity.FullCryptoName(term)); full != needles[0] {
		needles = append(needles, full)
	}
	res := &SearchResult{Term: term, Matches: []sentinews.Entity{}}
	var exact *sentinews.Entity
	for i, e := range all {
		name := strings.ToLower(e.EntityName)
		matched := false
		for _, n := range needles {
			if strings.Contains(name, n) {
				matched = true
			}
			if name == n && exact == nil {
				exact = &all[i]
			}
		}
		if matched {
			res.Matches = append(res.Matches, e)
		}
	}
	if len(res.Matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, term)
	}
	pick := exact
	if pick == nil && len(res.Matches) == 1 {
		pick = &res.Matches[0]
	}
	if pick != nil {
		detail, err := d.EntityDetail(ctx, pick.EntityName, pick.EntityType)
		if err != nil {
			return nil, err
		}
		res.Detail = detail
	}
	return res, nil
}

type Developer struct {
	Status  *sentinews.PipelineStatus `json:"status"`
	LastRun sentinews.PipelineRun     `json:"last_run"`
	Usage   []sentinews.UsageStat     `json:"usage"`
}

// Developer loads the pipeline status plus, when available, the last run
// and per-provider usage totals.
func (d *Dashboard) Developer(ctx context.Context) (*Developer, error) {
	out := &Developer{Usage: []sentinews.UsageStat{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := d.api.PipelineStatus(gctx)
		out.Status = st
		return err
	})
	g.Go(func() error {
		run, err := d.api.PipelineLastRun(gctx)
		if err != nil {
			d.logger.Debug("last run unavailable", zap.Error(err))
			return nil
		}
		out.LastRun = run
		return nil
	})
	g.Go(func() error {
		usage, err := d.api.UsageStats(gctx, true)
		if err != nil {
			d.logger.Debug("usage unavailable", zap.Error(err))
			return nil
		}
		sort.SliceStable(usage, func(i, j int) bool { return usage[i].TotalCost > usage[j].TotalCost })
		out.Usage = usage
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchPipeline polls the pipeline status every interval and calls fn with
// each result until ctx ends or fn returns false. Poll errors are logged and
// skipped.
func (d *Dashboard) WatchPipeline(ctx context.Context, interval time.Duration, fn func(*sentinews.PipelineStatus) bool) error {
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", sentinews.ErrInvalidRequest)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := d.api.PipelineStatus(ctx)
		switch {
		case err == nil:
			if !fn(st) {
				return nil
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			d.logger.Warn("poll pipeline status", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
