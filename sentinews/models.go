package sentinews

import (
	"encoding/json"
	"fmt"
)

type Sentiment struct {
	EntityName         string `json:"entity_name"`
	EntityType         string `json:"entity_type"`
	FinancialSentiment string `json:"financial_sentiment"`
	OverallSentiment   string `json:"overall_sentiment"`
	Reasoning          string `json:"reasoning"`
}

// Article is a news article with the sentiments extracted from it.
type Article struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	URL             string      `json:"url"`
	Author          string      `json:"author,omitempty"`
	PublicationDate string      `json:"publication_date,omitempty"`
	CleanedText     string      `json:"cleaned_text,omitempty"`
	Sentiments      []Sentiment `json:"sentiments"`
}

type Entity struct {
	EntityName string `json:"entity_name"`
	EntityType string `json:"entity_type"`
}

// RankedEntity is an entity with the number of matching sentiment records.
type RankedEntity struct {
	EntityName     string `json:"entity_name"`
	EntityType     string `json:"entity_type"`
	SentimentCount int    `json:"sentiment_count"`
}

// TrendPoint is one scored observation. On the wire it is the pair
// [date, score] with score in {-1, 0, 1}.
type TrendPoint struct {
	Date  string
	Score int
}

func (p *TrendPoint) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("trend point: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("trend point: want 2 elements, got %d", len(pair))
	}
	var date *string
	if err := json.Unmarshal(pair[0], &date); err != nil {
		return fmt.Errorf("trend point date: %w", err)
	}
	var score int
	if err := json.Unmarshal(pair[1], &score); err != nil {
		return fmt.Errorf("trend point score: %w", err)
	}
	p.Date, p.Score = "", score
	if date != nil {
		p.Date = *date
	}
	return nil
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Score})
}

type SentimentTrend struct {
	EntityName     string       `json:"entity_name"`
	FinancialTrend []TrendPoint `json:"financial_sentiment_trend"`
	OverallTrend   []TrendPoint `json:"overall_sentiment_trend"`
}

type DashboardStats struct {
	TotalEntities         int            `json:"total_entities"`
	ArticlesAnalyzed      int            `json:"articles_analyzed"`
	TotalSentimentPoints  int            `json:"total_sentiment_points"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
}

type ArticleRef struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Reasoning string `json:"reasoning"`
}

// ArticlesBySentiment groups an entity's articles by financial and overall
// sentiment. An article appears at most once per dimension.
type ArticlesBySentiment struct {
	PositiveFinancial []ArticleRef `json:"positive_financial"`
	NegativeFinancial []ArticleRef `json:"negative_financial"`
	NeutralFinancial  []ArticleRef `json:"neutral_financial"`
	PositiveOverall   []ArticleRef `json:"positive_overall"`
	NegativeOverall   []ArticleRef `json:"negative_overall"`
	NeutralOverall    []ArticleRef `json:"neutral_overall"`
}

// Total returns the number of distinct articles, counted on the financial
// dimension.
func (a ArticlesBySentiment) Total() int {
	return len(a.PositiveFinancial) + len(a.NegativeFinancial) + len(a.NeutralFinancial)
}

// EntitySummary is the generated digest of an entity's sentiment reasoning.
type EntitySummary struct {
	PositiveFinancial []string `json:"positive_financial"`
	NegativeFinancial []string `json:"negative_financial"`
	NeutralFinancial  []string `json:"neutral_financial"`
	PositiveOverall   []string `json:"positive_overall"`
	NegativeOverall   []string `json:"negative_overall"`
	NeutralOverall    []string `json:"neutral_overall"`
	FinalSummary      string   `json:"final_summary"`
}

// UsageStat is either a single LLM usage record or, when summarized, a
// per-provider aggregate (Provider, TotalCalls, TotalTokens, TotalCost).
type UsageStat struct {
	ID               int64   `json:"id,omitempty"`
	ArticleID        int64   `json:"article_id,omitempty"`
	Provider         string  `json:"provider"`
	ModelName        string  `json:"model_name,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd,omitempty"`
	Timestamp        string  `json:"timestamp,omitempty"`
	TotalCalls       int     `json:"total_calls,omitempty"`
	TotalCost        float64 `json:"total_cost,omitempty"`
}

type PipelineStatus struct {
	IsRunning   bool   `json:"is_running"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Total       int    `json:"total"`
	CurrentTask string `json:"current_task"`
}

// PipelineRun holds the statistics of a finished run. Its keys depend on
// the scrapers and analysis steps that ran.
type PipelineRun map[string]any

// Status returns the run's final status, e.g. "Completed".
func (r PipelineRun) Status() string {
	s, _ := r["status"].(string)
	return s
}

// Message is the acknowledgement returned by pipeline commands.
type Message struct {
	Message string `json:"message"`
}
