package fakeapi

import "github.com/adeilh/sentiscope/sentinews"

// Sample returns a small, consistent data set: two companies and two
// crypto assets.
func Sample() Data {
	return Data{
		Articles: []sentinews.Article{
			{
				ID: 1, Title: "Apple beats estimates", URL: "https://news.example/apple-q3",
				Author: "J. Doe", PublicationDate: "2025-07-30",
				Sentiments: []sentinews.Sentiment{{
					EntityName: "Apple", EntityType: "company",
					FinancialSentiment: "positive", OverallSentiment: "positive",
					Reasoning: "Revenue grew faster than expected.",
				}},
			},
			{
				ID: 2, Title: "Bitcoin slides after ETF outflows", URL: "https://news.example/btc-etf",
				PublicationDate: "2025-07-31",
				Sentiments: []sentinews.Sentiment{{
					EntityName: "Bitcoin", EntityType: "crypto",
					FinancialSentiment: "negative", OverallSentiment: "neutral",
					Reasoning: "Large outflows pressured the price.",
				}},
			},
		},
		Entities: []sentinews.Entity{
			{EntityName: "Apple", EntityType: "company"},
			{EntityName: "Apple Hospitality", EntityType: "company"},
			{EntityName: "Bitcoin", EntityType: "crypto"},
			{EntityName: "Ethereum", EntityType: "crypto"},
		},
		Top: []sentinews.RankedEntity{
			{EntityName: "Apple", EntityType: "company", SentimentCount: 12},
			{EntityName: "Bitcoin", EntityType: "crypto", SentimentCount: 9},
			{EntityName: "Apple Hospitality", EntityType: "company", SentimentCount: 3},
			{EntityName: "Ethereum", EntityType: "crypto", SentimentCount: 2},
		},
		Stats: sentinews.DashboardStats{
			TotalEntities:         4,
			ArticlesAnalyzed:      2,
			TotalSentimentPoints:  2,
			SentimentDistribution: map[string]int{"positive": 1, "negative": 1, "neutral": 0},
		},
		BySent: map[string]sentinews.ArticlesBySentiment{
			"Apple": {
				PositiveFinancial: []sentinews.ArticleRef{{Title: "Apple beats estimates", URL: "https://news.example/apple-q3", Reasoning: "Revenue grew faster than expected."}},
				PositiveOverall:   []sentinews.ArticleRef{{Title: "Apple beats estimates", URL: "https://news.example/apple-q3", Reasoning: "Revenue grew faster than expected."}},
			},
			"Bitcoin": {
				NegativeFinancial: []sentinews.ArticleRef{{Title: "Bitcoin slides after ETF outflows", URL: "https://news.example/btc-etf", Reasoning: "Large outflows pressured the price."}},
				NeutralOverall:    []sentinews.ArticleRef{{Title: "Bitcoin slides after ETF outflows", URL: "https://news.example/btc-etf", Reasoning: "Large outflows pressured the price."}},
			},
		},
		Trends: map[string]sentinews.SentimentTrend{
			"Apple": {
				EntityName:     "Apple",
				FinancialTrend: []sentinews.TrendPoint{{Date: "2025-07-30", Score: 1}},
				OverallTrend:   []sentinews.TrendPoint{{Date: "2025-07-30", Score: 1}},
			},
			"Bitcoin": {
				EntityName:     "Bitcoin",
				FinancialTrend: []sentinews.TrendPoint{{Date: "2025-07-31", Score: -1}},
				OverallTrend:   []sentinews.TrendPoint{{Date: "2025-07-31", Score: 0}},
			},
		},
		Summaries: map[string]sentinews.EntitySummary{
			"Apple": {
				PositiveFinancial: []string{"Revenue grew faster than expected."},
				FinalSummary:      "Apple is in a strong financial position.",
			},
			"Bitcoin": {
				NegativeFinancial: []string{"Large outflows pressured the price."},
				FinalSummary:      "Bitcoin faces short-term selling pressure.",
			},
		},
		Scrapers: []string{"cnbc", "coindesk", "reuters"},
		Status:   sentinews.PipelineStatus{Status: "Idle", CurrentTask: "N/A"},
		LastRun:  sentinews.PipelineRun{"status": "Completed", "articles_scraped": float64(42)},
		Usage: []sentinews.UsageStat{
			{ID: 7, ArticleID: 2, Provider: "groq", TotalTokens: 900, TotalCostUSD: 0.0004, Timestamp: "2025-07-31T10:00:00Z"},
			{ID: 6, ArticleID: 1, Provider: "openai", TotalTokens: 1200, TotalCostUSD: 0.0018, Timestamp: "2025-07-30T10:00:00Z"},
		},
		Summary: []sentinews.UsageStat{
			{Provider: "openai", TotalCalls: 1, TotalTokens: 1200, TotalCost: 0.0018},
			{Provider: "groq", TotalCalls: 1, TotalTokens: 900, TotalCost: 0.0004},
		},
	}
}
