package sentinews

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/adeilh/sentiscope/fetcher"
)

var scheduleTime = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return scheduleTime.MatchString(fl.Field().String())
	})
	return v
}

// ArticleQuery filters the article listing. Zero values are not sent.
type ArticleQuery struct {
	EntityName         string
	EntityType         string `validate:"omitempty,oneof=company crypto"`
	FinancialSentiment string `validate:"omitempty,oneof=positive negative neutral"`
	OverallSentiment   string `validate:"omitempty,oneof=positive negative neutral"`
	Limit              int    `validate:"gte=0"`
}

func (q ArticleQuery) params() fetcher.Params {
	return fetcher.Params{
		"entity_name":         q.EntityName,
		"entity_type":         q.EntityType,
		"financial_sentiment": q.FinancialSentiment,
		"overall_sentiment":   q.OverallSentiment,
		"limit":               positive(q.Limit),
	}
}

// TopEntitiesQuery ranks entities by how often they carry Sentiment on the
// SentimentType dimension. Empty fields fall back to the server defaults
// (overall, positive, desc, 10).
type TopEntitiesQuery struct {
	SentimentType string `validate:"omitempty,oneof=financial overall"`
	Sentiment     string `validate:"omitempty,oneof=positive negative neutral"`
	Order         string `validate:"omitempty,oneof=asc desc"`
	Limit         int    `validate:"gte=0"`
}

func (q TopEntitiesQuery) params() fetcher.Params {
	return fetcher.Params{
		"sentiment_type": q.SentimentType,
		"sentiment":      q.Sentiment,
		"order":          q.Order,
		"limit":          positive(q.Limit),
	}
}

type entityRef struct {
	Name string `validate:"required"`
	Type string `validate:"required"`
}

// TriggerRequest starts a pipeline run. Nil Scrapers runs every scraper.
type TriggerRequest struct {
	Password     string   `json:"password,omitempty"`
	Scrapers     []string `json:"scrapers,omitempty" validate:"omitempty,dive,required"`
	Provider     string   `json:"provider,omitempty" validate:"omitempty,oneof=openai groq"`
	ModelName    string   `json:"model_name,omitempty"`
	OpenAIAPIKey string   `json:"openai_api_key,omitempty"`
	GroqAPIKey   string   `json:"groq_api_key,omitempty"`
}

type StopRequest struct {
	Password string `json:"password,omitempty"`
}

// ScheduleRequest sets the daily UTC run time, formatted HH:MM.
type ScheduleRequest struct {
	Password     string `json:"password,omitempty"`
	ScheduleTime string `json:"schedule_time" validate:"required,hhmm"`
}

func positive(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
