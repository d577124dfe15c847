package model

import "time"

// ChartKind is a suggested visualization for a question's results
type ChartKind string

const (
	ChartCategorical ChartKind = "categorical" // single-series pie/bar
	ChartMultiBar    ChartKind = "multi_bar"   // one bar per option, buckets overlap
	ChartOrdered     ChartKind = "ordered"     // line over ordered scale points
	ChartList        ChartKind = "list"        // free text, no chart
)

// Bucket is one tally entry, in option order
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// QuestionStats is the per-question aggregate over a response set
type QuestionStats struct {
	QuestionID   string         `json:"questionId"`
	Type         QuestionType   `json:"type"`
	Title        string         `json:"title"`
	Tally        map[string]int `json:"tally"`
	Buckets      []Bucket       `json:"buckets"`
	Answered     int            `json:"answered"`
	ResponseRate float64        `json:"responseRate"`
	ChartKind    ChartKind      `json:"chartKind"`

	// Ordinal types only
	Mean *float64 `json:"mean,omitempty"`

	// Free-text types only
	Texts []string `json:"texts,omitempty"`
}

// DailyCount is the number of responses submitted on one local date
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ResultsSummary is the full results view for one survey
type ResultsSummary struct {
	SurveyID          string          `json:"surveyId"`
	TotalResponses    int             `json:"totalResponses"`
	FilteredResponses int             `json:"filteredResponses"`
	AvgCompletionSec  float64         `json:"avgCompletionSec"`
	MedianCompletion  float64         `json:"medianCompletionSec"`
	CompletionSamples int             `json:"completionSamples"`
	Questions         []QuestionStats `json:"questions"`
	Daily             []DailyCount    `json:"daily"`
	LatestSubmittedAt *time.Time      `json:"latestSubmittedAt,omitempty"`
}
