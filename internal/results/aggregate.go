package results

import (
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"surveyhub/internal/model"
)

// Completion samples outside (0, MaxCompletion) are treated as abandoned tabs
// or clock skew and left out of the statistics.
const MaxCompletion = time.Hour

// CompletionSamples returns the completion time in seconds of every
// response that is not an outlier.
func CompletionSamples(responses []*model.Response) []float64 {
	samples := make([]float64, 0, len(responses))
	for _, r := range responses {
		d := r.CompletionTime()
		if d <= 0 || d >= MaxCompletion {
			continue
		}
		samples = append(samples, d.Seconds())
	}
	return samples
}

// AverageCompletion is the mean completion time in seconds over the
// non-outlier samples, 0 when there are none.
func AverageCompletion(responses []*model.Response) float64 {
	return mean(CompletionSamples(responses))
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m, err := stats.Mean(samples)
	if err != nil {
		return 0
	}
	return round(m)
}

func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m, err := stats.Median(samples)
	if err != nil {
		return 0
	}
	return round(m)
}

func round(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}

// Tally counts each answered value of q. A multi-value answer increments
// every selected value once.
func Tally(q *model.Question, responses []*model.Response) map[string]int {
	tally := make(map[string]int)
	for _, r := range responses {
		v, ok := r.AnswerFor(q)
		if !ok {
			continue
		}
		seen := make(map[string]struct{})
		for _, s := range v.Values() {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			tally[s]++
		}
	}
	return tally
}

// Answered counts responses holding any answer to q, empty ones included.
func Answered(q *model.Question, responses []*model.Response) int {
	n := 0
	for _, r := range responses {
		if _, ok := r.FindAnswer(q.ID); ok {
			n++
		}
	}
	return n
}

// ResponseRate is Answered / len(responses), 0 for an empty set.
func ResponseRate(q *model.Question, responses []*model.Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	return float64(Answered(q, responses)) / float64(len(responses))
}

// Buckets orders a tally for display: declared options first in their
// declared order (zero counts included), then values no option declares,
// most frequent first.
func Buckets(q *model.Question, tally map[string]int) []model.Bucket {
	buckets := make([]model.Bucket, 0, len(q.Options)+len(tally))
	declared := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if declared[o.Text] {
			continue
		}
		declared[o.Text] = true
		buckets = append(buckets, model.Bucket{Value: o.Text, Count: tally[o.Text]})
	}

	var extra []model.Bucket
	for v, c := range tally {
		if !declared[v] {
			extra = append(extra, model.Bucket{Value: v, Count: c})
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		if extra[i].Count != extra[j].Count {
			return extra[i].Count > extra[j].Count
		}
		return extra[i].Value < extra[j].Value
	})
	return append(buckets, extra...)
}

// QuestionSummary aggregates one question over a response set.
func QuestionSummary(q *model.Question, responses []*model.Response) model.QuestionStats {
	tally := Tally(q, responses)
	st := model.QuestionStats{
		QuestionID:   q.ID,
		Type:         q.Type,
		Title:        q.Title,
		Tally:        tally,
		Answered:     Answered(q, responses),
		ResponseRate: ResponseRate(q, responses),
		ChartKind:    ChartKindFor(q.Type),
	}

	switch {
	case q.Type.IsFreeText():
		st.Buckets = []model.Bucket{}
		st.Texts = []string{}
		for _, r := range responses {
			if v, ok := r.AnswerFor(q); ok && !v.IsEmpty() {
				st.Texts = append(st.Texts, v.String())
			}
		}
	case q.Type.IsOrdinal():
		st.Buckets = Buckets(q, tally)
		var points []float64
		for _, r := range responses {
			if v, ok := r.AnswerFor(q); ok {
				if f, ok := v.Float(); ok {
					points = append(points, f)
				}
			}
		}
		if len(points) > 0 {
			m := mean(points)
			st.Mean = &m
		}
	default:
		st.Buckets = Buckets(q, tally)
	}
	return st
}

// DailyCounts groups responses by their local submission date, oldest first.
func DailyCounts(responses []*model.Response, loc *time.Location) []model.DailyCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, r := range responses {
		counts[r.SubmittedAt.In(loc).Format(dateLayout)]++
	}
	out := make([]model.DailyCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, model.DailyCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Summarize builds the full results view. Totals count all responses; every
// statistic is computed over the filtered set. Empty input yields zero values.
func Summarize(survey *model.Survey, all, filtered []*model.Response, loc *time.Location) *model.ResultsSummary {
	samples := CompletionSamples(filtered)
	out := &model.ResultsSummary{
		SurveyID:          survey.ID,
		TotalResponses:    len(all),
		FilteredResponses: len(filtered),
		AvgCompletionSec:  mean(samples),
		MedianCompletion:  median(samples),
		CompletionSamples: len(samples),
		Questions:         make([]model.QuestionStats, 0, len(survey.Questions)),
		Daily:             DailyCounts(filtered, loc),
	}
	for i := range survey.Questions {
		out.Questions = append(out.Questions, QuestionSummary(&survey.Questions[i], filtered))
	}
	for _, r := range all {
		if out.LatestSubmittedAt == nil || r.SubmittedAt.After(*out.LatestSubmittedAt) {
			at := r.SubmittedAt
			out.LatestSubmittedAt = &at
		}
	}
	return out
}
