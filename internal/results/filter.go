package results

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"surveyhub/internal/model"
)

var ErrInvalidFilter = errors.New("invalid results filter")

const dateLayout = "2006-01-02"

// TimeBucket is a fixed local time-of-day window
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"   // 06-12
	BucketAfternoon TimeBucket = "afternoon" // 12-18
	BucketEvening   TimeBucket = "evening"   // 18-22
	BucketNight     TimeBucket = "night"     // 22-06
)

func (b TimeBucket) Valid() bool {
	switch b {
	case BucketMorning, BucketAfternoon, BucketEvening, BucketNight:
		return true
	}
	return false
}

// Contains reports whether a local hour (0-23) falls into the bucket.
func (b TimeBucket) Contains(hour int) bool {
	switch b {
	case BucketMorning:
		return hour >= 6 && hour < 12
	case BucketAfternoon:
		return hour >= 12 && hour < 18
	case BucketEvening:
		return hour >= 18 && hour < 22
	case BucketNight:
		return hour >= 22 || hour < 6
	}
	return false
}

// Operator is a per-question text comparison
type Operator string

const (
	OpContains   Operator = "contains"
	OpEquals     Operator = "equals"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

func (o Operator) Valid() bool {
	switch o {
	case OpContains, OpEquals, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

func (o Operator) match(got, want string) bool {
	got, want = strings.ToLower(strings.TrimSpace(got)), strings.ToLower(strings.TrimSpace(want))
	switch o {
	case OpContains:
		return strings.Contains(got, want)
	case OpEquals:
		return got == want
	case OpStartsWith:
		return strings.HasPrefix(got, want)
	case OpEndsWith:
		return strings.HasSuffix(got, want)
	}
	return false
}

// QuestionCondition narrows responses by the answer to one question
type QuestionCondition struct {
	QuestionID string   `json:"questionId"`
	Operator   Operator `json:"operator"`
	Value      string   `json:"value"`
}

// Matches reports whether r's answer satisfies the condition. A response
// without an answer to the question never matches. A multi-value answer
// matches when any selected value does, or when its joined text does.
func (c QuestionCondition) Matches(r *model.Response) bool {
	a, ok := r.FindAnswer(c.QuestionID)
	if !ok {
		return false
	}
	for _, v := range a.Value.Values() {
		if c.Operator.match(v, c.Value) {
			return true
		}
	}
	return c.Operator.match(a.Value.String(), c.Value)
}

// Filter holds the conjunctive results filters. Zero fields do not filter.
// DateFrom and DateTo are calendar dates; both ends are inclusive.
type Filter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	TimeBucket TimeBucket
	Condition  *QuestionCondition
}

// Apply returns the responses passing every filter, in input order. The
// input slice is not modified. Dates and hours are read in loc.
func Apply(responses []*model.Response, f Filter, loc *time.Location) []*model.Response {
	if loc == nil {
		loc = time.UTC
	}
	var from, until time.Time
	if f.DateFrom != nil {
		from = startOfDay(*f.DateFrom, loc)
	}
	if f.DateTo != nil {
		until = startOfDay(*f.DateTo, loc).AddDate(0, 0, 1)
	}

	out := make([]*model.Response, 0, len(responses))
	for _, r := range responses {
		at := r.SubmittedAt.In(loc)
		if f.DateFrom != nil && at.Before(from) {
			continue
		}
		if f.DateTo != nil && !at.Before(until) {
			continue
		}
		if f.TimeBucket != "" && !f.TimeBucket.Contains(at.Hour()) {
			continue
		}
		if f.Condition != nil && !f.Condition.Matches(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseFilter reads a filter from query parameters: dateFrom, dateTo
// (YYYY-MM-DD in loc), timeBucket, questionId, operator, value.
func ParseFilter(q url.Values, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f Filter
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"dateFrom", &f.DateFrom}, {"dateTo", &f.DateTo}} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s %q", ErrInvalidFilter, p.key, raw)
		}
		*p.dst = &d
	}

	if b := TimeBucket(strings.ToLower(strings.TrimSpace(q.Get("timeBucket")))); b != "" && b != "all" {
		if !b.Valid() {
			return Filter{}, fmt.Errorf("%w: timeBucket %q", ErrInvalidFilter, b)
		}
		f.TimeBucket = b
	}

	if qid := strings.TrimSpace(q.Get("questionId")); qid != "" {
		op := Operator(strings.TrimSpace(q.Get("operator")))
		if op == "" {
			op = OpContains
		}
		if !op.Valid() {
			return Filter{}, fmt.Errorf("%w: operator %q", ErrInvalidFilter, op)
		}
		f.Condition = &QuestionCondition{QuestionID: qid, Operator: op, Value: q.Get("value")}
	}
	return f, nil
}
