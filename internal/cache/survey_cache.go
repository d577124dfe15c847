package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyhub/internal/model"
)

// SurveyCache holds read-mostly copies of surveys for the respondent path
type SurveyCache interface {
	Set(ctx context.Context, survey *model.Survey) error
	Get(ctx context.Context, id string) (*model.Survey, error)
	Delete(ctx context.Context, id string) error
}

type surveyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSurveyCache(client *redis.Client, ttl time.Duration) SurveyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &surveyCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *surveyCache) key(id string) string {
	return fmt.Sprintf("survey:%s", id)
}

func (c *surveyCache) Set(ctx context.Context, survey *model.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(survey.ID), data, c.ttl).Err()
}

func (c *surveyCache) Get(ctx context.Context, id string) (*model.Survey, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var survey model.Survey
	if err := json.Unmarshal([]byte(data), &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (c *surveyCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
