package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"surveyhub/internal/config"
	"surveyhub/internal/model"
	"surveyhub/internal/normalizer"
	"surveyhub/internal/repository"
	"surveyhub/pkg/logger"
)

//go:embed survey.yaml
var defaultFixture []byte

// fixture is a survey as authored by hand. Questions may use any of the
// legacy shapes the builder ever produced.
type fixture struct {
	OwnerID      string                   `yaml:"ownerId"`
	Title        string                   `yaml:"title"`
	Description  string                   `yaml:"description"`
	Status       model.SurveyStatus       `yaml:"status"`
	PersonalInfo model.PersonalInfoConfig `yaml:"personalInfo"`
	Questions    []normalizer.RawQuestion `yaml:"questions"`
}

func main() {
	file := flag.String("file", "", "YAML survey fixture (defaults to the bundled sample)")
	owner := flag.String("owner", "", "override the fixture owner account")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.LogLevel, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	data := defaultFixture
	if *file != "" {
		if data, err = os.ReadFile(*file); err != nil {
			lg.Fatal("failed to read fixture", zap.String("file", *file), zap.Error(err))
		}
	}

	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		lg.Fatal("failed to parse fixture", zap.Error(err))
	}
	if *owner != "" {
		fx.OwnerID = *owner
	}
	if fx.Status == "" {
		fx.Status = model.SurveyActive
	}

	norm := normalizer.New(normalizer.UUIDGenerator{})
	survey := &model.Survey{
		OwnerID:      fx.OwnerID,
		Title:        fx.Title,
		Description:  fx.Description,
		Status:       fx.Status,
		PersonalInfo: fx.PersonalInfo,
	}
	for _, raw := range fx.Questions {
		survey.Questions = append(survey.Questions, norm.FromRaw(raw))
	}
	norm.NormalizeSurvey(survey)

	if survey.Status.IsPublished() {
		if err := survey.ValidateForPublish(survey.Status); err != nil {
			lg.Fatal("fixture is not publishable", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	repo := repository.NewSurveyRepo(client.Database(cfg.MongoDB))
	id, err := repo.Create(ctx, survey)
	if err != nil {
		lg.Fatal("failed to insert survey", zap.Error(err))
	}

	lg.Info("seeded survey",
		zap.String("surveyId", id),
		zap.String("ownerId", survey.OwnerID),
		zap.String("status", string(survey.Status)),
		zap.Int("questions", len(survey.Questions)))
}
