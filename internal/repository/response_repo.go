package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyhub/internal/model"
)

// ResponseRepo stores completed responses. Responses are insert-only; they
// leave the collection only when their survey is deleted.
type ResponseRepo interface {
	Create(ctx context.Context, response *model.Response) (string, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error)
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type responseRepo struct {
	collection *mongo.Collection
}

func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "surveyId", Value: 1}, {Key: "submittedAt", Value: 1}},
	})
	return err
}

func (r *responseRepo) Create(ctx context.Context, response *model.Response) (string, error) {
	if response.SubmittedAt.IsZero() {
		response.SubmittedAt = time.Now()
	}
	response.ID = ""

	result, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return "", err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		response.ID = oid.Hex()
	}
	return response.ID, nil
}

// ListBySurvey returns every response of a survey, oldest submission first.
func (r *responseRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []*model.Response{}
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID})
}

func (r *responseRepo) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
