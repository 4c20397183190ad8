package plans

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepo implements Repository on MongoDB for deployments that want to
// update plans without a redeploy. Collections: "plans" holds Plan
// documents, "scripts" holds {planId, group, code} documents.
type MongoRepo struct {
	plans   *mongo.Collection
	scripts *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		plans:   db.Collection("plans"),
		scripts: db.Collection("scripts"),
	}
}

func (r *MongoRepo) ListPlans(ctx context.Context) ([]Plan, error) {
	cur, err := r.plans.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Plan
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type scriptDoc struct {
	PlanID string `bson:"planId"`
	Group  string `bson:"group"`
	Code   string `bson:"code"`
}

func (r *MongoRepo) GetScripts(ctx context.Context, planID string) (map[string]string, error) {
	cur, err := r.scripts.Find(ctx, bson.M{"planId": planID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []scriptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrPlanNotFound
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Group] = d.Code
	}
	return out, nil
}
