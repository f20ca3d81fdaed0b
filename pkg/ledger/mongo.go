package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pario-ai/aigateway/pkg/models"
)

// MongoStore implements Store on a MongoDB collection of quota documents.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// DefaultMongoCollection is the collection quota documents live in.
const DefaultMongoCollection = "quotas"

// NewMongo connects to uri and uses the quotas collection of database.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ledger/mongo: ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(DefaultMongoCollection),
	}, nil
}

func mongoFilter(f Filter) bson.M {
	m := bson.M{}
	if f.UseCaseID != "" {
		m["use_case.id"] = f.UseCaseID
	}
	if f.ProviderName != "" {
		m["provider.name"] = f.ProviderName
	}
	if f.ModelName != "" {
		m["provider.model.name"] = f.ModelName
	}
	if f.Enabled != nil {
		m["enabled"] = *f.Enabled
	}
	if f.ExcludeID != "" {
		m["_id"] = bson.M{"$ne": f.ExcludeID}
	}
	return m
}

func mongoUpdate(u Update) bson.M {
	set := bson.M{}
	if u.Enabled != nil {
		set["enabled"] = *u.Enabled
	}
	if u.Balance != nil {
		set["balance"] = *u.Balance
	}
	return bson.M{"$set": set}
}

var createdOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (s *MongoStore) Insert(ctx context.Context, q models.Quota) error {
	if _, err := s.coll.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("ledger/mongo: insert: %w", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, f Filter) ([]models.Quota, error) {
	cur, err := s.coll.Find(ctx, mongoFilter(f), options.Find().SetSort(createdOrder))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: find: %w", err)
	}
	var out []models.Quota
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ledger/mongo: decode: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) FindOneAndUpdate(ctx context.Context, f Filter, u Update) (*models.Quota, error) {
	var q models.Quota
	var err error
	if u.empty() {
		err = s.coll.FindOne(ctx, mongoFilter(f), options.FindOne().SetSort(createdOrder)).Decode(&q)
	} else {
		opts := options.FindOneAndUpdate().
			SetSort(createdOrder).
			SetReturnDocument(options.After)
		err = s.coll.FindOneAndUpdate(ctx, mongoFilter(f), mongoUpdate(u), opts).Decode(&q)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: find one and update: %w", err)
	}
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}

func (s *MongoStore) UpdateMany(ctx context.Context, f Filter, u Update) (int64, error) {
	if u.empty() {
		n, err := s.coll.CountDocuments(ctx, mongoFilter(f))
		if err != nil {
			return 0, fmt.Errorf("ledger/mongo: count: %w", err)
		}
		return n, nil
	}
	res, err := s.coll.UpdateMany(ctx, mongoFilter(f), mongoUpdate(u))
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: update many: %w", err)
	}
	return res.MatchedCount, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
