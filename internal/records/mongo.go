package records

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSource stores each doctype as a collection of the same name.
type MongoSource struct {
	client   *mongo.Client
	database *mongo.Database
}

func OpenMongo(ctx context.Context, uri, dbName string) (*MongoSource, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoSource{client: client, database: client.Database(dbName)}, nil
}

func (m *MongoSource) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoSource) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoSource) List(ctx context.Context, arg ListParams) ([]Record, error) {
	filter, opts := mongoQuery(arg)

	cur, err := m.database.Collection(arg.Doctype).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, Record(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mongoQuery(arg ListParams) (bson.D, *options.FindOptions) {
	filter := bson.D{}
	for _, c := range arg.Filter.Conditions() {
		filter = append(filter, bson.E{Key: c.Field, Value: c.Value})
	}

	projection := bson.D{{Key: "_id", Value: 0}}
	for _, f := range arg.Fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}

	opts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "name", Value: 1}})
	if arg.Limit > 0 {
		opts.SetLimit(int64(arg.Limit))
	}
	return filter, opts
}
