package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// MongoExporter inserts every record as one document.
type MongoExporter struct {
	client     *mongo.Client
	collection *mongo.Collection
	target     string
	timeout    time.Duration
	logger     *slog.Logger
}

func newMongo(ctx context.Context, def definition.ExportDefinition, opts Options) (*MongoExporter, error) {
	target := redact(def.DBConnectionString)
	if def.DatabaseName == "" || def.CollectionName == "" {
		return nil, &PersistenceError{Target: target, Op: "configure",
			Err: errors.New("database_name and collection_name are required for mongodb")}
	}

	clientOptions := options.Client().
		ApplyURI(def.DBConnectionString).
		SetConnectTimeout(opts.DBTimeout).
		SetServerSelectionTimeout(opts.DBTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, opts.DBTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, &PersistenceError{Target: target, Op: "connect", Err: err}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &PersistenceError{Target: target, Op: "ping", Err: err}
	}

	return &MongoExporter{
		client:     client,
		collection: client.Database(def.DatabaseName).Collection(def.CollectionName),
		target:     fmt.Sprintf("%s/%s.%s", target, def.DatabaseName, def.CollectionName),
		timeout:    opts.DBTimeout,
		logger:     opts.Logger,
	}, nil
}

func (e *MongoExporter) Export(ctx context.Context, result record.Result) error {
	docs := mongoDocuments(result)
	if len(docs) == 0 {
		e.logger.Debug("no records to insert", "target", e.target, "file", result.FileName)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.collection.InsertMany(ctx, docs)
	if err != nil {
		return &PersistenceError{Target: e.target, Op: "insert", Err: err}
	}
	e.logger.Debug("records inserted", "target", e.target, "inserted", len(res.InsertedIDs))
	return nil
}

func (e *MongoExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	return e.client.Disconnect(ctx)
}

// mongoDocuments converts records to ordered BSON documents.
func mongoDocuments(result record.Result) []any {
	docs := make([]any, len(result.Records))
	for i, rec := range result.Records {
		doc := make(bson.D, len(rec))
		for j, f := range rec {
			doc[j] = bson.E{Key: f.Name, Value: f.Value}
		}
		docs[i] = doc
	}
	return docs
}
