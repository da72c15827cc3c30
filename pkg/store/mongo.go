package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

const (
	// DefaultMongoDatabase is used when no database name is configured.
	DefaultMongoDatabase = "fretsheet"

	sheetsCollection = "sheets"
	connectTimeout   = 10 * time.Second
)

// MongoStore keeps sheets in a MongoDB collection, one document per sheet
// with the sheet ID as _id.
type MongoStore struct {
	client *mongo.Client
	sheets *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo store requires a connection URI")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongo")
	}
	ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	if err := retry(ctx, pingAttempts, pingDelay, ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}
	return &MongoStore{client: client, sheets: client.Database(database).Collection(sheetsCollection)}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*sheet.Sheet, error) {
	var rec sheet.Record
	err := s.sheets.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load sheet %q", id)
	}
	return sheet.FromRecord(rec)
}

// summaryRow is the projection List reads.
type summaryRow struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	GridRows  int       `bson:"gridRows"`
	GridCols  int       `bson:"gridCols"`
	GridType  string    `bson:"diagramTypeClass"`
	Count     int       `bson:"count"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "gridRows", Value: 1},
			{Key: "gridCols", Value: 1},
			{Key: "diagramTypeClass", Value: 1},
			{Key: "updatedAt", Value: 1},
			{Key: "count", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$diagrams", bson.A{}}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := s.sheets.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list sheets")
	}
	var rows []summaryRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode sheet list")
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		sum := summarize(sheet.Record{ID: r.ID, Title: r.Title, GridRows: r.GridRows, GridCols: r.GridCols, GridType: r.GridType, UpdatedAt: r.UpdatedAt})
		sum.Diagrams = r.Count
		out = append(out, sum)
	}
	return out, nil
}

func (s *MongoStore) Put(ctx context.Context, sh *sheet.Sheet) error {
	rec, err := prepare(sh)
	if err != nil {
		return err
	}
	_, err = s.sheets.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save sheet %q", rec.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.sheets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete sheet %q", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
