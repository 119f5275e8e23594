package mongostore

import (
	"context"
	"time"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	trackingsCollection = "trackings"
	shipmentsCollection = "shipments"
	contactsCollection  = "contacts"
)

type Storage struct {
	client *mongo.Client

	trackings *mongo.Collection
	shipments *mongo.Collection
	contacts  *mongo.Collection
}

func New(ctx context.Context, uri, username, password, database string) (*Storage, error) {
	opts := options.Client().
		ApplyURI(uri).
		// вложенные документы в произвольных полях трекинга читаем как map, а не bson.D
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if username != "" && password != "" {
		opts.SetAuth(options.Credential{Username: username, Password: password})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}

	db := client.Database(database)
	s := &Storage{
		client:    client,
		trackings: db.Collection(trackingsCollection),
		shipments: db.Collection(shipmentsCollection),
		contacts:  db.Collection(contactsCollection),
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the unique keys the services rely on for
// collision detection of generated numbers.
func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.trackings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "trackingNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return errors.Wrap(err, "create tracking indexes")
	}

	_, err = s.shipments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipmentNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return errors.Wrap(err, "create shipment indexes")
	}

	_, err = s.contacts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(err, "create contact indexes")
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.client.Ping(ctx, nil), "ping mongo")
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// mapErr translates driver errors into the model-level sentinels.
func mapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(models.ErrDuplicateKey, op)
	default:
		return errors.Wrap(err, op)
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
