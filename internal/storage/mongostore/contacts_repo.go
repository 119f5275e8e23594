package mongostore

import (
	"context"

	"github.com/BearBump/CargoTrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) CreateContact(ctx context.Context, c *models.Contact) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	_, err := s.contacts.InsertOne(ctx, c)
	return mapErr(err, "insert contact")
}

func (s *Storage) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	cur, err := s.contacts.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, mapErr(err, "find contacts")
	}
	defer cur.Close(ctx)

	out := []*models.Contact{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr(err, "decode contacts")
	}
	return out, nil
}

func (s *Storage) GetContactByID(ctx context.Context, id string) (*models.Contact, error) {
	var c models.Contact
	if err := s.contacts.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err, "find contact")
	}
	return &c, nil
}

func (s *Storage) ReplaceContact(ctx context.Context, c *models.Contact) error {
	res, err := s.contacts.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mapErr(err, "replace contact")
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteContact(ctx context.Context, id string) (*models.Contact, error) {
	var c models.Contact
	if err := s.contacts.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err, "delete contact")
	}
	return &c, nil
}
