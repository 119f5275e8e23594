package mongostore

import (
	"context"
	"time"

	"github.com/BearBump/CargoTrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) CreateTracking(ctx context.Context, t *models.Tracking) error {
	if t.ID == "" {
		t.ID = models.NewID()
	}
	if t.Events == nil {
		t.Events = []models.TimelineEvent{}
	}
	_, err := s.trackings.InsertOne(ctx, t)
	return mapErr(err, "insert tracking")
}

func (s *Storage) ListTrackings(ctx context.Context) ([]*models.Tracking, error) {
	cur, err := s.trackings.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, mapErr(err, "find trackings")
	}
	defer cur.Close(ctx)

	out := []*models.Tracking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr(err, "decode trackings")
	}
	return out, nil
}

func (s *Storage) CountTrackings(ctx context.Context) (int64, error) {
	n, err := s.trackings.EstimatedDocumentCount(ctx)
	return n, mapErr(err, "count trackings")
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, number string) (*models.Tracking, error) {
	return s.findTracking(ctx, bson.M{"trackingNumber": number})
}

func (s *Storage) GetTrackingByID(ctx context.Context, id string) (*models.Tracking, error) {
	return s.findTracking(ctx, bson.M{"_id": id})
}

func (s *Storage) findTracking(ctx context.Context, filter bson.M) (*models.Tracking, error) {
	var t models.Tracking
	if err := s.trackings.FindOne(ctx, filter).Decode(&t); err != nil {
		return nil, mapErr(err, "find tracking")
	}
	return &t, nil
}

// UpdateTracking sets only the fields carried by the patch and returns the
// record as stored afterwards.
func (s *Storage) UpdateTracking(ctx context.Context, id string, patch *models.TrackingPatch, now time.Time) (*models.Tracking, error) {
	set := patch.Fields()
	set["updatedAt"] = now

	var t models.Tracking
	err := s.trackings.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, mapErr(err, "update tracking")
	}
	return &t, nil
}

func (s *Storage) DeleteTracking(ctx context.Context, id string) (*models.Tracking, error) {
	var t models.Tracking
	if err := s.trackings.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err, "delete tracking")
	}
	return &t, nil
}
