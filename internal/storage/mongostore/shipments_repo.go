package mongostore

import (
	"context"
	"regexp"

	"github.com/BearBump/CargoTrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var shipmentSearchFields = []string{"shipmentNumber", "fullName", "email", "origin", "destination"}

func (s *Storage) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	if sh.ID == "" {
		sh.ID = models.NewID()
	}
	_, err := s.shipments.InsertOne(ctx, sh)
	return mapErr(err, "insert shipment")
}

func (s *Storage) CountShipments(ctx context.Context) (int64, error) {
	n, err := s.shipments.EstimatedDocumentCount(ctx)
	return n, mapErr(err, "count shipments")
}

// ListShipments returns one page of shipments, newest first, and the total
// number of shipments matching the filter.
func (s *Storage) ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.CargoType != "" {
		q["cargoType"] = f.CargoType
	}
	if f.Search != "" {
		// поиск по подстроке без учёта регистра; ввод пользователя экранируем
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make(bson.A, 0, len(shipmentSearchFields))
		for _, field := range shipmentSearchFields {
			or = append(or, bson.M{field: re})
		}
		q["$or"] = or
	}

	total, err := s.shipments.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, mapErr(err, "count shipments")
	}

	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cur, err := s.shipments.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, mapErr(err, "find shipments")
	}
	defer cur.Close(ctx)

	out := []*models.Shipment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, mapErr(err, "decode shipments")
	}
	return out, total, nil
}

func (s *Storage) GetShipmentByID(ctx context.Context, id string) (*models.Shipment, error) {
	return s.findShipment(ctx, bson.M{"_id": id})
}

func (s *Storage) GetShipmentByNumber(ctx context.Context, number string) (*models.Shipment, error) {
	return s.findShipment(ctx, bson.M{"shipmentNumber": number})
}

func (s *Storage) findShipment(ctx context.Context, filter bson.M) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.shipments.FindOne(ctx, filter).Decode(&sh); err != nil {
		return nil, mapErr(err, "find shipment")
	}
	return &sh, nil
}

// ReplaceShipment stores sh as a whole under its id.
func (s *Storage) ReplaceShipment(ctx context.Context, sh *models.Shipment) error {
	res, err := s.shipments.ReplaceOne(ctx, bson.M{"_id": sh.ID}, sh)
	if err != nil {
		return mapErr(err, "replace shipment")
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteShipment(ctx context.Context, id string) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.shipments.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&sh); err != nil {
		return nil, mapErr(err, "delete shipment")
	}
	return &sh, nil
}
